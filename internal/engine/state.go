package engine

import (
	"context"
	"sync"
	"time"
)

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateStopping State = "stopping"
)

// Counters accumulate over one run and reset when the next one starts.
type Counters struct {
	Found    int `json:"found"`
	Enriched int `json:"enriched"`
	Failed   int `json:"failed"`
}

// Status is a point-in-time snapshot of the controller, shaped for the
// dashboard. RunID and counters survive into idle so the last run's
// summary stays visible.
type Status struct {
	State     State     `json:"state"`
	RunID     string    `json:"runId,omitempty"`
	Term      string    `json:"term,omitempty"`
	Location  string    `json:"location,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	Counters  Counters  `json:"counters"`
}

// gate implements pause. While open its channel is closed and wait
// returns immediately; pausing swaps in a fresh channel that wait blocks
// on until resume or cancellation.
type gate struct {
	mu sync.Mutex
	ch chan struct{}
}

func newGate() *gate {
	g := &gate{ch: make(chan struct{})}
	close(g.ch)
	return g
}

func (g *gate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		g.ch = make(chan struct{})
	default:
		// already paused
	}
}

func (g *gate) resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		// already open
	default:
		close(g.ch)
	}
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}
