// Package engine drives the scrape lifecycle. One controller owns the
// browser process, walks the query plan, and feeds collected listings
// through the enrichment pool into the lead store, publishing progress
// on the event bus as it goes.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"leadharvest-engine/internal/browse"
	"leadharvest-engine/internal/collect"
	"leadharvest-engine/internal/config"
	"leadharvest-engine/internal/domain"
	"leadharvest-engine/internal/enrich"
	"leadharvest-engine/internal/events"
	"leadharvest-engine/internal/store"
)

var (
	ErrNotIdle    = errors.New("a run is already in progress")
	ErrNotRunning = errors.New("no run in progress")
	ErrNotPaused  = errors.New("run is not paused")
)

// Controller is the run state machine. At most one run exists at a time:
// Start is legal only from idle, Stop blocks until the pipeline has
// drained, and pause suspends the collector between navigations without
// tearing anything down.
type Controller struct {
	Launch browse.Launcher
	Store  *store.Leads
	DB     *store.DB // optional sqlite mirror
	Bus    *events.Bus

	mu       sync.Mutex
	state    State
	runID    string
	started  time.Time
	current  domain.Query
	counters Counters
	gate     *gate
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewController(launch browse.Launcher, st *store.Leads, db *store.DB, bus *events.Bus) *Controller {
	return &Controller{
		Launch: launch,
		Store:  st,
		DB:     db,
		Bus:    bus,
		state:  StateIdle,
	}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:     c.state,
		RunID:     c.runID,
		Term:      c.current.Term,
		Location:  c.current.Location,
		StartedAt: c.started,
		Counters:  c.counters,
	}
}

// Start snapshots cfg and launches a run. The previous run's leads are
// cleared first; config edits made while a run is active only take
// effect on the next Start.
func (c *Controller) Start(cfg config.Config) error {
	cfg, v := config.NormalizeAndValidate(cfg)
	if !v.OK() {
		return config.Validate(cfg)
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.state = StateRunning
	c.runID = runID
	c.started = time.Now().UTC()
	c.current = domain.Query{}
	c.counters = Counters{}
	c.gate = newGate()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.Store.Clear()
	c.clearMirror()

	log.Printf("[engine] run %s starting (%d terms x %d locations)",
		runID, len(cfg.Search.Terms), len(cfg.Search.Locations))
	c.Bus.Publish(events.New(runID, events.TypeRunStarted, nil))

	go c.run(ctx, cfg, runID, done)
	return nil
}

// Pause holds the collector at its next suspension point. In-flight
// website visits finish; nothing new starts until Resume.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return ErrNotRunning
	}
	c.state = StatePaused
	c.gate.pause()
	log.Printf("[engine] run %s paused", c.runID)
	return nil
}

func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return ErrNotPaused
	}
	c.state = StateRunning
	c.gate.resume()
	log.Printf("[engine] run %s resumed", c.runID)
	return nil
}

// Stop cancels the active run and blocks until the pipeline has drained
// and the browser is closed. Leads already collected stay in the store.
// Calling Stop while idle is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == StateIdle || c.state == StateStopping {
		done := c.done
		c.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	c.state = StateStopping
	c.gate.resume() // release anything parked on pause so it can observe the cancel
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	log.Printf("[engine] stop requested")
	cancel()
	<-done
}

// Clear drops every collected lead. Only legal while idle.
func (c *Controller) Clear() error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.mu.Unlock()

	c.Store.Clear()
	c.clearMirror()
	return nil
}

func (c *Controller) run(ctx context.Context, cfg config.Config, runID string, done chan struct{}) {
	defer close(done)
	start := time.Now()

	browser, err := c.Launch(ctx, cfg.Search.Headless)
	if err != nil {
		// The only fatal failure: without a browser there is no run.
		log.Printf("[engine] browser launch failed: %v", err)
		c.Bus.Publish(events.New(runID, events.TypeRunError, events.RunError{Reason: err.Error()}))
		c.finish()
		return
	}
	defer browser.Close()

	// One shared pool for the whole run: its workers stay alive across
	// queries, so enrichment of one query overlaps collection of the next.
	pool := &enrich.Pool{
		Browser:        browser,
		Concurrency:    cfg.Enrich.Concurrency,
		VisitTimeout:   cfg.VisitTimeout(),
		Limiter:        enrich.NewHostLimiter(cfg.Enrich.RequestsPerHost, cfg.Enrich.Burst),
		PhoneMinDigits: cfg.Enrich.PhoneMinDigits,
	}
	plan := BuildPlan(cfg)

	listings := make(chan domain.RawListing, 16)
	leads := make(chan domain.Lead, 16)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(listings)
		for i, q := range plan {
			if err := c.pausePoint(gctx); err != nil {
				return nil // stopping
			}
			c.setCurrent(q)
			c.Bus.Publish(events.New(runID, events.TypeQueryStarted, events.QueryStarted{
				Term: q.Term, Location: q.Location, Index: i + 1, Total: len(plan),
			}))

			if err := c.collectQuery(gctx, cfg, browser, runID, q, listings); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				// A dead query does not kill the run; move on to the next one.
				log.Printf("[engine] query %q failed: %v", q.String(), err)
				c.Bus.Publish(events.New(runID, events.TypeQueryFailed, events.QueryFailed{
					Term: q.Term, Location: q.Location, Reason: err.Error(),
				}))
			}
		}
		return nil
	})

	g.Go(func() error {
		return pool.Run(gctx, listings, leads)
	})

	for lead := range leads {
		merged, isNew := c.Store.Upsert(lead)
		c.saveMirror(merged)
		if merged.Status == domain.StatusFailed {
			c.addFailed()
			c.Bus.Publish(events.New(runID, events.TypeLeadFailed, events.LeadFailed{
				ID: merged.ID, Name: merged.Name, Reason: merged.FailReason,
			}))
			continue
		}
		c.addEnriched()
		c.Bus.Publish(events.New(runID, events.TypeLeadEnriched, events.LeadEnriched{
			Lead: merged, New: isNew,
		}))
	}
	_ = g.Wait()

	counters := c.countersSnapshot()
	c.Bus.Publish(events.New(runID, events.TypeRunFinished, events.RunFinished{
		Found:    counters.Found,
		Enriched: counters.Enriched,
		Failed:   counters.Failed,
		Duration: time.Since(start).Round(time.Millisecond).String(),
		Stopped:  ctx.Err() != nil,
	}))
	log.Printf("[engine] run %s finished: found=%d enriched=%d failed=%d",
		runID, counters.Found, counters.Enriched, counters.Failed)
	c.finish()
}

// collectQuery runs one query's collector on a fresh session and feeds
// every listing into the shared enrichment channel.
func (c *Controller) collectQuery(ctx context.Context, cfg config.Config, browser browse.Browser, runID string, q domain.Query, out chan<- domain.RawListing) error {
	sess, err := browser.NewSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	col := &collect.Collector{
		Session:           sess,
		NavigationTimeout: cfg.NavigationTimeout(),
		ScrollPause:       cfg.ScrollPause(),
		MaxScrollAttempts: cfg.Collect.MaxScrollAttempts,
	}

	return col.Collect(ctx, q, func(raw domain.RawListing) error {
		if err := c.pausePoint(ctx); err != nil {
			return err
		}
		c.addFound()
		c.Bus.Publish(events.New(runID, events.TypeListingFound, events.ListingFound{
			Name: raw.Name, Address: raw.Address, Website: raw.Website,
		}))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- raw:
			return nil
		}
	})
}

func (c *Controller) pausePoint(ctx context.Context) error {
	c.mu.Lock()
	g := c.gate
	c.mu.Unlock()
	return g.wait(ctx)
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.state = StateIdle
	c.current = domain.Query{}
	cancel := c.cancel
	c.mu.Unlock()
	cancel()
}

func (c *Controller) setCurrent(q domain.Query) {
	c.mu.Lock()
	c.current = q
	c.mu.Unlock()
}

func (c *Controller) countersSnapshot() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}

func (c *Controller) addFound() {
	c.mu.Lock()
	c.counters.Found++
	c.mu.Unlock()
}

func (c *Controller) addEnriched() {
	c.mu.Lock()
	c.counters.Enriched++
	c.mu.Unlock()
}

func (c *Controller) addFailed() {
	c.mu.Lock()
	c.counters.Failed++
	c.mu.Unlock()
}

func (c *Controller) saveMirror(lead domain.Lead) {
	if c.DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.SaveLead(ctx, c.DB.Pool, lead); err != nil {
		log.Printf("[engine] mirror save: %v", err)
	}
}

func (c *Controller) clearMirror() {
	if c.DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.ClearLeads(ctx, c.DB.Pool); err != nil {
		log.Printf("[engine] mirror clear: %v", err)
	}
}
