// Package logring keeps a bounded in-memory tail of the process log so
// the dashboard can show recent activity without touching log files.
package logring

import "sync"

// Ring is an io.Writer that retains the last N complete log lines.
// Writes never fail, so it is safe to tee the standard logger into it.
type Ring struct {
	mu      sync.Mutex
	cap     int
	lines   []string
	partial []byte
}

func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{cap: capacity}
}

func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range p {
		if b != '\n' {
			r.partial = append(r.partial, b)
			continue
		}
		r.push(string(r.partial))
		r.partial = r.partial[:0]
	}
	return len(p), nil
}

func (r *Ring) push(line string) {
	r.lines = append(r.lines, line)
	if len(r.lines) > r.cap {
		r.lines = r.lines[len(r.lines)-r.cap:]
	}
}

// Lines returns the retained tail, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}
