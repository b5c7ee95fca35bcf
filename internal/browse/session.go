// Package browse wraps the headless-browser capability behind a small
// interface so the pipeline can run against fakes in tests.
package browse

import (
	"context"
	"errors"
)

// ErrNavigation marks a page that failed to load within its timeout.
var ErrNavigation = errors.New("navigation failed")

// Element is one rendered DOM element matched by a selector.
type Element struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Session is one live browser tab. A session is owned by exactly one
// goroutine at a time; concurrent use of the same session is not safe.
// Every call honors ctx cancellation and deadline.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	Text(ctx context.Context, selector string) (string, error)
	Elements(ctx context.Context, selector string) ([]Element, error)
	HTML(ctx context.Context) (string, error)
	ScrollToBottom(ctx context.Context) error
	DismissConsent(ctx context.Context) error
	Close() error
}

// Browser hands out sessions. Workers each hold their own session; the
// browser itself is shared.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// Launcher starts a browser for one run. Injected so tests can supply a
// fake browser; a launch failure is the one fatal error of a run.
type Launcher func(ctx context.Context, headless bool) (Browser, error)
