package enrich

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadharvest-engine/internal/browse"
	"leadharvest-engine/internal/domain"
)

// gauge tracks the number of in-flight visits and the high-water mark.
type gauge struct {
	mu     sync.Mutex
	active int
	max    int
}

func (g *gauge) enter() {
	g.mu.Lock()
	g.active++
	if g.active > g.max {
		g.max = g.active
	}
	g.mu.Unlock()
}

func (g *gauge) leave() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
}

type fakeEnrichSession struct {
	html      string
	htmlByURL map[string]string // per-page HTML; overrides html when set
	anchors   []browse.Element
	navErrFor string // URL whose Navigate fails
	navDelay  time.Duration
	gauge     *gauge

	loc string
}

func (f *fakeEnrichSession) Navigate(ctx context.Context, url string) error {
	if f.gauge != nil {
		f.gauge.enter()
		defer f.gauge.leave()
	}
	if f.navDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.navDelay):
		}
	}
	if f.navErrFor != "" && url == f.navErrFor {
		return errors.New("connection refused")
	}
	f.loc = url
	return nil
}

func (f *fakeEnrichSession) Location(ctx context.Context) (string, error) { return f.loc, nil }
func (f *fakeEnrichSession) Text(ctx context.Context, sel string) (string, error) {
	return "", nil
}
func (f *fakeEnrichSession) Elements(ctx context.Context, sel string) ([]browse.Element, error) {
	return f.anchors, nil
}

func (f *fakeEnrichSession) HTML(ctx context.Context) (string, error) {
	if f.htmlByURL != nil {
		return f.htmlByURL[f.loc], nil
	}
	return f.html, nil
}
func (f *fakeEnrichSession) ScrollToBottom(ctx context.Context) error    { return nil }
func (f *fakeEnrichSession) DismissConsent(ctx context.Context) error    { return nil }
func (f *fakeEnrichSession) Close() error                                { return nil }

type fakeBrowser struct {
	sessions int32
	make     func() *fakeEnrichSession
}

func (f *fakeBrowser) NewSession(ctx context.Context) (browse.Session, error) {
	atomic.AddInt32(&f.sessions, 1)
	return f.make(), nil
}

func (f *fakeBrowser) Close() error { return nil }

func listing(name, website string) domain.RawListing {
	return domain.RawListing{
		Name: name, Address: name + " St", Website: website,
		Source: domain.Query{Term: "t", Location: "l"},
	}
}

func runPool(t *testing.T, p *Pool, listings []domain.RawListing) []domain.Lead {
	t.Helper()
	in := make(chan domain.RawListing, len(listings))
	for _, l := range listings {
		in <- l
	}
	close(in)

	out := make(chan domain.Lead, len(listings))
	require.NoError(t, p.Run(context.Background(), in, out))

	var got []domain.Lead
	for lead := range out {
		got = append(got, lead)
	}
	return got
}

func TestPoolEnrichesFromWebsite(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{
			html: `<body>Call (231) 456-7890 or write info@acme.com / Sales@acme.com</body>`,
		}
	}}
	p := &Pool{Browser: b, Concurrency: 1, VisitTimeout: time.Second, PhoneMinDigits: 10}

	got := runPool(t, p, []domain.RawListing{listing("Acme", "https://acme.com")})

	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusEnriched, got[0].Status)
	assert.Equal(t, []string{"info@acme.com", "sales@acme.com"}, got[0].Emails)
	assert.Equal(t, "(231) 456-7890", got[0].Phone)
}

func TestPoolKeepsDirectoryPhone(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{html: `<body>call (231) 456-7890</body>`}
	}}
	p := &Pool{Browser: b, Concurrency: 1, VisitTimeout: time.Second, PhoneMinDigits: 10}

	raw := listing("Acme", "https://acme.com")
	raw.Phone = "555-0100-000"
	got := runPool(t, p, []domain.RawListing{raw})

	require.Len(t, got, 1)
	assert.Equal(t, "555-0100-000", got[0].Phone)
}

func TestPoolNoWebsiteFastPath(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession { return &fakeEnrichSession{} }}
	p := &Pool{Browser: b, Concurrency: 2, VisitTimeout: time.Second}

	got := runPool(t, p, []domain.RawListing{listing("Acme", "")})

	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusEnriched, got[0].Status)
	assert.Empty(t, got[0].Emails)
	assert.Zero(t, atomic.LoadInt32(&b.sessions), "no network hop for listings without a website")
}

func TestPoolNavigationFailureIsNonFatal(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{html: "ok@acme.com", navErrFor: "https://down.example"}
	}}
	p := &Pool{Browser: b, Concurrency: 1, VisitTimeout: time.Second}

	got := runPool(t, p, []domain.RawListing{
		listing("Bad", "https://down.example"),
		listing("Good", "https://up.example"),
	})

	require.Len(t, got, 2)
	byName := map[string]domain.Lead{got[0].Name: got[0], got[1].Name: got[1]}
	assert.Equal(t, domain.StatusFailed, byName["Bad"].Status)
	assert.Contains(t, byName["Bad"].FailReason, "connection refused")
	assert.Equal(t, domain.StatusEnriched, byName["Good"].Status)
}

func TestPoolFollowsContactPageWhenLandingHasNoEmails(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{
			htmlByURL: map[string]string{
				"https://acme.example":         `<body>Welcome to Acme.</body>`,
				"https://acme.example/contact": `<body>Reach us at info@acme.example</body>`,
			},
			anchors: []browse.Element{
				{Text: "Home", Href: "https://acme.example"},
				{Text: "Contact us", Href: "https://acme.example/contact"},
			},
		}
	}}
	p := &Pool{Browser: b, Concurrency: 1, VisitTimeout: time.Second}

	got := runPool(t, p, []domain.RawListing{listing("Acme", "https://acme.example")})

	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusEnriched, got[0].Status)
	assert.Equal(t, []string{"info@acme.example"}, got[0].Emails)
}

func TestPoolSkipsContactPageWhenLandingHasEmails(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{
			htmlByURL: map[string]string{
				"https://acme.example":         `<body>front@acme.example <a href="/contact">Contact</a></body>`,
				"https://acme.example/contact": `<body>other@acme.example</body>`,
			},
			anchors: []browse.Element{
				{Text: "Contact", Href: "https://acme.example/contact"},
			},
		}
	}}
	p := &Pool{Browser: b, Concurrency: 1, VisitTimeout: time.Second}

	got := runPool(t, p, []domain.RawListing{listing("Acme", "https://acme.example")})

	require.Len(t, got, 1)
	assert.Equal(t, []string{"front@acme.example"}, got[0].Emails)
}

func TestPoolLimiterErrorMarksLeadFailed(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{html: "ok@acme.example"}
	}}
	// Burst 0 can never admit a request; the leads fail, the worker
	// keeps draining.
	p := &Pool{Browser: b, Concurrency: 1, VisitTimeout: time.Second, Limiter: NewHostLimiter(1, 0)}

	got := runPool(t, p, []domain.RawListing{
		listing("One", "https://one.example"),
		listing("Two", "https://two.example"),
	})

	require.Len(t, got, 2)
	for _, lead := range got {
		assert.Equal(t, domain.StatusFailed, lead.Status)
		assert.Contains(t, lead.FailReason, "rate limit")
	}
}

func TestPoolVisitTimeout(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{navDelay: 200 * time.Millisecond}
	}}
	p := &Pool{Browser: b, Concurrency: 1, VisitTimeout: 20 * time.Millisecond}

	got := runPool(t, p, []domain.RawListing{listing("Slow", "https://slow.example")})

	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusFailed, got[0].Status)
	assert.Equal(t, "visit timed out", got[0].FailReason)
}

func TestPoolConcurrencyBound(t *testing.T) {
	const workers = 3
	g := &gauge{}
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{gauge: g, navDelay: 10 * time.Millisecond, html: "x"}
	}}
	p := &Pool{Browser: b, Concurrency: workers, VisitTimeout: time.Second}

	var listings []domain.RawListing
	for i := 0; i < 12; i++ {
		listings = append(listings, listing(string(rune('a'+i)), "https://site.example"))
	}

	got := runPool(t, p, listings)

	assert.Len(t, got, 12)
	assert.LessOrEqual(t, g.max, workers, "never more than Concurrency visits in flight")
	assert.LessOrEqual(t, atomic.LoadInt32(&b.sessions), int32(workers), "one session per worker")
}

func TestPoolStopsOnCancel(t *testing.T) {
	b := &fakeBrowser{make: func() *fakeEnrichSession {
		return &fakeEnrichSession{navDelay: time.Second, html: "x"}
	}}
	p := &Pool{Browser: b, Concurrency: 1, VisitTimeout: 10 * time.Second}

	in := make(chan domain.RawListing, 2)
	in <- listing("a", "https://site.example")
	in <- listing("b", "https://site.example")

	out := make(chan domain.Lead, 2)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, in, out) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}
