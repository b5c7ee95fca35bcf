package collect

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadharvest-engine/internal/browse"
	"leadharvest-engine/internal/domain"
)

// fakeSession scripts a browsing session: Navigate records the URL (with
// optional redirects), Elements returns successive batches, HTML serves
// fixtures keyed by the current location.
type fakeSession struct {
	redirects map[string]string
	htmlByURL map[string]string
	batches   [][]browse.Element

	current    string
	navigated  []string
	elemCalls  int
	scrolls    int
	consent    int
	navFailURL string
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	if f.navFailURL != "" && url == f.navFailURL {
		return fmt.Errorf("%w: %s", browse.ErrNavigation, url)
	}
	f.navigated = append(f.navigated, url)
	f.current = url
	if to, ok := f.redirects[url]; ok {
		f.current = to
	}
	return nil
}

func (f *fakeSession) Location(ctx context.Context) (string, error) { return f.current, nil }

func (f *fakeSession) Text(ctx context.Context, sel string) (string, error) { return "", nil }

func (f *fakeSession) Elements(ctx context.Context, sel string) ([]browse.Element, error) {
	i := f.elemCalls
	f.elemCalls++
	if i >= len(f.batches) {
		i = len(f.batches) - 1
	}
	if i < 0 {
		return nil, nil
	}
	return f.batches[i], nil
}

func (f *fakeSession) HTML(ctx context.Context) (string, error) {
	return f.htmlByURL[f.current], nil
}

func (f *fakeSession) ScrollToBottom(ctx context.Context) error {
	f.scrolls++
	return nil
}

func (f *fakeSession) DismissConsent(ctx context.Context) error {
	f.consent++
	return nil
}

func (f *fakeSession) Close() error { return nil }

func placeURL(name string) string {
	return "https://maps.example/maps/place/" + name
}

func anchor(name string) browse.Element {
	return browse.Element{Text: name, Href: placeURL(name)}
}

func detailHTML(name string) string {
	return `<h1 class="DUwDvf">` + name + `</h1><button data-item-id="address">1 ` + name + ` St</button>`
}

func newCollector(s browse.Session) *Collector {
	return &Collector{
		Session:           s,
		NavigationTimeout: time.Second,
		ScrollPause:       time.Millisecond,
		MaxScrollAttempts: 20,
	}
}

func collectAll(t *testing.T, c *Collector, q domain.Query) []domain.RawListing {
	t.Helper()
	var got []domain.RawListing
	require.NoError(t, c.Collect(context.Background(), q, func(r domain.RawListing) error {
		got = append(got, r)
		return nil
	}))
	return got
}

func TestCollectScrollsUntilStale(t *testing.T) {
	s := &fakeSession{
		batches: [][]browse.Element{
			{anchor("a"), anchor("b")},
			{anchor("a"), anchor("b"), anchor("c")},
			{anchor("a"), anchor("b"), anchor("c")}, // unchanged: end of results
		},
		htmlByURL: map[string]string{
			placeURL("a"): detailHTML("A Co"),
			placeURL("b"): detailHTML("B Co"),
			placeURL("c"): detailHTML("C Co"),
		},
	}

	got := collectAll(t, newCollector(s), domain.Query{Term: "Plumbers", Location: "Springfield"})

	require.Len(t, got, 3)
	assert.Equal(t, "A Co", got[0].Name)
	assert.Equal(t, "B Co", got[1].Name)
	assert.Equal(t, "C Co", got[2].Name)
	assert.Equal(t, 2, s.scrolls, "stops scrolling once nothing new renders")
	assert.Equal(t, 1, s.consent)
	assert.Equal(t, "Plumbers", got[0].Source.Term)
}

func TestCollectDeterministicOnUnchangedFixture(t *testing.T) {
	fixture := func() *fakeSession {
		return &fakeSession{
			batches:   [][]browse.Element{{anchor("a")}, {anchor("a")}},
			htmlByURL: map[string]string{placeURL("a"): detailHTML("A Co")},
		}
	}

	first := collectAll(t, newCollector(fixture()), domain.Query{Term: "Cafes"})
	second := collectAll(t, newCollector(fixture()), domain.Query{Term: "Cafes"})
	assert.Equal(t, len(first), len(second))
}

func TestCollectRespectsMaxResults(t *testing.T) {
	els := []browse.Element{anchor("a"), anchor("b"), anchor("c"), anchor("d"), anchor("e")}
	s := &fakeSession{
		batches: [][]browse.Element{els},
		htmlByURL: map[string]string{
			placeURL("a"): detailHTML("A Co"),
			placeURL("b"): detailHTML("B Co"),
		},
	}

	got := collectAll(t, newCollector(s), domain.Query{Term: "Plumbers", Location: "Springfield", MaxResults: 2})

	require.Len(t, got, 2)
	assert.Equal(t, "A Co", got[0].Name)
	assert.Equal(t, "B Co", got[1].Name)
}

func TestCollectDirectHit(t *testing.T) {
	hit := placeURL("acme")
	s := &fakeSession{
		redirects: map[string]string{
			searchURLBase + "Acme+Plumbing+Springfield": hit,
		},
		htmlByURL: map[string]string{hit: detailHTML("Acme Plumbing")},
	}

	// MaxResults does not matter on a direct hit.
	got := collectAll(t, newCollector(s), domain.Query{Term: "Acme Plumbing", Location: "Springfield", MaxResults: 50})

	require.Len(t, got, 1)
	assert.Equal(t, "Acme Plumbing", got[0].Name)
	assert.Equal(t, 0, s.elemCalls, "direct hit skips the feed entirely")
	assert.Equal(t, hit, got[0].MapsURL)
}

func TestCollectNavigationErrorTerminates(t *testing.T) {
	s := &fakeSession{
		batches:    [][]browse.Element{{anchor("a"), anchor("b")}},
		htmlByURL:  map[string]string{placeURL("a"): detailHTML("A Co")},
		navFailURL: placeURL("b"),
	}

	var got []domain.RawListing
	err := newCollector(s).Collect(context.Background(), domain.Query{Term: "x"}, func(r domain.RawListing) error {
		got = append(got, r)
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, browse.ErrNavigation)
	assert.Len(t, got, 1, "listings before the failure were already yielded")
}

func TestCollectYieldErrorStops(t *testing.T) {
	s := &fakeSession{
		batches:   [][]browse.Element{{anchor("a"), anchor("b")}},
		htmlByURL: map[string]string{placeURL("a"): detailHTML("A Co"), placeURL("b"): detailHTML("B Co")},
	}

	stop := errors.New("stop")
	var n int
	err := newCollector(s).Collect(context.Background(), domain.Query{Term: "x"}, func(r domain.RawListing) error {
		n++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestCollectParseErrorTerminates(t *testing.T) {
	s := &fakeSession{
		batches:   [][]browse.Element{{anchor("a")}},
		htmlByURL: map[string]string{placeURL("a"): "<div>not a detail page</div>"},
	}

	err := newCollector(s).Collect(context.Background(), domain.Query{Term: "x"}, func(domain.RawListing) error {
		t.Fatal("nothing should be yielded")
		return nil
	})
	require.Error(t, err)
}
