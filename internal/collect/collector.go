// Package collect drives one browsing session through one query and
// yields raw listings in DOM order.
package collect

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"leadharvest-engine/internal/browse"
	"leadharvest-engine/internal/domain"
	"leadharvest-engine/internal/extract"
)

const (
	searchURLBase = "https://www.google.com/maps/search/"

	// Anchor of one result card in the scrolled feed.
	resultSelector = "a.hfpxzc"

	// A search that resolves to a business detail page instead of a feed.
	directHitMarker = "/maps/place/"
)

type Collector struct {
	Session           browse.Session
	NavigationTimeout time.Duration
	ScrollPause       time.Duration
	MaxScrollAttempts int
}

// Collect runs the scroll/extract loop for q, calling yield once per
// listing in DOM order. Listings are identified by their feed href and
// never re-yielded. A yield error stops collection immediately. The
// sequence is finite and not restartable; use a fresh session to retry.
func (c *Collector) Collect(ctx context.Context, q domain.Query, yield func(domain.RawListing) error) error {
	searchURL := searchURLBase + url.QueryEscape(q.String())
	if err := c.navigate(ctx, searchURL); err != nil {
		return fmt.Errorf("search %q: %w", q.String(), err)
	}

	if err := c.op(ctx, func(opCtx context.Context) error {
		return c.Session.DismissConsent(opCtx)
	}); err != nil {
		// Non-fatal: the feed usually renders behind the dialog anyway.
		log.Printf("[collect] consent dismiss failed: %v", err)
	}

	var loc string
	if err := c.op(ctx, func(opCtx context.Context) (err error) {
		loc, err = c.Session.Location(opCtx)
		return err
	}); err != nil {
		return fmt.Errorf("read location: %w", err)
	}

	if strings.Contains(loc, directHitMarker) {
		// Direct hit: the provider skipped the feed, so there is exactly
		// one listing regardless of MaxResults.
		raw, err := c.parseCurrent(ctx, q, loc)
		if err != nil {
			return err
		}
		return yield(raw)
	}

	hrefs, err := c.scrollForResults(ctx, q.MaxResults)
	if err != nil {
		return err
	}
	if q.MaxResults > 0 && len(hrefs) > q.MaxResults {
		hrefs = hrefs[:q.MaxResults]
	}
	log.Printf("[collect] %q: %d results", q.String(), len(hrefs))

	for _, href := range hrefs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.navigate(ctx, href); err != nil {
			return err
		}
		raw, err := c.parseCurrent(ctx, q, href)
		if err != nil {
			return err
		}
		if err := yield(raw); err != nil {
			return err
		}
	}
	return nil
}

// scrollForResults scrolls the feed until no new result anchors render
// after a wait, the cap is reached, or the attempt bound runs out.
// Returned hrefs are in DOM order, deduplicated across scrolls.
func (c *Collector) scrollForResults(ctx context.Context, max int) ([]string, error) {
	seen := map[string]bool{}
	var order []string
	last := -1

	for attempt := 0; attempt < c.MaxScrollAttempts; attempt++ {
		var els []browse.Element
		if err := c.op(ctx, func(opCtx context.Context) (err error) {
			els, err = c.Session.Elements(opCtx, resultSelector)
			return err
		}); err != nil {
			return nil, fmt.Errorf("query results: %w", err)
		}

		for _, el := range els {
			if el.Href == "" || !strings.Contains(el.Href, directHitMarker) {
				continue
			}
			if !seen[el.Href] {
				seen[el.Href] = true
				order = append(order, el.Href)
			}
		}

		if len(order) == last {
			break // end of results: nothing new rendered after the last scroll
		}
		last = len(order)
		if max > 0 && len(order) >= max {
			break
		}

		if err := c.op(ctx, func(opCtx context.Context) error {
			return c.Session.ScrollToBottom(opCtx)
		}); err != nil {
			return nil, fmt.Errorf("scroll: %w", err)
		}
		if err := sleepCtx(ctx, c.ScrollPause); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (c *Collector) parseCurrent(ctx context.Context, q domain.Query, pageURL string) (domain.RawListing, error) {
	var html string
	if err := c.op(ctx, func(opCtx context.Context) (err error) {
		html, err = c.Session.HTML(opCtx)
		return err
	}); err != nil {
		return domain.RawListing{}, fmt.Errorf("read page: %w", err)
	}

	page, err := extract.ParseListing(html)
	if err != nil {
		return domain.RawListing{}, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return domain.RawListing{
		Name:     page.Name,
		Address:  page.Address,
		Phone:    page.Phone,
		Website:  page.Website,
		Category: page.Category,
		Rating:   page.Rating,
		Reviews:  page.Reviews,
		MapsURL:  pageURL,
		Source:   q,
	}, nil
}

func (c *Collector) navigate(ctx context.Context, url string) error {
	return c.op(ctx, func(opCtx context.Context) error {
		return c.Session.Navigate(opCtx, url)
	})
}

// op bounds one browser operation with the navigation timeout while
// keeping the run-scoped cancellation live.
func (c *Collector) op(ctx context.Context, f func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, c.NavigationTimeout)
	defer cancel()
	return f(opCtx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
