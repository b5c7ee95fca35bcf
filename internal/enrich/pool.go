// Package enrich runs the bounded worker pool that visits listing
// websites and extracts contact details.
package enrich

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"leadharvest-engine/internal/browse"
	"leadharvest-engine/internal/domain"
	"leadharvest-engine/internal/extract"
)

type Pool struct {
	Browser        browse.Browser
	Concurrency    int
	VisitTimeout   time.Duration
	Limiter        *HostLimiter // optional
	PhoneMinDigits int
}

// Run consumes listings from in until it closes and emits one lead per
// listing on out, then closes out. Exactly Concurrency workers race on
// the shared channel, each owning its own browsing session. A failed
// visit yields a StatusFailed lead; it never aborts the pool. Returns
// ctx.Err() when the run is cancelled.
func (p *Pool) Run(ctx context.Context, in <-chan domain.RawListing, out chan<- domain.Lead) error {
	n := p.Concurrency
	if n < 1 {
		n = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		worker := i
		g.Go(func() error {
			return p.work(gctx, worker, in, out)
		})
	}

	err := g.Wait()
	close(out)
	return err
}

func (p *Pool) work(ctx context.Context, worker int, in <-chan domain.RawListing, out chan<- domain.Lead) error {
	// One session per worker for the whole run; sessions are never
	// shared, so navigations cannot cross-talk.
	var sess browse.Session
	defer func() {
		if sess != nil {
			_ = sess.Close()
		}
	}()

	for {
		var listing domain.RawListing
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case listing, ok = <-in:
			if !ok {
				return nil
			}
		}

		lead := domain.LeadFromListing(listing)

		if listing.Website == "" {
			// Nothing to visit; the directory record is all there is.
			lead.Status = domain.StatusEnriched
			if !send(ctx, out, lead) {
				return ctx.Err()
			}
			continue
		}

		if sess == nil {
			var err error
			if sess, err = p.Browser.NewSession(ctx); err != nil {
				log.Printf("[enrich] worker %d: no session: %v", worker, err)
				lead.Status = domain.StatusFailed
				lead.FailReason = "browser session unavailable: " + err.Error()
				if !send(ctx, out, lead) {
					return ctx.Err()
				}
				continue
			}
		}

		if p.Limiter != nil {
			if err := p.Limiter.WaitURL(ctx, listing.Website); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// A limiter that cannot ever admit the request (burst
				// misconfiguration) fails the lead, not the worker.
				lead.Status = domain.StatusFailed
				lead.FailReason = "rate limit: " + err.Error()
				if !send(ctx, out, lead) {
					return ctx.Err()
				}
				continue
			}
		}

		lead = p.visit(ctx, sess, lead, listing.Website)
		if !send(ctx, out, lead) {
			return ctx.Err()
		}
	}
}

// visit fetches the website and applies the extraction rules, with at
// most one extra hop to a contact page. Any navigation error or timeout
// on the landing page marks the lead failed; there is no retry (the
// operator can re-run the query).
func (p *Pool) visit(ctx context.Context, sess browse.Session, lead domain.Lead, website string) domain.Lead {
	vctx, cancel := context.WithTimeout(ctx, p.VisitTimeout)
	defer cancel()

	if err := sess.Navigate(vctx, website); err != nil {
		lead.Status = domain.StatusFailed
		lead.FailReason = reason(vctx, err)
		return lead
	}

	html, err := sess.HTML(vctx)
	if err != nil {
		lead.Status = domain.StatusFailed
		lead.FailReason = reason(vctx, err)
		return lead
	}

	lead.Emails = extract.MergeEmails(extract.Emails(html), nil)
	if len(lead.Emails) == 0 {
		// Landing pages often keep the email on a contact or about
		// page; follow the first such link within the same visit
		// budget.
		if emails := p.contactPageEmails(vctx, sess); len(emails) > 0 {
			lead.Emails = emails
		}
	}
	if lead.Phone == "" {
		if phone, ok := extract.Phone(html, p.PhoneMinDigits); ok {
			lead.Phone = phone
		}
	}
	lead.Status = domain.StatusEnriched
	return lead
}

// Link texts, tried in order, that mark a contact-style page.
var contactKeywords = []string{
	"contact", "kontakt", "contacto", "contatto", "contactez", "impressum", "about",
}

// contactPageEmails follows the first contact-style anchor on the
// current page and extracts emails there. Best effort: any failure just
// leaves the lead without emails.
func (p *Pool) contactPageEmails(ctx context.Context, sess browse.Session) []string {
	anchors, err := sess.Elements(ctx, "a[href]")
	if err != nil || len(anchors) == 0 {
		return nil
	}

	var href string
	for _, kw := range contactKeywords {
		for _, a := range anchors {
			if strings.Contains(strings.ToLower(a.Text), kw) && strings.HasPrefix(a.Href, "http") {
				href = a.Href
				break
			}
		}
		if href != "" {
			break
		}
	}
	if href == "" {
		return nil
	}

	if err := sess.Navigate(ctx, href); err != nil {
		return nil
	}
	html, err := sess.HTML(ctx)
	if err != nil {
		return nil
	}
	return extract.MergeEmails(extract.Emails(html), nil)
}

func reason(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "visit timed out"
	}
	return err.Error()
}

func send(ctx context.Context, out chan<- domain.Lead, lead domain.Lead) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- lead:
		return true
	}
}
