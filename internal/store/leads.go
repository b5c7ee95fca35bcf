package store

import (
	"sync"
	"time"

	"leadharvest-engine/internal/domain"
	"leadharvest-engine/internal/extract"
)

// Leads is the in-memory, deduplicated lead collection. Upserts are
// serialized behind one mutex so merges stay atomic no matter which
// enrichment worker finishes first. It never holds two entries with the
// same ID.
type Leads struct {
	mu     sync.Mutex
	policy Policy
	byID   map[string]*domain.Lead
	order  []string // IDs in first-insertion order
}

func NewLeads(policy Policy) *Leads {
	return &Leads{
		policy: policy,
		byID:   make(map[string]*domain.Lead),
	}
}

// Upsert inserts cand or merges it into the existing entry with the same
// dedup ID. Returns the stored value after the merge and whether the ID
// was new. Merge rules: non-empty incoming fields fill empty existing
// ones, email sets are unioned, an existing phone wins, and status
// becomes Enriched if either side is Enriched.
func (l *Leads) Upsert(cand domain.Lead) (domain.Lead, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.policy.LeadID(cand.Name, cand.Address)
	cand.ID = id
	cand.Emails = extract.MergeEmails(cand.Emails, nil)

	cur, ok := l.byID[id]
	if !ok {
		if cand.FirstSeen.IsZero() {
			cand.FirstSeen = time.Now().UTC()
		}
		stored := cand
		l.byID[id] = &stored
		l.order = append(l.order, id)
		return stored, true
	}

	mergeLead(cur, cand)
	return *cur, false
}

func mergeLead(cur *domain.Lead, in domain.Lead) {
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&cur.Name, in.Name)
	fill(&cur.Address, in.Address)
	fill(&cur.Phone, in.Phone) // keep existing phone if already present
	fill(&cur.Website, in.Website)
	fill(&cur.Category, in.Category)
	fill(&cur.Rating, in.Rating)
	fill(&cur.Reviews, in.Reviews)
	fill(&cur.MapsURL, in.MapsURL)
	fill(&cur.SearchTerm, in.SearchTerm)
	fill(&cur.Location, in.Location)

	cur.Emails = extract.MergeEmails(cur.Emails, in.Emails)

	switch {
	case cur.Status == domain.StatusEnriched || in.Status == domain.StatusEnriched:
		cur.Status = domain.StatusEnriched
		cur.FailReason = ""
	case in.Status == domain.StatusFailed && cur.Status == domain.StatusPending:
		cur.Status = domain.StatusFailed
		cur.FailReason = in.FailReason
	}
}

// Snapshot returns a copy of every lead in first-insertion order.
func (l *Leads) Snapshot() []domain.Lead {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Lead, 0, len(l.order))
	for _, id := range l.order {
		lead := *l.byID[id]
		lead.Emails = append([]string(nil), lead.Emails...)
		out = append(out, lead)
	}
	return out
}

// Seed loads previously persisted leads without re-deriving IDs, used at
// process start to restore the last run's results.
func (l *Leads) Seed(leads []domain.Lead) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, lead := range leads {
		if lead.ID == "" {
			lead.ID = l.policy.LeadID(lead.Name, lead.Address)
		}
		if _, ok := l.byID[lead.ID]; ok {
			continue
		}
		stored := lead
		l.byID[lead.ID] = &stored
		l.order = append(l.order, lead.ID)
	}
}

func (l *Leads) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// Clear empties the store; called at the start of a fresh run.
func (l *Leads) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID = make(map[string]*domain.Lead)
	l.order = nil
}
