package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"leadharvest-engine/internal/domain"
)

// SaveLead writes one lead through to the sqlite mirror, replacing any
// previous row with the same dedup ID. The in-memory store has already
// merged, so the incoming value is canonical.
func SaveLead(ctx context.Context, db *sql.DB, lead domain.Lead) error {
	emailsB, _ := json.Marshal(lead.Emails)
	if lead.Emails == nil {
		emailsB = []byte("[]")
	}

	_, err := db.ExecContext(ctx, `
INSERT INTO leads(id, name, address, phone, emails, website, category, rating, reviews,
                  maps_url, status, fail_reason, search_term, location, first_seen)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name, address=excluded.address, phone=excluded.phone,
  emails=excluded.emails, website=excluded.website, category=excluded.category,
  rating=excluded.rating, reviews=excluded.reviews, maps_url=excluded.maps_url,
  status=excluded.status, fail_reason=excluded.fail_reason,
  search_term=excluded.search_term, location=excluded.location;`,
		lead.ID, lead.Name, lead.Address, lead.Phone, string(emailsB), lead.Website,
		lead.Category, lead.Rating, lead.Reviews, lead.MapsURL, string(lead.Status),
		lead.FailReason, lead.SearchTerm, lead.Location,
		lead.FirstSeen.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save lead %s: %w", lead.ID, err)
	}
	return nil
}

// LoadLeads reads the mirror back in insertion order. The upsert in
// SaveLead keeps the original rowid on conflict, so rowid is the
// first-seen order; the textual first_seen column is not sortable
// (RFC3339Nano trims fractional zeros).
func LoadLeads(ctx context.Context, db *sql.DB) ([]domain.Lead, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, name, address, phone, emails, website, category, rating, reviews,
       maps_url, status, fail_reason, search_term, location, first_seen
FROM leads
ORDER BY rowid ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		var l domain.Lead
		var emailsJSON, status, firstSeen string
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.Phone, &emailsJSON,
			&l.Website, &l.Category, &l.Rating, &l.Reviews, &l.MapsURL,
			&status, &l.FailReason, &l.SearchTerm, &l.Location, &firstSeen); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(emailsJSON), &l.Emails)
		l.Status = domain.LeadStatus(status)
		l.FirstSeen, _ = time.Parse(time.RFC3339Nano, firstSeen)
		l.Source = domain.Query{Term: l.SearchTerm, Location: l.Location}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ClearLeads drops every persisted lead; paired with Leads.Clear at the
// start of a fresh run.
func ClearLeads(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DELETE FROM leads;`)
	return err
}
