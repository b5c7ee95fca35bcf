package domain

import "time"

// RawListing is one business record as parsed from a directory detail page,
// before website enrichment. Passed by value through the pipeline.
type RawListing struct {
	Name     string
	Address  string
	Phone    string
	Website  string
	Category string
	Rating   string
	Reviews  string
	MapsURL  string
	Source   Query
}

type LeadStatus string

const (
	StatusPending  LeadStatus = "pending"
	StatusEnriched LeadStatus = "enriched"
	StatusFailed   LeadStatus = "enrichment_failed"
)

// Lead is the canonical, deduplicated record held by the store.
// ID is assigned on upsert from the normalized name+address.
type Lead struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	Phone      string     `json:"phone"`
	Emails     []string   `json:"emails"`
	Website    string     `json:"website"`
	Category   string     `json:"category"`
	Rating     string     `json:"rating"`
	Reviews    string     `json:"reviews"`
	MapsURL    string     `json:"mapsUrl"`
	Status     LeadStatus `json:"status"`
	FailReason string     `json:"failReason,omitempty"`
	Source     Query      `json:"-"`
	SearchTerm string     `json:"searchTerm"`
	Location   string     `json:"location"`
	FirstSeen  time.Time  `json:"firstSeen"`
}

// LeadFromListing carries the listing fields over with status Pending.
func LeadFromListing(l RawListing) Lead {
	return Lead{
		Name:       l.Name,
		Address:    l.Address,
		Phone:      l.Phone,
		Website:    l.Website,
		Category:   l.Category,
		Rating:     l.Rating,
		Reviews:    l.Reviews,
		MapsURL:    l.MapsURL,
		Status:     StatusPending,
		Source:     l.Source,
		SearchTerm: l.Source.Term,
		Location:   l.Source.Location,
	}
}
