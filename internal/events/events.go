package events

import (
	"encoding/json"
	"time"

	"leadharvest-engine/internal/domain"
)

type Type string

const (
	TypeRunStarted   Type = "run_started"
	TypeQueryStarted Type = "query_started"
	TypeQueryFailed  Type = "query_failed"
	TypeListingFound Type = "listing_found"
	TypeLeadEnriched Type = "lead_enriched"
	TypeLeadFailed   Type = "lead_failed"
	TypeRunFinished  Type = "run_finished"
	TypeRunError     Type = "run_error"
)

// Event is one pipeline lifecycle notification. Events are immutable and
// delivered to each subscriber in emission order.
type Event struct {
	Type  Type
	At    time.Time
	RunID string
	Data  any
}

func New(runID string, typ Type, data any) Event {
	return Event{Type: typ, At: time.Now().UTC(), RunID: runID, Data: data}
}

// Payloads carried in Event.Data.

type QueryStarted struct {
	Term     string `json:"term"`
	Location string `json:"location"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
}

type QueryFailed struct {
	Term     string `json:"term"`
	Location string `json:"location"`
	Reason   string `json:"reason"`
}

type ListingFound struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Website string `json:"website,omitempty"`
}

type LeadEnriched struct {
	Lead domain.Lead `json:"lead"`
	New  bool        `json:"new"`
}

type LeadFailed struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type RunFinished struct {
	Found    int    `json:"found"`
	Enriched int    `json:"enriched"`
	Failed   int    `json:"failed"`
	Duration string `json:"duration"`
	Stopped  bool   `json:"stopped"`
}

type RunError struct {
	Reason string `json:"reason"`
}

type envelope struct {
	Type    Type            `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	RunID   string          `json:"run_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Encode renders the wire envelope pushed over SSE.
func (e Event) Encode() string {
	var raw json.RawMessage
	if e.Data != nil {
		b, _ := json.Marshal(e.Data)
		raw = b
	}
	b, _ := json.Marshal(envelope{
		Type:    e.Type,
		Version: 1,
		At:      e.At,
		RunID:   e.RunID,
		Data:    raw,
	})
	return string(b)
}
