package httpapi

import (
	"net/http"

	"leadharvest-engine/internal/store"
)

type LeadsHandler struct {
	Store *store.Leads
}

// List returns every lead in first-seen order.
func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	leads := h.Store.Snapshot()
	writeJSON(w, map[string]any{
		"count": len(leads),
		"leads": leads,
	})
}
