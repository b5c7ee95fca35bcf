package httpapi

import (
	"encoding/csv"
	"log"
	"net/http"
	"time"

	"leadharvest-engine/internal/store"
)

type ExportHandler struct {
	Store *store.Leads
}

// CSV streams the current lead snapshot as a download.
func (h ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	leads := h.Store.Snapshot()

	filename := "leads-" + time.Now().Format("20060102-150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	_ = cw.Write(store.ExportHeader)
	for _, row := range store.ExportRows(leads) {
		_ = cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("[httpapi] csv export: %v", err)
	}
}
