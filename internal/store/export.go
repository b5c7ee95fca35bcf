package store

import (
	"strings"

	"leadharvest-engine/internal/domain"
)

// ExportHeader is the CSV column order consumed by the dashboard download.
var ExportHeader = []string{
	"Name", "Address", "Phone", "Emails", "Website", "Search Term", "Location",
}

// ExportRows flattens a snapshot into tabular rows matching ExportHeader.
func ExportRows(leads []domain.Lead) [][]string {
	rows := make([][]string, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []string{
			l.Name,
			l.Address,
			l.Phone,
			strings.Join(l.Emails, "; "),
			l.Website,
			l.SearchTerm,
			l.Location,
		})
	}
	return rows
}
