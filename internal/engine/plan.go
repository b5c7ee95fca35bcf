package engine

import (
	"leadharvest-engine/internal/config"
	"leadharvest-engine/internal/domain"
)

// BuildPlan expands the configured terms and locations into the ordered
// query list for one run: terms outer, locations inner. An empty
// location list still yields one bare query per term.
func BuildPlan(cfg config.Config) []domain.Query {
	locations := cfg.Search.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}

	plan := make([]domain.Query, 0, len(cfg.Search.Terms)*len(locations))
	for _, term := range cfg.Search.Terms {
		for _, loc := range locations {
			plan = append(plan, domain.Query{
				Term:       term,
				Location:   loc,
				MaxResults: cfg.Search.MaxResults,
			})
		}
	}
	return plan
}
