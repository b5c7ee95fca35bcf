package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a cleaned copy of cfg plus anything the UI
// should surface. Term and location lists are trimmed and deduplicated
// preserving order, since the query plan is their cross product.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Search.Terms = trimList(out.Search.Terms)
	out.Search.Locations = trimList(out.Search.Locations)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if len(out.Search.Terms) == 0 {
		res.addErr("search.terms must have at least one term")
	}
	if len(out.Search.Locations) == 0 {
		res.addWarn("search.locations is empty; queries will run on bare terms.")
	}
	if out.Search.MaxResults < 0 {
		res.addErr("search.max_results must be >= 0 (0 = unlimited)")
	}
	if n := len(out.Search.Terms) * len(out.Search.Locations); n > 200 {
		res.addWarn("query plan has %d queries; a run this size can take hours.", n)
	}

	if out.Collect.NavigationTimeoutSeconds <= 0 {
		res.addErr("collect.navigation_timeout_seconds must be > 0")
	}
	if out.Collect.ScrollPauseMillis <= 0 {
		res.addErr("collect.scroll_pause_ms must be > 0")
	}
	if out.Collect.MaxScrollAttempts <= 0 {
		res.addErr("collect.max_scroll_attempts must be > 0")
	}

	if out.Enrich.Concurrency < 1 {
		res.addErr("enrich.concurrency must be >= 1")
	} else if out.Enrich.Concurrency > 32 {
		res.addWarn("enrich.concurrency is very high (%d); each worker owns a browser tab.", out.Enrich.Concurrency)
	}
	if out.Enrich.VisitTimeoutSeconds <= 0 {
		res.addErr("enrich.visit_timeout_seconds must be > 0")
	}
	if out.Enrich.RequestsPerHost <= 0 {
		res.addErr("enrich.requests_per_host must be > 0")
	}
	if out.Enrich.Burst < 1 {
		res.addErr("enrich.burst must be >= 1")
	}
	if out.Enrich.PhoneMinDigits < 5 || out.Enrich.PhoneMinDigits > 15 {
		res.addErr("enrich.phone_min_digits must be 5..15")
	}

	return out, res
}

// Validate is the hard gate used before persisting a config.
func Validate(cfg Config) error {
	_, res := NormalizeAndValidate(cfg)
	if !res.OK() {
		return fmt.Errorf("config validation failed:\n- %s", strings.Join(res.Errors, "\n- "))
	}
	return nil
}
