package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still wrap it in middleware.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Status
	sh := StatusHandler{Controller: d.Controller, Store: d.Store, Ring: d.Ring, CfgVal: d.CfgVal}
	mux.HandleFunc("/api/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Get,
	}))

	// Run control
	ctl := ControlHandler{Controller: d.Controller, CfgVal: d.CfgVal}
	mux.HandleFunc("/control/start", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ctl.Start,
	}))
	mux.HandleFunc("/control/stop", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ctl.Stop,
	}))
	mux.HandleFunc("/control/pause", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ctl.Pause,
	}))
	mux.HandleFunc("/control/resume", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ctl.Resume,
	}))
	mux.HandleFunc("/control/clear", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ctl.Clear,
	}))

	// Leads
	lh := LeadsHandler{Store: d.Store}
	mux.HandleFunc("/leads", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))
	xh := ExportHandler{Store: d.Store}
	mux.HandleFunc("/export/csv", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: xh.CSV,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	return mux
}
