package httpapi

import (
	"net/http"
	"sync/atomic"

	"leadharvest-engine/internal/config"
	"leadharvest-engine/internal/engine"
	"leadharvest-engine/internal/logring"
	"leadharvest-engine/internal/store"
)

type StatusHandler struct {
	Controller *engine.Controller
	Store      *store.Leads
	Ring       *logring.Ring
	CfgVal     *atomic.Value // config.Config
}

// StatusResponse is the dashboard's one-call view of the engine.
type StatusResponse struct {
	engine.Status
	Leads  int           `json:"leads"`
	Logs   []string      `json:"logs,omitempty"`
	Config config.Config `json:"config"`
}

func (h StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status: h.Controller.Status(),
		Leads:  h.Store.Len(),
		Config: h.CfgVal.Load().(config.Config),
	}
	if h.Ring != nil {
		resp.Logs = h.Ring.Lines()
	}
	writeJSON(w, resp)
}
