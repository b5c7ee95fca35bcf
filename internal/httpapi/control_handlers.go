package httpapi

import (
	"errors"
	"net/http"
	"sync/atomic"

	"leadharvest-engine/internal/config"
	"leadharvest-engine/internal/engine"
)

type ControlHandler struct {
	Controller *engine.Controller
	CfgVal     *atomic.Value // config.Config
}

// Start launches a run from the current config snapshot. Config edits
// made after this point apply to the next run.
func (h ControlHandler) Start(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	if err := h.Controller.Start(cfg); err != nil {
		if errors.Is(err, engine.ErrNotIdle) {
			WriteError(w, r, http.StatusConflict, "already_running", err.Error())
			return
		}
		WriteError(w, r, http.StatusBadRequest, "bad_config", err.Error())
		return
	}
	h.ok(w)
}

// Stop blocks until the active run has drained; stopping while idle is
// fine and reports ok.
func (h ControlHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.Controller.Stop()
	h.ok(w)
}

func (h ControlHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.Controller.Pause(); err != nil {
		WriteError(w, r, http.StatusConflict, "not_running", err.Error())
		return
	}
	h.ok(w)
}

func (h ControlHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.Controller.Resume(); err != nil {
		WriteError(w, r, http.StatusConflict, "not_paused", err.Error())
		return
	}
	h.ok(w)
}

func (h ControlHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Controller.Clear(); err != nil {
		WriteError(w, r, http.StatusConflict, "run_in_progress", err.Error())
		return
	}
	h.ok(w)
}

func (h ControlHandler) ok(w http.ResponseWriter) {
	writeJSON(w, map[string]any{
		"ok":    true,
		"state": h.Controller.Status().State,
	})
}
