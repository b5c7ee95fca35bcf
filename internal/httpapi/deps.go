package httpapi

import (
	"sync/atomic"

	"leadharvest-engine/internal/config"
	"leadharvest-engine/internal/engine"
	"leadharvest-engine/internal/events"
	"leadharvest-engine/internal/logring"
	"leadharvest-engine/internal/store"
)

type Deps struct {
	Controller *engine.Controller
	Store      *store.Leads
	Hub        *events.Hub
	Ring       *logring.Ring

	// Config persistence
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
