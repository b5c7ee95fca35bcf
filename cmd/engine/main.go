package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"leadharvest-engine/internal/browse"
	"leadharvest-engine/internal/config"
	"leadharvest-engine/internal/engine"
	"leadharvest-engine/internal/events"
	"leadharvest-engine/internal/httpapi"
	"leadharvest-engine/internal/logring"
	"leadharvest-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("LEADHARVEST_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Single instance per data dir; two engines sharing one sqlite file
	// and one browser profile ends badly.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running in %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	// Tee the log into a ring so the dashboard can show the tail.
	ring := logring.New(1000)
	log.SetOutput(io.MultiWriter(os.Stderr, ring))

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable.
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !v.OK() {
		log.Fatalf("config invalid (%s): %v", userCfgPath, v.Errors)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "leadharvest.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	leads := store.NewLeads(store.Policy{
		CaseFold:           cfg.Dedup.CaseFold,
		CollapseWhitespace: cfg.Dedup.CollapseWhitespace,
		StripPunctuation:   cfg.Dedup.StripPunctuation,
	})

	// Restore the previous run's results so the dashboard is not empty
	// after a restart.
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 10*time.Second)
	persisted, err := store.LoadLeads(restoreCtx, db.Pool)
	cancelRestore()
	if err != nil {
		log.Fatalf("restore leads: %v", err)
	}
	leads.Seed(persisted)
	log.Printf("[main] restored %d leads from %s", len(persisted), dbPath)

	bus := events.NewBus()
	hub := events.NewHub()
	bus.Subscribe(hub.AsSubscriber())

	ctrl := engine.NewController(browse.Launch, leads, db, bus)

	mux := httpapi.NewMux(httpapi.Deps{
		Controller:  ctrl,
		Store:       leads,
		Hub:         hub,
		Ring:        ring,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
	})
	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
		httpapi.Cors,
	)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[main] engine listening on http://%s (db=%s)", addr, dbPath)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		log.Fatal(err)
	case <-ctx.Done():
	}

	log.Printf("[main] shutting down")
	ctrl.Stop()

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutCtx)
}
