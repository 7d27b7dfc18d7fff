/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the procurement engine server: configuration from
  the environment, store backend selection, engine wiring, HTTP router, and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (config package; .env honored when APP_ENV=local)
  2. Build the zap logger
  3. Open the selected store backend (memory | sqlite | mongo)
  4. Wire Ledger, Bundler, demo catalog, and HTTP handler
  5. Start server; drain on SIGINT/SIGTERM with a 30s timeout

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/procure-engine/api"
	"github.com/warp/procure-engine/catalog"
	"github.com/warp/procure-engine/config"
	"github.com/warp/procure-engine/logger"
	"github.com/warp/procure-engine/procure"
	memstore "github.com/warp/procure-engine/procure/store"
	"github.com/warp/procure-engine/store/mongo"
	"github.com/warp/procure-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger.Level, cfg.Logger.AsJSON)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer cleanup()

	notifier := api.LogNotifier{Log: log.Named("notify")}

	ledger := procure.NewLedger(store)
	ledger.Notifier = notifier
	bundler := procure.NewBundler(store)
	bundler.Notifier = notifier

	tools := catalog.NewMemory(catalog.SeedDemo(cfg.Catalog.Size)...)

	handler := api.NewHandler(store, ledger, bundler, tools, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE stream stays open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Server.Address()),
			zap.String("store", cfg.Store.Backend))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (procure.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memstore.NewMemory(), func() {}, nil

	case config.BackendSQLite:
		st, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				log.Warn("failed to close sqlite store", zap.Error(err))
			}
		}, nil

	case config.BackendMongo:
		st, err := mongo.Connect(ctx, cfg.Store.MongoDSN, cfg.Store.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer closeCancel()
			if err := st.Close(closeCtx); err != nil {
				log.Warn("failed to close mongo store", zap.Error(err))
			}
		}, nil
	}

	// config.Load validates the backend; unreachable.
	panic("unknown store backend " + cfg.Store.Backend)
}
