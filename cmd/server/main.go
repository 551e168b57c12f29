// Package main is the entry point for the storeledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"storeledger/internal/config"
	"storeledger/internal/domain/auth"
	"storeledger/internal/domain/idempotency"
	"storeledger/internal/domain/ledger"
	v1 "storeledger/internal/infrastructure/http/v1"
	"storeledger/internal/infrastructure/storage/postgres"
	"storeledger/internal/infrastructure/storage/postgres/ledger_repo"
	"storeledger/pkg/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting storeledger server", "version", version, "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)
	products := ledger_repo.NewProductRepo(txm)
	movements := ledger_repo.NewMovementRepo(txm)

	// --- Ledger ---
	svc, err := ledger.NewService(products, movements, txm, cfg.Ledger.LedgerService())
	if err != nil {
		log.Fatalw("failed to build ledger service", "error", err)
	}
	if !cfg.Ledger.Transactional {
		log.Warn("ledger runs without transactions: entries and counters can diverge on partial failure")
	}

	// --- JWT ---
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	// --- Background work, stopped before the pool closes ---
	workCtx, stopWork := context.WithCancel(ctx)
	defer stopWork()
	var workers sync.WaitGroup

	// --- Idempotency ---
	var idem idempotency.Store
	if cfg.Idempotency.Enabled {
		idemStore := postgres.NewIdempotencyStore(txm, cfg.Idempotency.TTL)
		idem = idemStore
		workers.Add(1)
		go func() {
			defer workers.Done()
			cleanupIdempotencyKeys(workCtx, idemStore, time.Hour)
		}()
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Ledger:           svc,
		Journal:          movements,
		Database:         pool,
		Logger:           log,
		JWTValidator:     jwtService,
		Idempotency:      idem,
		DefaultWarehouse: cfg.Ledger.DefaultWarehouse,
		Version:          version,
		Development:      cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	stopWork()
	workers.Wait()

	pool.LogStats(ctx)
	log.Info("server stopped")
}

type keyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// cleanupIdempotencyKeys drops expired keys until ctx is done.
func cleanupIdempotencyKeys(ctx context.Context, store keyCleaner, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanupExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "expired idempotency keys removed", "count", n)
			}
		}
	}
}
