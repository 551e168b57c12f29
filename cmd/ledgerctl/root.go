package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storeledger/internal/config"
	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/storage/postgres"
	"storeledger/internal/infrastructure/storage/postgres/ledger_repo"
	"storeledger/pkg/logger"
)

// journal is the movement repository plus bulk restore.
type journal interface {
	ledger.MovementRepository
	Import(ctx context.Context, movements []entity.Movement) (int64, error)
}

// backend is everything a command may touch.
type backend struct {
	ledger      *ledger.Service
	journal     journal
	migrate     func(ctx context.Context) error
	cleanupKeys func(ctx context.Context) (int64, error)
	close       func()
}

type opener func(ctx context.Context, cfg *config.Config) (*backend, error)

// flags shared by every subcommand.
type flags struct {
	storeID     string
	productID   string
	warehouseID string
}

type app struct {
	open  opener
	cfg   *config.Config
	flags flags
}

func newRootCmd(open opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect and maintain the inventory movement ledger",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Config{
				Level:       cfg.App.LogLevel,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger.SetDefault(log)
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.storeID, "store", "", "store id")
	pf.StringVar(&a.flags.productID, "product", "", "product id")
	pf.StringVar(&a.flags.warehouseID, "warehouse", "", "warehouse id (default from LEDGER_DEFAULT_WAREHOUSE)")

	root.AddCommand(
		a.validateCmd(),
		a.summaryCmd(),
		a.stockAtCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.migrateCmd(),
		a.cleanupKeysCmd(),
	)
	return root
}

// run opens the backend for the duration of fn.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := a.open(ctx, a.cfg)
	if err != nil {
		return err
	}
	if b.close != nil {
		defer b.close()
	}
	return fn(ctx, b)
}

func (a *app) requireStore() error {
	if a.flags.storeID == "" {
		return errors.New("--store is required")
	}
	return nil
}

func (a *app) requireProduct() error {
	if err := a.requireStore(); err != nil {
		return err
	}
	if a.flags.productID == "" {
		return errors.New("--product is required")
	}
	return nil
}

func (a *app) warehouse() string {
	if a.flags.warehouseID != "" {
		return a.flags.warehouseID
	}
	if a.cfg != nil && a.cfg.Ledger.DefaultWarehouse != "" {
		return a.cfg.Ledger.DefaultWarehouse
	}
	return ledger.DefaultWarehouse
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openPostgres wires the ledger over the configured database.
func openPostgres(ctx context.Context, cfg *config.Config) (*backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.ApplicationName = "ledgerctl"
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 0
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	txm := postgres.NewTxManager(pool)
	movements := ledger_repo.NewMovementRepo(txm)
	svc, err := ledger.NewService(ledger_repo.NewProductRepo(txm), movements, txm, cfg.Ledger.LedgerService())
	if err != nil {
		pool.Close()
		return nil, err
	}
	keys := postgres.NewIdempotencyStore(txm, cfg.Idempotency.TTL)

	return &backend{
		ledger:  svc,
		journal: movements,
		migrate: func(ctx context.Context) error {
			return postgres.ApplySchema(ctx, txm)
		},
		cleanupKeys: keys.CleanupExpired,
		close:       pool.Close,
	}, nil
}
