package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeledger/internal/config"
	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/storage/memory"
)

const testStore = "store-1"

func memoryBackend(t *testing.T, store *memory.Store) (*backend, *ledger.Service) {
	t.Helper()
	svc, err := ledger.NewService(store.Products(), store.Journal(), store.TxManager(), ledger.Config{Transactional: true})
	require.NoError(t, err)
	return &backend{ledger: svc, journal: store.Journal()}, svc
}

func seeded(t *testing.T) (*memory.Store, *backend) {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(entity.Product{ID: "p-1", StoreID: testStore, Kind: entity.KindProduct})
	b, svc := memoryBackend(t, store)

	ctx := context.Background()
	res := svc.Recorder.RecordInitialStock(ctx, ledger.InitialStockInput{
		ProductID: "p-1", InitialStock: decimal.NewFromInt(10), UserID: "u", StoreID: testStore,
	})
	require.Equal(t, 1, res.Count(ledger.StatusRecorded))
	res = svc.Recorder.RecordSale(ctx, ledger.SaleInput{
		SaleID:  "s-1",
		Lines:   []ledger.Line{{ProductID: "p-1", Quantity: decimal.NewFromInt(3), Price: price(4)}},
		UserID:  "u",
		StoreID: testStore,
	})
	require.Equal(t, 1, res.Count(ledger.StatusRecorded))
	return store, b
}

func execute(t *testing.T, b *backend, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func(context.Context, *config.Config) (*backend, error) { return b, nil })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	store, b := seeded(t)

	out, err := execute(t, b, "validate", "--store", testStore, "--product", "p-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"isConsistent": true`)

	store.PutProduct(entity.Product{
		ID: "p-1", StoreID: testStore, Kind: entity.KindProduct,
		Stock: decimal.NewNullDecimal(decimal.NewFromInt(9)),
	})
	out, err = execute(t, b, "validate", "--store", testStore, "--product", "p-1")
	assert.ErrorContains(t, err, "stock drift")
	assert.Contains(t, out, `"isConsistent": false`)

	_, err = execute(t, b, "validate", "--store", testStore, "--product", "missing")
	assert.ErrorContains(t, err, "product not found")

	_, err = execute(t, b, "validate", "--store", testStore)
	assert.ErrorContains(t, err, "--product")
}

func TestSummaryAndStockAt(t *testing.T) {
	_, b := seeded(t)

	out, err := execute(t, b, "summary", "--store", testStore, "--product", "p-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"movementCount": 2`)
	assert.Contains(t, out, `"currentStock": "7"`)

	out, err = execute(t, b, "stock-at", "--store", testStore, "--product", "p-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"stock": "7"`)

	out, err = execute(t, b, "stock-at", "--store", testStore, "--product", "p-1", "--date", "2000-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, `"stock": "0"`)

	_, err = execute(t, b, "stock-at", "--store", testStore, "--product", "p-1", "--date", "yesterday")
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	_, src := seeded(t)
	file := filepath.Join(t.TempDir(), "journal.jsonl.zst")

	_, err := execute(t, src, "export", "--store", testStore, "--compress", "zstd", "--out", file)
	require.NoError(t, err)

	dst := memory.NewStore()
	b, _ := memoryBackend(t, dst)
	_, err = execute(t, b, "import", "--store", testStore, "--file", file, "--batch-size", "1")
	require.NoError(t, err)

	rows := dst.Movements()
	require.Len(t, rows, 2)
	assert.Equal(t, entity.MovementInitialStock, rows[0].MovementType)
	assert.Equal(t, "-3", rows[1].Quantity.String())

	other := memory.NewStore()
	b, _ = memoryBackend(t, other)
	_, err = execute(t, b, "import", "--store", "store-2", "--file", file)
	assert.ErrorContains(t, err, "belongs to store")
}

func TestExportRejectsUnknownCompression(t *testing.T) {
	_, b := seeded(t)
	_, err := execute(t, b, "export", "--store", testStore, "--compress", "lz4")
	assert.Error(t, err)
}

func TestMaintenanceCommands(t *testing.T) {
	_, b := seeded(t)

	_, err := execute(t, b, "migrate")
	assert.ErrorContains(t, err, "not supported")

	migrated := false
	b.migrate = func(context.Context) error { migrated = true; return nil }
	b.cleanupKeys = func(context.Context) (int64, error) { return 3, nil }

	out, err := execute(t, b, "migrate")
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Contains(t, out, "schema applied")

	out, err = execute(t, b, "cleanup-keys")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 3 expired keys")
}

func price(n int64) *decimal.Decimal {
	p := decimal.NewFromInt(n)
	return &p
}
