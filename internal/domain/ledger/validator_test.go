package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeledger/internal/core/apperror"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/storage/memory"
)

func TestValidateComparesCounterWithWarehouseReplay(t *testing.T) {
	f := newFixture(t, true)
	seedHistory(t, f)

	report, ok := f.svc.Validator.Validate(context.Background(), "P", ledger.DefaultWarehouse, testStore)
	require.True(t, ok)
	// The counter is per product while the replay is per warehouse, so the
	// annex purchase is visible only in the counter.
	assertDec(t, "11", report.CurrentStock)
	assertDec(t, "5", report.CalculatedStock)
	assertDec(t, "6", report.Discrepancy)
	assert.False(t, report.IsConsistent)
}

func TestValidateWithinTolerance(t *testing.T) {
	f := newFixture(t, true)
	f.store.PutProduct(stockProduct("P", "0", "1"))
	f.svc.Recorder.RecordInitialStock(context.Background(), ledger.InitialStockInput{
		ProductID: "P", InitialStock: dec("10"), StoreID: testStore,
	})

	// Rounding noise in the counter.
	p, _ := f.store.Product("P", testStore)
	p.Stock = stockProduct("", "10.0005", "").Stock
	f.store.PutProduct(p)

	report, ok := f.svc.Validator.Validate(context.Background(), "P", ledger.DefaultWarehouse, testStore)
	require.True(t, ok)
	assert.True(t, report.IsConsistent)
	assertDec(t, "0.0005", report.Discrepancy)
}

// An oversell followed by a restock: the counter clamps at the write, the
// replay clamps only the final sum, and the two disagree.
func TestValidateReportsClampDivergence(t *testing.T) {
	f := newFixture(t, true)
	f.store.PutProduct(stockProduct("P", "0", "1"))
	ctx := context.Background()

	f.svc.Recorder.RecordSale(ctx, ledger.SaleInput{
		SaleID: "s", Lines: []ledger.Line{{ProductID: "P", Quantity: dec("5"), Price: decPtr("1")}}, StoreID: testStore,
	})
	f.svc.Recorder.RecordPurchase(ctx, ledger.PurchaseInput{
		PurchaseID: "po", Lines: []ledger.Line{{ProductID: "P", Quantity: dec("3"), Price: decPtr("1")}}, StoreID: testStore,
	})

	report, ok := f.svc.Validator.Validate(ctx, "P", ledger.DefaultWarehouse, testStore)
	require.True(t, ok)
	assertDec(t, "3", report.CurrentStock)
	assertDec(t, "0", report.CalculatedStock)
	assertDec(t, "3", report.Discrepancy)
	assert.False(t, report.IsConsistent)

	summary, _ := f.svc.Query.MovementSummary(ctx, "P", testStore, ledger.DefaultWarehouse)
	assertDec(t, "3", summary.CurrentStock, "per-step replay agrees with the counter")
}

func TestValidateMissingProduct(t *testing.T) {
	f := newFixture(t, true)
	_, ok := f.svc.Validator.Validate(context.Background(), "ghost", ledger.DefaultWarehouse, testStore)
	assert.False(t, ok)
}

func TestCheckSeparatesMissingProductFromReadFailure(t *testing.T) {
	f := newFixture(t, true)
	f.store.PutProduct(stockProduct("P", "3", "1"))
	ctx := context.Background()

	_, err := f.svc.Validator.Check(ctx, "ghost", ledger.DefaultWarehouse, testStore)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	f.store.FailOn(memory.OpListMovements, "P", errors.New("connection reset"))
	_, err = f.svc.Validator.Check(ctx, "P", ledger.DefaultWarehouse, testStore)
	require.Error(t, err)
	assert.False(t, apperror.IsNotFound(err))

	_, ok := f.svc.Validator.Validate(ctx, "P", ledger.DefaultWarehouse, testStore)
	assert.False(t, ok)
}

func TestValidateDoesNotWrite(t *testing.T) {
	f := newFixture(t, false)
	f.store.PutProduct(stockProduct("P", "7", "1"))

	_, ok := f.svc.Validator.Validate(context.Background(), "P", ledger.DefaultWarehouse, testStore)
	require.True(t, ok)
	assert.Empty(t, f.store.Movements())
	assertDec(t, "7", f.stock(t, "P"))
}

func TestDriftRule(t *testing.T) {
	report := ledger.ConsistencyReport{
		ProductID:    "P",
		IsConsistent: false,
		CurrentStock: dec("12"),
		Discrepancy:  dec("2"),
	}

	def, err := ledger.CompileDriftRule(ledger.DefaultDriftRule)
	require.NoError(t, err)
	matched, err := def.Match(report)
	require.NoError(t, err)
	assert.True(t, matched)

	large, err := ledger.CompileDriftRule("!is_consistent && (discrepancy > 5.0 || discrepancy < -5.0)")
	require.NoError(t, err)
	matched, err = large.Match(report)
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Contains(t, large.String(), "discrepancy")
}

func TestDriftRuleCompileErrors(t *testing.T) {
	_, err := ledger.CompileDriftRule("discrepancy + 1.0")
	assert.Error(t, err, "non-boolean rule")

	_, err = ledger.CompileDriftRule("unknown_var > 1")
	assert.Error(t, err)

	_, err = ledger.NewService(nil, nil, nil, ledger.Config{DriftRule: "is_consistent &&"})
	assert.Error(t, err)
}
