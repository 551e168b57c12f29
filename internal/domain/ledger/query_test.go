package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/storage/memory"
)

func seedHistory(t *testing.T, f *fixture) (times []time.Time) {
	t.Helper()
	f.store.PutProduct(stockProduct("P", "0", "1"))
	ctx := context.Background()
	rec := f.svc.Recorder

	steps := []func() ledger.BatchResult{
		func() ledger.BatchResult {
			return rec.RecordInitialStock(ctx, ledger.InitialStockInput{ProductID: "P", InitialStock: dec("10"), UserID: "admin", StoreID: testStore})
		},
		func() ledger.BatchResult {
			return rec.RecordSale(ctx, ledger.SaleInput{SaleID: "s1", Lines: []ledger.Line{{ProductID: "P", Quantity: dec("4"), Price: decPtr("3")}}, UserID: "cashier-1", StoreID: testStore})
		},
		func() ledger.BatchResult {
			return rec.RecordPurchase(ctx, ledger.PurchaseInput{PurchaseID: "po1", Lines: []ledger.Line{{ProductID: "P", Quantity: dec("6"), Price: decPtr("1")}}, UserID: "buyer", StoreID: testStore, WarehouseID: "annex"})
		},
		func() ledger.BatchResult {
			return rec.RecordSale(ctx, ledger.SaleInput{SaleID: "s2", Lines: []ledger.Line{{ProductID: "P", Quantity: dec("1"), Price: decPtr("3")}}, UserID: "cashier-2", StoreID: testStore})
		},
	}
	for _, step := range steps {
		res := step()
		require.Len(t, res.Recorded(), 1)
		times = append(times, res.Recorded()[0].CreatedAt)
	}
	return times
}

func TestMovementsForNewestFirstWithFilters(t *testing.T) {
	f := newFixture(t, true)
	times := seedHistory(t, f)
	ctx := context.Background()
	q := f.svc.Query

	all, ok := q.MovementsFor(ctx, "P", testStore, ledger.MovementFilter{})
	require.True(t, ok)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}
	assert.Equal(t, "s2", all[0].ReferenceID)

	sales, _ := q.MovementsFor(ctx, "P", testStore, ledger.MovementFilter{Types: []entity.MovementType{entity.MovementSale}})
	assert.Len(t, sales, 2)

	annex, _ := q.MovementsFor(ctx, "P", testStore, ledger.MovementFilter{WarehouseID: "annex"})
	require.Len(t, annex, 1)
	assert.Equal(t, "po1", annex[0].ReferenceID)

	byUser, _ := q.MovementsFor(ctx, "P", testStore, ledger.MovementFilter{UserID: "cashier-1"})
	require.Len(t, byUser, 1)

	batch := *byUser[0].BatchID
	byBatch, _ := q.MovementsFor(ctx, "P", testStore, ledger.MovementFilter{BatchID: batch})
	assert.Len(t, byBatch, 1)

	from, to := times[1], times[2]
	window, _ := q.MovementsFor(ctx, "P", testStore, ledger.MovementFilter{FromDate: &from, ToDate: &to})
	assert.Len(t, window, 2)

	other, ok := q.MovementsFor(ctx, "P", "another-store", ledger.MovementFilter{})
	assert.True(t, ok)
	assert.Empty(t, other)
}

func TestMovementsForIsBoundedToOnePage(t *testing.T) {
	f := newFixture(t, true)
	f.store.PutProduct(stockProduct("P", "0", "1"))
	for i := 0; i < ledger.HistoryPageSize+20; i++ {
		f.svc.Recorder.RecordPurchase(context.Background(), ledger.PurchaseInput{
			PurchaseID: "po", Lines: []ledger.Line{{ProductID: "P", Quantity: dec("1"), Price: decPtr("1")}}, StoreID: testStore,
		})
	}

	page, ok := f.svc.Query.MovementsFor(context.Background(), "P", testStore, ledger.MovementFilter{Limit: 1000})
	require.True(t, ok)
	assert.Len(t, page, ledger.HistoryPageSize)
}

func TestMovementsForRejectsUnknownType(t *testing.T) {
	f := newFixture(t, true)
	_, ok := f.svc.Query.MovementsFor(context.Background(), "P", testStore, ledger.MovementFilter{Types: []entity.MovementType{"LOSS"}})
	assert.False(t, ok)
}

func TestStockAtReplaysUpToDate(t *testing.T) {
	f := newFixture(t, true)
	times := seedHistory(t, f)
	ctx := context.Background()
	q := f.svc.Query

	before := times[0].Add(-time.Second)
	got, ok := q.StockAt(ctx, "P", ledger.DefaultWarehouse, testStore, before)
	require.True(t, ok)
	assertDec(t, "0", got)

	got, _ = q.StockAt(ctx, "P", ledger.DefaultWarehouse, testStore, times[0])
	assertDec(t, "10", got)
	got, _ = q.StockAt(ctx, "P", ledger.DefaultWarehouse, testStore, times[1])
	assertDec(t, "6", got)
	// The purchase went to the annex warehouse.
	got, _ = q.StockAt(ctx, "P", ledger.DefaultWarehouse, testStore, times[3])
	assertDec(t, "5", got)
	got, _ = q.StockAt(ctx, "P", "annex", testStore, times[3])
	assertDec(t, "6", got)
}

func TestStockAtClampsReplayedTotal(t *testing.T) {
	f := newFixture(t, true)
	f.store.PutProduct(stockProduct("P", "0", "1"))
	f.svc.Recorder.RecordSale(context.Background(), ledger.SaleInput{
		SaleID: "s", Lines: []ledger.Line{{ProductID: "P", Quantity: dec("5"), Price: decPtr("1")}}, StoreID: testStore,
	})

	got, ok := f.svc.Query.StockAt(context.Background(), "P", ledger.DefaultWarehouse, testStore, f.clock.Now())
	require.True(t, ok)
	assertDec(t, "0", got)
}

func TestStockAtReportsStorageFailure(t *testing.T) {
	f := newFixture(t, true)
	f.store.FailOn(memory.OpListMovements, "", errors.New("timeout"))

	got, ok := f.svc.Query.StockAt(context.Background(), "P", ledger.DefaultWarehouse, testStore, time.Now())
	assert.False(t, ok)
	assert.True(t, got.IsZero())
}

func TestMovementSummary(t *testing.T) {
	f := newFixture(t, true)
	times := seedHistory(t, f)

	s, ok := f.svc.Query.MovementSummary(context.Background(), "P", testStore, ledger.DefaultWarehouse)
	require.True(t, ok)
	assert.Equal(t, 3, s.MovementCount)
	assertDec(t, "10", s.TotalInflow)
	assertDec(t, "5", s.TotalOutflow)
	assertDec(t, "5", s.CurrentStock)
	require.NotNil(t, s.LastMovementAt)
	assert.True(t, s.LastMovementAt.Equal(times[3]))
}

func TestSummarizeClampsEveryStep(t *testing.T) {
	entries := []entity.Movement{
		{Quantity: dec("-5"), CreatedAt: time.Unix(1, 0)},
		{Quantity: dec("3"), CreatedAt: time.Unix(2, 0)},
	}

	s := ledger.Summarize(entries)
	assertDec(t, "3", s.CurrentStock)
	assertDec(t, "3", s.TotalInflow)
	assertDec(t, "5", s.TotalOutflow)
	assert.Equal(t, 2, s.MovementCount)

	empty := ledger.Summarize(nil)
	assert.Nil(t, empty.LastMovementAt)
	assert.Zero(t, empty.MovementCount)
}
