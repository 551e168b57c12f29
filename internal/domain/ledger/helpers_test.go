package ledger_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/storage/memory"
)

const testStore = "store-1"

// stepClock returns a strictly increasing time, one second per call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store *memory.Store
	clock *stepClock
	svc   *ledger.Service
}

func newFixture(t *testing.T, transactional bool) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := newStepClock()
	svc, err := ledger.NewService(store.Products(), store.Journal(), store.TxManager(), ledger.Config{
		Transactional: transactional,
		Clock:         clock.Now,
	})
	require.NoError(t, err)
	return &fixture{store: store, clock: clock, svc: svc}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func stockProduct(id, stock, cost string) entity.Product {
	p := entity.Product{ID: id, StoreID: testStore, Kind: entity.KindProduct}
	if stock != "" {
		p.Stock = decimal.NewNullDecimal(dec(stock))
	}
	if cost != "" {
		p.Cost = decimal.NewNullDecimal(dec(cost))
	}
	return p
}

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	p, ok := f.store.Product(productID, testStore)
	require.True(t, ok)
	return p.CurrentStock()
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
