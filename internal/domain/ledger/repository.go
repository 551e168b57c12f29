// Package ledger records stock movements in an append-only journal, keeps the
// product stock counter in step with it, and answers history, replay and
// consistency queries over the journal.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storeledger/internal/core/entity"
)

// HistoryPageSize bounds MovementsFor. There is no cursor; callers narrow filters instead.
const HistoryPageSize = 100

// ProductRepository reads and updates the product stock counter.
type ProductRepository interface {
	// Get returns the product or an apperror NotFound.
	Get(ctx context.Context, productID, storeID string) (*entity.Product, error)

	// GetForUpdate is Get with a row lock held until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Product, error)

	// UpdateStock overwrites the live counter.
	UpdateStock(ctx context.Context, productID, storeID string, stock decimal.Decimal) error
}

// MovementRepository is the journal. It has no update or delete operation.
type MovementRepository interface {
	// Create appends one entry.
	Create(ctx context.Context, m *entity.Movement) error

	// List returns entries for a product, newest first, at most filter.Limit rows.
	List(ctx context.Context, productID, storeID string, filter MovementFilter) ([]entity.Movement, error)

	// SumQuantity sums signed quantities of entries created at or before at.
	SumQuantity(ctx context.Context, productID, warehouseID, storeID string, at time.Time) (decimal.Decimal, error)

	// Chronological returns every entry for a product and warehouse, oldest first.
	Chronological(ctx context.Context, productID, storeID, warehouseID string) ([]entity.Movement, error)

	// Each streams a store's journal oldest first, stopping at the first error fn returns.
	Each(ctx context.Context, filter JournalFilter, fn func(m *entity.Movement) error) error
}

// MovementFilter narrows movement history.
type MovementFilter struct {
	FromDate    *time.Time
	ToDate      *time.Time
	Types       []entity.MovementType
	WarehouseID string
	UserID      string
	BatchID     string
	Limit       int
}

// JournalFilter selects journal rows for export.
type JournalFilter struct {
	StoreID   string
	ProductID string
	FromDate  *time.Time
	ToDate    *time.Time
}
