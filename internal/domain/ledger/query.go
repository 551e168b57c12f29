package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storeledger/internal/core/entity"
	"storeledger/internal/core/types"
	"storeledger/pkg/logger"
)

// Summary is a chronological replay of one product's journal in one warehouse.
type Summary struct {
	ProductID      string          `json:"productId"`
	WarehouseID    string          `json:"warehouseId"`
	TotalInflow    decimal.Decimal `json:"totalInflow"`
	TotalOutflow   decimal.Decimal `json:"totalOutflow"`
	CurrentStock   decimal.Decimal `json:"currentStock"`
	LastMovementAt *time.Time      `json:"lastMovementAt,omitempty"`
	MovementCount  int             `json:"movementCount"`
}

// Summarize folds entries, oldest first. The running stock is clamped at
// zero after every step, the same way the writer clamps the live counter.
func Summarize(entries []entity.Movement) Summary {
	s := Summary{
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
		CurrentStock: decimal.Zero,
	}
	for i := range entries {
		m := &entries[i]
		if m.IsInflow() {
			s.TotalInflow = s.TotalInflow.Add(m.Quantity)
		} else {
			s.TotalOutflow = s.TotalOutflow.Add(m.Quantity.Abs())
		}
		s.CurrentStock = types.ClampNonNegative(s.CurrentStock.Add(m.Quantity))
		if s.LastMovementAt == nil || m.CreatedAt.After(*s.LastMovementAt) {
			at := m.CreatedAt
			s.LastMovementAt = &at
		}
		s.MovementCount++
	}
	return s
}

// Query answers read-only questions about the journal. It takes no locks
// and may observe a write that is only half done when the writer runs
// in non-transactional mode.
type Query struct {
	movements MovementRepository
}

// NewQuery creates a Query.
func NewQuery(movements MovementRepository) *Query {
	return &Query{movements: movements}
}

// MovementsFor returns at most HistoryPageSize entries, newest first.
// On a storage failure it logs and returns ok=false.
func (q *Query) MovementsFor(ctx context.Context, productID, storeID string, filter MovementFilter) ([]entity.Movement, bool) {
	filter.Limit = HistoryPageSize
	for _, t := range filter.Types {
		if !t.Valid() {
			logger.Warn(ctx, "movement history filter has unknown type", "movement_type", t)
			return nil, false
		}
	}

	entries, err := q.movements.List(ctx, productID, storeID, filter)
	if err != nil {
		logger.Error(ctx, "list movements failed", "error", err, "product_id", productID)
		return nil, false
	}
	return entries, true
}

// StockAt replays every entry created at or before at and clamps the
// total at zero once, at the end.
func (q *Query) StockAt(ctx context.Context, productID, warehouseID, storeID string, at time.Time) (decimal.Decimal, bool) {
	sum, err := q.movements.SumQuantity(ctx, productID, warehouseID, storeID, at)
	if err != nil {
		logger.Error(ctx, "replay stock failed",
			"error", err,
			"product_id", productID,
			"warehouse_id", warehouseID,
			"at", at,
		)
		return decimal.Zero, false
	}
	return types.ClampNonNegative(sum), true
}

// MovementSummary replays the product's journal in one chronological pass.
func (q *Query) MovementSummary(ctx context.Context, productID, storeID, warehouseID string) (Summary, bool) {
	entries, err := q.movements.Chronological(ctx, productID, storeID, warehouseID)
	if err != nil {
		logger.Error(ctx, "movement summary failed", "error", err, "product_id", productID)
		return Summary{ProductID: productID, WarehouseID: warehouseID}, false
	}

	s := Summarize(entries)
	s.ProductID = productID
	s.WarehouseID = warehouseID
	return s, true
}
