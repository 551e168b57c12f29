package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"storeledger/internal/core/entity"
	"storeledger/internal/core/id"
)

// DefaultWarehouse is used when a caller does not name a warehouse.
const DefaultWarehouse = "main"

// Line is one product line of a sale, purchase or return. A nil Price
// values the line at the product's catalog cost.
type Line struct {
	ProductID string           `json:"productId"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// SaleInput describes a completed sale.
type SaleInput struct {
	SaleID      string
	Lines       []Line
	UserID      string
	StoreID     string
	WarehouseID string
}

// PurchaseInput describes received purchase order goods.
type PurchaseInput struct {
	PurchaseID  string
	Lines       []Line
	UserID      string
	StoreID     string
	WarehouseID string
}

// ReturnInput describes goods a customer brought back from an earlier sale.
type ReturnInput struct {
	SaleID      string
	Lines       []Line
	Reason      string
	UserID      string
	StoreID     string
	WarehouseID string
}

// InitialStockInput describes the opening quantity of a newly created product.
type InitialStockInput struct {
	ProductID    string
	InitialStock decimal.Decimal
	UnitCost     *decimal.Decimal
	UserID       string
	StoreID      string
	WarehouseID  string
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	ProductID    string
	CurrentStock decimal.Decimal
	NewStock     decimal.Decimal
	Reason       string
	UserID       string
	StoreID      string
	WarehouseID  string
}

// Recorder turns business events into movement requests.
// None of its methods return an error; see BatchResult for per-line results.
type Recorder struct {
	batch            *Coordinator
	defaultWarehouse string
}

// NewRecorder creates a Recorder. An empty defaultWarehouse means DefaultWarehouse.
func NewRecorder(batch *Coordinator, defaultWarehouse string) *Recorder {
	if defaultWarehouse == "" {
		defaultWarehouse = DefaultWarehouse
	}
	return &Recorder{batch: batch, defaultWarehouse: defaultWarehouse}
}

func (r *Recorder) warehouse(w string) string {
	if w == "" {
		return r.defaultWarehouse
	}
	return w
}

// RecordSale books one outflow per sale line, valued at the sale price.
func (r *Recorder) RecordSale(ctx context.Context, in SaleInput) BatchResult {
	return r.recordLines(ctx, in.Lines, lineTemplate{
		movementType:  entity.MovementSale,
		referenceType: entity.RefSaleTransaction,
		referenceID:   in.SaleID,
		outflow:       true,
		userID:        in.UserID,
		storeID:       in.StoreID,
		warehouseID:   r.warehouse(in.WarehouseID),
	})
}

// RecordPurchase books one inflow per purchase line, valued at the purchase price.
func (r *Recorder) RecordPurchase(ctx context.Context, in PurchaseInput) BatchResult {
	return r.recordLines(ctx, in.Lines, lineTemplate{
		movementType:  entity.MovementPurchase,
		referenceType: entity.RefPurchaseOrder,
		referenceID:   in.PurchaseID,
		userID:        in.UserID,
		storeID:       in.StoreID,
		warehouseID:   r.warehouse(in.WarehouseID),
	})
}

// RecordReturn books one inflow per returned line against the original sale.
func (r *Recorder) RecordReturn(ctx context.Context, in ReturnInput) BatchResult {
	return r.recordLines(ctx, in.Lines, lineTemplate{
		movementType:  entity.MovementReturn,
		referenceType: entity.RefSaleTransaction,
		referenceID:   in.SaleID,
		notes:         in.Reason,
		userID:        in.UserID,
		storeID:       in.StoreID,
		warehouseID:   r.warehouse(in.WarehouseID),
	})
}

// RecordInitialStock books the opening quantity of a product. Quantities
// at or below zero are a no-op.
func (r *Recorder) RecordInitialStock(ctx context.Context, in InitialStockInput) BatchResult {
	if !in.InitialStock.IsPositive() {
		return single("", skipped(ReasonNoOp))
	}

	return r.batch.RecordBatch(ctx, []MovementRequest{{
		ProductID:     in.ProductID,
		WarehouseID:   r.warehouse(in.WarehouseID),
		MovementType:  entity.MovementInitialStock,
		Quantity:      in.InitialStock,
		UnitCost:      in.UnitCost,
		ReferenceType: entity.RefProductCreation,
		ReferenceID:   in.ProductID,
		UserID:        in.UserID,
		StoreID:       in.StoreID,
	}})
}

// RecordAdjustment books the difference between the counted and the
// recorded stock. Adjustments carry no cost basis, so unit cost is zero.
func (r *Recorder) RecordAdjustment(ctx context.Context, in AdjustmentInput) BatchResult {
	delta := in.NewStock.Sub(in.CurrentStock)
	if delta.IsZero() {
		return single("", skipped(ReasonNoOp))
	}

	zero := decimal.Zero
	return r.batch.RecordBatch(ctx, []MovementRequest{{
		ProductID:     in.ProductID,
		WarehouseID:   r.warehouse(in.WarehouseID),
		MovementType:  entity.MovementAdjustment,
		Quantity:      delta,
		UnitCost:      &zero,
		ReferenceType: entity.RefManualAdjustment,
		ReferenceID:   id.NewString(),
		UserID:        in.UserID,
		Notes:         in.Reason,
		StoreID:       in.StoreID,
	}})
}

type lineTemplate struct {
	movementType  entity.MovementType
	referenceType entity.ReferenceType
	referenceID   string
	outflow       bool
	notes         string
	userID        string
	storeID       string
	warehouseID   string
}

func (r *Recorder) recordLines(ctx context.Context, lines []Line, tpl lineTemplate) BatchResult {
	batchID := NewBatchID()
	reqs := make([]MovementRequest, 0, len(lines))
	for _, l := range lines {
		qty := l.Quantity
		if tpl.outflow {
			qty = qty.Neg()
		}
		reqs = append(reqs, MovementRequest{
			ProductID:     l.ProductID,
			WarehouseID:   tpl.warehouseID,
			MovementType:  tpl.movementType,
			Quantity:      qty,
			UnitCost:      l.Price,
			ReferenceType: tpl.referenceType,
			ReferenceID:   tpl.referenceID,
			BatchID:       batchID,
			UserID:        tpl.userID,
			Notes:         tpl.notes,
			StoreID:       tpl.storeID,
		})
	}

	res := r.batch.RecordBatch(ctx, reqs)
	res.BatchID = batchID
	return res
}
