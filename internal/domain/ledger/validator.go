package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storeledger/internal/core/types"
	"storeledger/pkg/logger"
)

// DefaultTolerance absorbs decimal rounding between the counter and the replay.
var DefaultTolerance = decimal.New(1, -3)

// ConsistencyReport compares the live counter with the journal replay.
// Discrepancy is CurrentStock minus CalculatedStock.
type ConsistencyReport struct {
	ProductID       string          `json:"productId"`
	WarehouseID     string          `json:"warehouseId"`
	StoreID         string          `json:"storeId"`
	IsConsistent    bool            `json:"isConsistent"`
	CurrentStock    decimal.Decimal `json:"currentStock"`
	CalculatedStock decimal.Decimal `json:"calculatedStock"`
	Discrepancy     decimal.Decimal `json:"discrepancy"`
	CheckedAt       time.Time       `json:"checkedAt"`
}

// ValidatorConfig configures the Validator.
type ValidatorConfig struct {
	Tolerance decimal.Decimal
	// DriftRule decides which reports are logged as drift. Nil means
	// every inconsistent report is.
	DriftRule *DriftRule
	Clock     func() time.Time
}

// Validator detects drift between the stock counter and the journal.
// It never writes.
type Validator struct {
	products ProductRepository
	query    *Query
	cfg      ValidatorConfig
}

// NewValidator creates a Validator.
func NewValidator(products ProductRepository, query *Query, cfg ValidatorConfig) *Validator {
	if cfg.Tolerance.IsZero() {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Validator{products: products, query: query, cfg: cfg}
}

// Validate reads the live counter and compares it with StockAt(now).
// It returns ok=false when the product is missing or a read fails.
func (v *Validator) Validate(ctx context.Context, productID, warehouseID, storeID string) (ConsistencyReport, bool) {
	report, err := v.Check(ctx, productID, warehouseID, storeID)
	if err != nil {
		logger.Warn(ctx, "consistency check failed",
			"error", err,
			"product_id", productID,
			"warehouse_id", warehouseID,
		)
		return report, false
	}
	return report, true
}

// Check is Validate reporting why no report was produced. A missing product
// keeps its apperror NotFound in the chain; any other error is a read failure.
func (v *Validator) Check(ctx context.Context, productID, warehouseID, storeID string) (ConsistencyReport, error) {
	now := v.cfg.Clock().UTC()
	report := ConsistencyReport{
		ProductID:   productID,
		WarehouseID: warehouseID,
		StoreID:     storeID,
		CheckedAt:   now,
	}

	product, err := v.products.Get(ctx, productID, storeID)
	if err != nil {
		return report, fmt.Errorf("load product: %w", err)
	}

	sum, err := v.query.movements.SumQuantity(ctx, productID, warehouseID, storeID, now)
	if err != nil {
		return report, fmt.Errorf("replay stock: %w", err)
	}
	calculated := types.ClampNonNegative(sum)

	report.CurrentStock = product.CurrentStock()
	report.CalculatedStock = calculated
	report.Discrepancy = report.CurrentStock.Sub(calculated)
	report.IsConsistent = types.WithinTolerance(report.CurrentStock, calculated, v.cfg.Tolerance)

	v.alert(ctx, report)
	return report, nil
}

func (v *Validator) alert(ctx context.Context, report ConsistencyReport) {
	drift := !report.IsConsistent
	if v.cfg.DriftRule != nil {
		var err error
		drift, err = v.cfg.DriftRule.Match(report)
		if err != nil {
			logger.Error(ctx, "drift rule evaluation failed", "error", err, "rule", v.cfg.DriftRule.String())
			drift = !report.IsConsistent
		}
	}
	if !drift {
		return
	}
	logger.Warn(ctx, "stock drift detected",
		"product_id", report.ProductID,
		"warehouse_id", report.WarehouseID,
		"current_stock", report.CurrentStock,
		"calculated_stock", report.CalculatedStock,
		"discrepancy", report.Discrepancy,
	)
}
