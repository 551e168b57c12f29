package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storeledger/internal/core/apperror"
	"storeledger/internal/core/entity"
	"storeledger/internal/core/id"
	"storeledger/internal/core/tx"
	"storeledger/internal/core/types"
	"storeledger/pkg/logger"
)

var tracer = otel.Tracer("storeledger/ledger")

// AccountingOnlyNote marks entries for products whose stock is not tracked.
const AccountingOnlyNote = "[accounting only]"

// MovementRequest is the input of one ledger write.
type MovementRequest struct {
	ProductID     string
	WarehouseID   string
	MovementType  entity.MovementType
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	ReferenceType entity.ReferenceType
	ReferenceID   string
	BatchID       string
	UserID        string
	Notes         string
	StoreID       string
}

// Validate checks the request shape before anything is read or written.
func (r MovementRequest) Validate() error {
	switch {
	case r.ProductID == "":
		return apperror.NewValidation("product_id is required")
	case r.WarehouseID == "":
		return apperror.NewValidation("warehouse_id is required")
	case r.StoreID == "":
		return apperror.NewValidation("store_id is required")
	case !r.MovementType.Valid():
		return apperror.NewInvalidInput("movement_type", string(r.MovementType))
	case !r.ReferenceType.Valid():
		return apperror.NewInvalidInput("reference_type", string(r.ReferenceType))
	case !r.MovementType.Direction().Allows(r.Quantity):
		return apperror.NewValidation(fmt.Sprintf("quantity %s has the wrong sign for %s", r.Quantity, r.MovementType)).
			WithDetail("product_id", r.ProductID)
	}
	return nil
}

// WriterConfig configures the Writer.
type WriterConfig struct {
	// Transactional wraps the entry insert and the counter update in one
	// transaction and locks the product row first. When false the two writes
	// commit independently and concurrent writers can lose counter updates.
	Transactional bool

	// Clock stamps created_at. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultWriterConfig returns the transactional configuration.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{Transactional: true}
}

// Writer appends single movement entries and keeps the stock counter in step.
// Record never returns an error and never panics; failures are logged and
// reported through the Outcome.
type Writer struct {
	products  ProductRepository
	movements MovementRepository
	txm       tx.Manager
	cfg       WriterConfig
}

// NewWriter creates a Writer. A nil txm disables transactional mode.
func NewWriter(products ProductRepository, movements MovementRepository, txm tx.Manager, cfg WriterConfig) *Writer {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if txm == nil {
		txm = tx.Passthrough
		cfg.Transactional = false
	}
	return &Writer{
		products:  products,
		movements: movements,
		txm:       txm,
		cfg:       cfg,
	}
}

// Record writes one movement entry.
func (w *Writer) Record(ctx context.Context, req MovementRequest) (out Outcome) {
	ctx, span := tracer.Start(ctx, "ledger.record",
		trace.WithAttributes(
			attribute.String("ledger.product_id", req.ProductID),
			attribute.String("ledger.movement_type", string(req.MovementType)),
			attribute.String("ledger.reference_id", req.ReferenceID),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			out = failed(fmt.Errorf("ledger write panicked: %v", r))
		}
		w.report(ctx, span, req, out)
	}()

	if err := req.Validate(); err != nil {
		return failed(err)
	}

	if !w.cfg.Transactional {
		return w.apply(ctx, req, w.products.Get)
	}

	err := w.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		out = w.apply(ctx, req, w.products.GetForUpdate)
		if out.Status == StatusFailed {
			return out.Err
		}
		return nil
	})
	if err != nil && out.Status != StatusFailed {
		out = failed(fmt.Errorf("commit movement: %w", err))
	}
	return out
}

type productLoader func(ctx context.Context, productID, storeID string) (*entity.Product, error)

// apply runs inside the transaction when there is one, so a panic here is
// turned into a failed outcome before the transaction manager sees it.
func (w *Writer) apply(ctx context.Context, req MovementRequest, load productLoader) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failed(fmt.Errorf("ledger write panicked: %v", r))
		}
	}()

	product, err := load(ctx, req.ProductID, req.StoreID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return skipped(ReasonProductNotFound)
		}
		return failed(fmt.Errorf("load product: %w", err))
	}

	entry := w.buildEntry(req, product)
	if err := w.movements.Create(ctx, entry); err != nil {
		return failed(fmt.Errorf("insert movement: %w", err))
	}

	if !product.TracksStock() {
		return recorded(entry)
	}

	if err := w.products.UpdateStock(ctx, req.ProductID, req.StoreID, entry.NewStock); err != nil {
		if !w.cfg.Transactional {
			logger.Error(ctx, "movement persisted without counter update",
				"entry_id", entry.ID,
				"product_id", req.ProductID,
				"new_stock", entry.NewStock,
			)
		}
		return failed(fmt.Errorf("update stock counter: %w", err))
	}

	return recorded(entry)
}

func (w *Writer) buildEntry(req MovementRequest, product *entity.Product) *entity.Movement {
	unitCost := types.FirstNonNil(req.UnitCost, product.UnitCost())

	entry := &entity.Movement{
		ID:            id.New(),
		ProductID:     req.ProductID,
		WarehouseID:   req.WarehouseID,
		MovementType:  req.MovementType,
		Quantity:      req.Quantity,
		UnitCost:      unitCost,
		TotalValue:    types.LineValue(req.Quantity, unitCost),
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		PreviousStock: decimal.Zero,
		NewStock:      decimal.Zero,
		UserID:        req.UserID,
		StoreID:       req.StoreID,
		CreatedAt:     w.cfg.Clock().UTC(),
	}
	if req.BatchID != "" {
		batchID := req.BatchID
		entry.BatchID = &batchID
	}

	notes := req.Notes
	if product.TracksStock() {
		entry.PreviousStock = product.CurrentStock()
		entry.NewStock = types.ClampNonNegative(entry.PreviousStock.Add(req.Quantity))
	} else {
		notes = accountingOnly(notes)
	}
	if notes != "" {
		entry.Notes = &notes
	}

	return entry
}

func accountingOnly(notes string) string {
	if notes == "" {
		return AccountingOnlyNote
	}
	return notes + " " + AccountingOnlyNote
}

func (w *Writer) report(ctx context.Context, span trace.Span, req MovementRequest, out Outcome) {
	span.SetAttributes(attribute.String("ledger.outcome", out.Status.String()))

	switch out.Status {
	case StatusRecorded:
		logger.Debug(ctx, "movement recorded",
			"entry_id", out.Entry.ID,
			"product_id", req.ProductID,
			"movement_type", req.MovementType,
			"quantity", req.Quantity,
			"new_stock", out.Entry.NewStock,
		)
	case StatusSkipped:
		logger.Info(ctx, "movement skipped",
			"reason", out.Reason,
			"product_id", req.ProductID,
			"store_id", req.StoreID,
			"reference_id", req.ReferenceID,
		)
	case StatusFailed:
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, "movement not recorded")
		logger.Error(ctx, "movement not recorded",
			"error", out.Err,
			"product_id", req.ProductID,
			"store_id", req.StoreID,
			"movement_type", req.MovementType,
			"reference_type", req.ReferenceType,
			"reference_id", req.ReferenceID,
		)
	}
}
