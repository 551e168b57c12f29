// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"storeledger/internal/core/apperror"
	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
)

// --- Requests ---

// LineRequest is one product line of a sale, purchase or return.
type LineRequest struct {
	ProductID string           `json:"productId" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     *decimal.Decimal `json:"price"` // optional, defaults to the catalog cost
}

func toLines(in []LineRequest) []ledger.Line {
	out := make([]ledger.Line, len(in))
	for i, l := range in {
		out[i] = ledger.Line{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price}
	}
	return out
}

// SaleRequest records a completed sale.
type SaleRequest struct {
	SaleID      string        `json:"saleId" binding:"required"`
	WarehouseID string        `json:"warehouseId"`
	Lines       []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request for the recorder.
func (r SaleRequest) ToInput(userID, storeID string) ledger.SaleInput {
	return ledger.SaleInput{
		SaleID:      r.SaleID,
		Lines:       toLines(r.Lines),
		UserID:      userID,
		StoreID:     storeID,
		WarehouseID: r.WarehouseID,
	}
}

// PurchaseRequest records received purchase order goods.
type PurchaseRequest struct {
	PurchaseID  string        `json:"purchaseId" binding:"required"`
	WarehouseID string        `json:"warehouseId"`
	Lines       []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request for the recorder.
func (r PurchaseRequest) ToInput(userID, storeID string) ledger.PurchaseInput {
	return ledger.PurchaseInput{
		PurchaseID:  r.PurchaseID,
		Lines:       toLines(r.Lines),
		UserID:      userID,
		StoreID:     storeID,
		WarehouseID: r.WarehouseID,
	}
}

// ReturnRequest records goods brought back from an earlier sale.
type ReturnRequest struct {
	SaleID      string        `json:"saleId" binding:"required"`
	Reason      string        `json:"reason"`
	WarehouseID string        `json:"warehouseId"`
	Lines       []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request for the recorder.
func (r ReturnRequest) ToInput(userID, storeID string) ledger.ReturnInput {
	return ledger.ReturnInput{
		SaleID:      r.SaleID,
		Lines:       toLines(r.Lines),
		Reason:      r.Reason,
		UserID:      userID,
		StoreID:     storeID,
		WarehouseID: r.WarehouseID,
	}
}

// InitialStockRequest records the opening quantity of a new product.
type InitialStockRequest struct {
	ProductID    string           `json:"productId" binding:"required"`
	InitialStock decimal.Decimal  `json:"initialStock"`
	UnitCost     *decimal.Decimal `json:"unitCost"`
	WarehouseID  string           `json:"warehouseId"`
}

// ToInput converts the request for the recorder.
func (r InitialStockRequest) ToInput(userID, storeID string) ledger.InitialStockInput {
	return ledger.InitialStockInput{
		ProductID:    r.ProductID,
		InitialStock: r.InitialStock,
		UnitCost:     r.UnitCost,
		UserID:       userID,
		StoreID:      storeID,
		WarehouseID:  r.WarehouseID,
	}
}

// AdjustmentRequest records a manual stock correction.
type AdjustmentRequest struct {
	ProductID    string          `json:"productId" binding:"required"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	NewStock     decimal.Decimal `json:"newStock"`
	Reason       string          `json:"reason" binding:"required"`
	WarehouseID  string          `json:"warehouseId"`
}

// ToInput converts the request for the recorder.
func (r AdjustmentRequest) ToInput(userID, storeID string) ledger.AdjustmentInput {
	return ledger.AdjustmentInput{
		ProductID:    r.ProductID,
		CurrentStock: r.CurrentStock,
		NewStock:     r.NewStock,
		Reason:       r.Reason,
		UserID:       userID,
		StoreID:      storeID,
		WarehouseID:  r.WarehouseID,
	}
}

// --- Responses ---

// LineResponse is the outcome of one submitted line.
type LineResponse struct {
	Index  int              `json:"index"`
	Status ledger.Status    `json:"status"`
	Reason string           `json:"reason,omitempty"`
	Entry  *entity.Movement `json:"entry,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// BatchResponse reports every line of a recording request.
type BatchResponse struct {
	BatchID  string         `json:"batchId,omitempty"`
	Recorded int            `json:"recorded"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Lines    []LineResponse `json:"lines"`
}

// FromBatchResult converts a recorder result to response DTO.
// Server-side failures are reported without their cause.
func FromBatchResult(r ledger.BatchResult) BatchResponse {
	resp := BatchResponse{
		BatchID:  r.BatchID,
		Recorded: r.Count(ledger.StatusRecorded),
		Skipped:  r.Count(ledger.StatusSkipped),
		Failed:   r.Count(ledger.StatusFailed),
		Lines:    make([]LineResponse, len(r.Lines)),
	}
	for i, l := range r.Lines {
		resp.Lines[i] = LineResponse{
			Index:  l.Index,
			Status: l.Status,
			Reason: string(l.Reason),
			Entry:  l.Entry,
			Error:  publicError(l.Err),
		}
	}
	return resp
}

func publicError(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := apperror.AsAppError(err); ok && !appErr.ServerSide() {
		return appErr.Message
	}
	return "internal error"
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Limit int `json:"limit"`
}

// MovementListResponse is a page of movement history.
type MovementListResponse = ListResponse[entity.Movement]

// StockAtResponse is the replayed stock of a product at a point in time.
type StockAtResponse struct {
	ProductID   string          `json:"productId"`
	WarehouseID string          `json:"warehouseId"`
	At          time.Time       `json:"at"`
	Stock       decimal.Decimal `json:"stock"`
}
