package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storeledger/internal/core/apperror"
	"storeledger/internal/core/entity"
	"storeledger/internal/core/id"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/http/v1/dto"
	"storeledger/internal/infrastructure/http/v1/middleware"
)

// LedgerHandler handles HTTP requests for the movement ledger.
type LedgerHandler struct {
	*BaseHandler
	recorder         *ledger.Recorder
	query            *ledger.Query
	validator        *ledger.Validator
	defaultWarehouse string
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, svc *ledger.Service, defaultWarehouse string) *LedgerHandler {
	if defaultWarehouse == "" {
		defaultWarehouse = ledger.DefaultWarehouse
	}
	return &LedgerHandler{
		BaseHandler:      base,
		recorder:         svc.Recorder,
		query:            svc.Query,
		validator:        svc.Validator,
		defaultWarehouse: defaultWarehouse,
	}
}

// respondBatch always answers 200: a failed line is part of the body.
// Responses with failed lines are not kept for idempotent replay so that
// a retry can book them.
func (h *LedgerHandler) respondBatch(c *gin.Context, result ledger.BatchResult) {
	if result.Count(ledger.StatusFailed) > 0 {
		c.Set(middleware.KeyIdempotencyRelease, true)
	}
	h.OK(c, dto.FromBatchResult(result))
}

// RecordSale handles POST /ledger/sales
func (h *LedgerHandler) RecordSale(c *gin.Context) {
	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result := h.recorder.RecordSale(c.Request.Context(), req.ToInput(h.GetUserID(c), h.GetStoreID(c)))
	h.respondBatch(c, result)
}

// RecordPurchase handles POST /ledger/purchases
func (h *LedgerHandler) RecordPurchase(c *gin.Context) {
	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result := h.recorder.RecordPurchase(c.Request.Context(), req.ToInput(h.GetUserID(c), h.GetStoreID(c)))
	h.respondBatch(c, result)
}

// RecordReturn handles POST /ledger/returns
func (h *LedgerHandler) RecordReturn(c *gin.Context) {
	var req dto.ReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result := h.recorder.RecordReturn(c.Request.Context(), req.ToInput(h.GetUserID(c), h.GetStoreID(c)))
	h.respondBatch(c, result)
}

// RecordInitialStock handles POST /ledger/initial-stock
func (h *LedgerHandler) RecordInitialStock(c *gin.Context) {
	var req dto.InitialStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result := h.recorder.RecordInitialStock(c.Request.Context(), req.ToInput(h.GetUserID(c), h.GetStoreID(c)))
	h.respondBatch(c, result)
}

// RecordAdjustment handles POST /ledger/adjustments
func (h *LedgerHandler) RecordAdjustment(c *gin.Context) {
	var req dto.AdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result := h.recorder.RecordAdjustment(c.Request.Context(), req.ToInput(h.GetUserID(c), h.GetStoreID(c)))
	h.respondBatch(c, result)
}

// GetMovements handles GET /ledger/products/:productId/movements
func (h *LedgerHandler) GetMovements(c *gin.Context) {
	productID := c.Param("productId")

	filter := ledger.MovementFilter{
		WarehouseID: c.Query("warehouseId"),
		UserID:      c.Query("userId"),
		BatchID:     c.Query("batchId"),
	}

	if filter.BatchID != "" {
		if _, err := id.Parse(filter.BatchID); err != nil {
			h.Error(c, apperror.NewInvalidInput("batchId", filter.BatchID))
			return
		}
	}

	var ok bool
	if filter.FromDate, ok = h.ParseTimeQuery(c, "fromDate"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseTimeQuery(c, "toDate"); !ok {
		return
	}

	if raw := c.Query("types"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			t, err := entity.ParseMovementType(strings.TrimSpace(s))
			if err != nil {
				h.Error(c, apperror.NewInvalidInput("types", s).
					WithDetail("allowed", entity.MovementTypes()))
				return
			}
			filter.Types = append(filter.Types, t)
		}
	}

	movements, ok := h.query.MovementsFor(c.Request.Context(), productID, h.GetStoreID(c), filter)
	if !ok {
		h.Error(c, apperror.NewInternal(errors.New("movement history unavailable")))
		return
	}
	if movements == nil {
		movements = []entity.Movement{}
	}

	h.OK(c, dto.MovementListResponse{Items: movements, Limit: ledger.HistoryPageSize})
}

// GetStockAt handles GET /ledger/products/:productId/stock-at
func (h *LedgerHandler) GetStockAt(c *gin.Context) {
	productID := c.Param("productId")
	warehouseID := h.warehouse(c)

	at := time.Now()
	parsed, ok := h.ParseTimeQuery(c, "date")
	if !ok {
		return
	}
	if parsed != nil {
		at = *parsed
	}

	stock, ok := h.query.StockAt(c.Request.Context(), productID, warehouseID, h.GetStoreID(c), at)
	if !ok {
		h.Error(c, apperror.NewInternal(errors.New("stock replay unavailable")))
		return
	}

	h.OK(c, dto.StockAtResponse{
		ProductID:   productID,
		WarehouseID: warehouseID,
		At:          at,
		Stock:       stock,
	})
}

// GetSummary handles GET /ledger/products/:productId/summary
func (h *LedgerHandler) GetSummary(c *gin.Context) {
	summary, ok := h.query.MovementSummary(c.Request.Context(), c.Param("productId"), h.GetStoreID(c), h.warehouse(c))
	if !ok {
		h.Error(c, apperror.NewInternal(errors.New("movement summary unavailable")))
		return
	}
	h.OK(c, summary)
}

// GetConsistency handles GET /ledger/products/:productId/consistency
// A missing product answers 404, a failed read 500.
func (h *LedgerHandler) GetConsistency(c *gin.Context) {
	productID := c.Param("productId")
	report, err := h.validator.Check(c.Request.Context(), productID, h.warehouse(c), h.GetStoreID(c))
	switch {
	case apperror.IsNotFound(err):
		h.Error(c, apperror.NewNotFound("product", productID))
		return
	case err != nil:
		h.Error(c, apperror.NewInternal(err))
		return
	}
	h.OK(c, report)
}

func (h *LedgerHandler) warehouse(c *gin.Context) string {
	return c.DefaultQuery("warehouseId", h.defaultWarehouse)
}
