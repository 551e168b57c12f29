package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storeledger/internal/core/apperror"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/export"
	"storeledger/pkg/logger"
)

// ExportHandler streams the store's journal.
type ExportHandler struct {
	*BaseHandler
	exporter *export.Exporter
}

// NewExportHandler creates a new export handler.
func NewExportHandler(base *BaseHandler, exporter *export.Exporter) *ExportHandler {
	return &ExportHandler{BaseHandler: base, exporter: exporter}
}

// Export handles GET /ledger/export
func (h *ExportHandler) Export(c *gin.Context) {
	compression, err := export.ParseCompression(c.Query("compress"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("compress", c.Query("compress")))
		return
	}

	filter := ledger.JournalFilter{
		StoreID:   h.GetStoreID(c),
		ProductID: c.Query("productId"),
	}
	var ok bool
	if filter.FromDate, ok = h.ParseTimeQuery(c, "fromDate"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseTimeQuery(c, "toDate"); !ok {
		return
	}

	name := "journal.jsonl"
	if compression == export.CompressionZstd {
		name += ".zst"
	}
	c.Header("Content-Type", compression.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)

	// Headers are gone once the first entry is written, so a failure
	// mid-stream can only be logged.
	if _, err := h.exporter.Export(c.Request.Context(), c.Writer, filter, compression); err != nil {
		logger.Error(c.Request.Context(), "journal export failed", "error", err)
	}
}
