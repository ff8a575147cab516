package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/mmdatafocus/po_service/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PurchaseOrderService interface {
	GetPurchaseOrderByNumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter models.PurchaseOrderFilter) ([]*models.PurchaseOrder, error)
	UpdatePurchaseOrderStatus(ctx context.Context, poNumber string, status models.PurchaseOrderStatus) (*models.PurchaseOrder, error)
	UpdateReceivedQuantity(ctx context.Context, poNumber string, skuId string, qty decimal.Decimal) (*models.OrderItem, error)
	ListIngestionRuns(ctx context.Context, limit int) ([]*models.IngestionRun, error)
}

type Ingestor interface {
	Ingest(ctx context.Context, source string, items []workflow.LineItem, platformName string) (*workflow.Report, error)
}

// ArchiveFunc matches config.ArchiveObject.
type ArchiveFunc func(ctx context.Context, objectName, contentType string, r io.Reader) error

type Handler struct {
	pos      PurchaseOrderService
	ingestor Ingestor
	publish  workflow.PublishFunc
	archive  ArchiveFunc
	logger   *logrus.Logger
}

// NewHandler accepts nil publish and archive; the matching side effects are skipped.
func NewHandler(pos PurchaseOrderService, ingestor Ingestor, publish workflow.PublishFunc, archive ArchiveFunc, logger *logrus.Logger) *Handler {
	return &Handler{
		pos:      pos,
		ingestor: ingestor,
		publish:  publish,
		archive:  archive,
		logger:   logger,
	}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", HealthHandler())
	r.POST("/process-po", h.ProcessPOHandler())
	r.POST("/process-po/upload", h.UploadPOHandler())
	r.GET("/po/:poNumber", h.GetPOHandler())
	r.GET("/pos", h.ListPOsHandler())
	r.PATCH("/po/:poNumber/status", h.UpdateStatusHandler())
	r.PATCH("/po/:poNumber/item/:skuId/received", h.UpdateReceivedHandler())
	r.GET("/ingestion-runs", h.ListIngestionRunsHandler())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrIngestBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}
