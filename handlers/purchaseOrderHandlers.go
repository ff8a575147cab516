package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/po_service/config"
	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/shopspring/decimal"
)

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateReceivedRequest struct {
	ReceivedQty *float64 `json:"receivedQty"`
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "PO Service is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *Handler) GetPOHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		po, err := h.pos.GetPurchaseOrderByNumber(c.Request.Context(), c.Param("poNumber"))
		if err != nil {
			errorResponse(c, statusFor(err), "Failed to fetch PO", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": po})
	}
}

func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseISODate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", name, err, models.ErrInvalidInput)
	}
	return &t, nil
}

func (h *Handler) ListPOsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fromDate, err := parseDateQuery(c, "fromDate")
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "Invalid fromDate", err)
			return
		}
		toDate, err := parseDateQuery(c, "toDate")
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "Invalid toDate", err)
			return
		}

		pos, err := h.pos.ListPurchaseOrders(c.Request.Context(), models.PurchaseOrderFilter{
			VendorName: c.Query("vendorName"),
			City:       c.Query("city"),
			Status:     models.PurchaseOrderStatus(strings.TrimSpace(c.Query("status"))),
			FromDate:   fromDate,
			ToDate:     toDate,
		})
		if err != nil {
			errorResponse(c, statusFor(err), "Failed to fetch POs", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": pos, "count": len(pos)})
	}
}

func (h *Handler) UpdateStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
			errorResponse(c, http.StatusBadRequest, "Status is required", fmt.Errorf("status is required: %w", models.ErrInvalidInput))
			return
		}

		ctx := c.Request.Context()
		poNumber := c.Param("poNumber")
		po, err := h.pos.UpdatePurchaseOrderStatus(ctx, poNumber, models.PurchaseOrderStatus(req.Status))
		if err != nil {
			errorResponse(c, statusFor(err), "Failed to update PO status", err)
			return
		}

		if h.publish != nil {
			correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
			if pErr := h.publish(ctx, models.EventStatusUpdated, correlationId, models.POEvent{
				PoNumber: po.PoNumber,
				Status:   string(po.Status),
			}); pErr != nil {
				config.LogError(h.logger, "purchaseOrderHandlers.go", "UpdateStatusHandler", "publishing status event", poNumber, pErr)
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Purchase order status updated successfully", "data": po})
	}
}

func (h *Handler) UpdateReceivedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateReceivedRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ReceivedQty == nil {
			errorResponse(c, http.StatusBadRequest, "Valid receivedQty is required", fmt.Errorf("receivedQty is required: %w", models.ErrInvalidInput))
			return
		}
		if *req.ReceivedQty < 0 {
			errorResponse(c, http.StatusBadRequest, "Valid receivedQty is required", fmt.Errorf("receivedQty must be >= 0: %w", models.ErrInvalidInput))
			return
		}

		item, err := h.pos.UpdateReceivedQuantity(c.Request.Context(), c.Param("poNumber"), c.Param("skuId"), decimal.NewFromFloat(*req.ReceivedQty))
		if err != nil {
			message := "Failed to update received quantity"
			if errors.Is(err, models.ErrInvalidInput) {
				message = "Valid receivedQty is required"
			}
			errorResponse(c, statusFor(err), message, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Received quantity updated successfully", "data": item})
	}
}

func (h *Handler) ListIngestionRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		runs, err := h.pos.ListIngestionRuns(c.Request.Context(), limit)
		if err != nil {
			errorResponse(c, statusFor(err), "Failed to fetch ingestion runs", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": runs, "count": len(runs)})
	}
}
