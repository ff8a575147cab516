package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/po_service/config"
	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/mmdatafocus/po_service/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// processPORequest is the bulk envelope: {"pos": {"data": [...]}, "platform": "X"}.
type processPORequest struct {
	Pos *struct {
		Data *[]workflow.LineItem `json:"data"`
	} `json:"pos"`
	Platform string `json:"platform"`
}

func (h *Handler) ProcessPOHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req processPORequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, "Invalid PO data", fmt.Errorf("%v: %w", err, models.ErrInvalidInput))
			return
		}
		if req.Pos == nil || req.Pos.Data == nil {
			errorResponse(c, http.StatusBadRequest, "Invalid PO data", fmt.Errorf("pos.data is required: %w", models.ErrInvalidInput))
			return
		}

		h.ingest(c, models.IngestionSourceApi, *req.Pos.Data, req.Platform)
	}
}

// UploadPOHandler takes a multipart "file" (.xlsx) and an optional "platform" field.
func (h *Handler) UploadPOHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "Invalid PO data", fmt.Errorf("file is required: %w", models.ErrInvalidInput))
			return
		}
		if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
			errorResponse(c, http.StatusBadRequest, "Invalid PO data", fmt.Errorf("invalid file type: only .xlsx files are allowed: %w", models.ErrInvalidInput))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, "Failed to process PO data", err)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, "Failed to process PO data", err)
			return
		}

		runId := uuid.NewString()
		ctx := utils.SetRunIdInContext(c.Request.Context(), runId)
		c.Request = c.Request.WithContext(ctx)

		if h.archive != nil {
			objectName := fmt.Sprintf("po-imports/%s.xlsx", runId)
			if aErr := h.archive(ctx, objectName, xlsxContentType, bytes.NewReader(data)); aErr != nil {
				config.LogError(h.logger, "ingestHandlers.go", "UploadPOHandler", "archiving upload", objectName, aErr)
			}
		}

		items, err := workflow.ParseLineItemsXlsx(bytes.NewReader(data))
		if err != nil {
			errorResponse(c, statusFor(err), "Invalid PO data", err)
			return
		}

		h.ingest(c, models.IngestionSourceUpload, items, c.PostForm("platform"))
	}
}

func (h *Handler) ingest(c *gin.Context, source string, items []workflow.LineItem, platform string) {
	report, err := h.ingestor.Ingest(c.Request.Context(), source, items, platform)
	if err != nil {
		status := statusFor(err)
		message := workflow.MessageRunFailed
		switch status {
		case http.StatusBadRequest:
			message = "Invalid PO data"
		case http.StatusConflict:
			message = "PO ingestion already in progress"
		}
		errorResponse(c, status, message, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
