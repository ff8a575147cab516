package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/mmdatafocus/po_service/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type fakeService struct {
	pos          map[string]*models.PurchaseOrder
	lastFilter   models.PurchaseOrderFilter
	lastReceived decimal.Decimal
	lastLimit    int
	err          error
}

func (f *fakeService) GetPurchaseOrderByNumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	if po, ok := f.pos[poNumber]; ok {
		return po, nil
	}
	return nil, fmt.Errorf("purchase order %s: %w", poNumber, models.ErrNotFound)
}

func (f *fakeService) ListPurchaseOrders(ctx context.Context, filter models.PurchaseOrderFilter) ([]*models.PurchaseOrder, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.PurchaseOrder{}
	for _, po := range f.pos {
		out = append(out, po)
	}
	return out, nil
}

func (f *fakeService) UpdatePurchaseOrderStatus(ctx context.Context, poNumber string, status models.PurchaseOrderStatus) (*models.PurchaseOrder, error) {
	po, ok := f.pos[poNumber]
	if !ok {
		return nil, fmt.Errorf("purchase order %s: %w", poNumber, models.ErrNotFound)
	}
	po.Status = status
	return po, nil
}

func (f *fakeService) UpdateReceivedQuantity(ctx context.Context, poNumber string, skuId string, qty decimal.Decimal) (*models.OrderItem, error) {
	f.lastReceived = qty
	if _, ok := f.pos[poNumber]; !ok {
		return nil, fmt.Errorf("purchase order %s: %w", poNumber, models.ErrNotFound)
	}
	return &models.OrderItem{SkuId: skuId, ReceivedQuantity: qty}, nil
}

func (f *fakeService) ListIngestionRuns(ctx context.Context, limit int) ([]*models.IngestionRun, error) {
	f.lastLimit = limit
	return []*models.IngestionRun{{RunId: "r1"}}, nil
}

type fakeIngestor struct {
	source   string
	items    []workflow.LineItem
	platform string
	report   *workflow.Report
	err      error
}

func (f *fakeIngestor) Ingest(ctx context.Context, source string, items []workflow.LineItem, platformName string) (*workflow.Report, error) {
	f.source, f.items, f.platform = source, items, platformName
	return f.report, f.err
}

type testEnv struct {
	router   *gin.Engine
	svc      *fakeService
	ingestor *fakeIngestor
	events   []string
	archived []string
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		svc: &fakeService{pos: map[string]*models.PurchaseOrder{
			"PO-1": {ID: 1, PoNumber: "PO-1", Status: models.PurchaseOrderStatusPending},
		}},
		ingestor: &fakeIngestor{report: &workflow.Report{Success: true, Message: workflow.MessageAllProcessed}},
	}
	publish := func(ctx context.Context, eventType, correlationId string, payload interface{}) error {
		env.events = append(env.events, eventType)
		return nil
	}
	archive := func(ctx context.Context, objectName, contentType string, r io.Reader) error {
		env.archived = append(env.archived, objectName)
		return nil
	}

	env.router = gin.New()
	NewHandler(env.svc, env.ingestor, publish, archive, logger).Register(env.router)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
	}
	return w, out
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv()
	w, body := env.do(t, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK || body["message"] != "PO Service is running" || body["timestamp"] == "" {
		t.Fatalf("unexpected health response: %d %v", w.Code, body)
	}
}

func TestProcessPOHandler(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantCalled bool
	}{
		{"valid", `{"pos":{"data":[{"PONumber":"PO-1","SKUId":"A","OrderedQty":1,"City":"C","VendorName":"V","POCreatedDate":"2025-01-15"}]},"platform":"X"}`, http.StatusOK, true},
		{"empty list", `{"pos":{"data":[]}}`, http.StatusOK, true},
		{"missing data", `{"pos":{}}`, http.StatusBadRequest, false},
		{"missing envelope", `{"platform":"X"}`, http.StatusBadRequest, false},
		{"not json", `nope`, http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			w, body := env.do(t, http.MethodPost, "/process-po", bytes.NewBufferString(tc.body), "application/json")
			if w.Code != tc.wantStatus {
				t.Fatalf("want %d, got %d (%v)", tc.wantStatus, w.Code, body)
			}
			if called := env.ingestor.source != ""; called != tc.wantCalled {
				t.Fatalf("ingestor called=%v, want %v", called, tc.wantCalled)
			}
			if tc.wantStatus == http.StatusBadRequest && body["message"] != "Invalid PO data" {
				t.Fatalf("unexpected message: %v", body["message"])
			}
		})
	}
}

func TestProcessPOHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", fmt.Errorf("item 0: %w", models.ErrInvalidInput), http.StatusBadRequest, "Invalid PO data"},
		{"fatal", errors.New("db down"), http.StatusInternalServerError, workflow.MessageRunFailed},
		{"platform busy", fmt.Errorf("platform X: %w", utils.ErrIngestBusy), http.StatusConflict, "PO ingestion already in progress"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.ingestor.report = nil
			env.ingestor.err = tc.err
			w, body := env.do(t, http.MethodPost, "/process-po", bytes.NewBufferString(`{"pos":{"data":[]}}`), "application/json")
			if w.Code != tc.wantStatus || body["message"] != tc.wantMessage || body["success"] != false {
				t.Fatalf("want %d %q, got %d %v", tc.wantStatus, tc.wantMessage, w.Code, body)
			}
		})
	}
}

func TestUploadPOHandler(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]interface{}{"PONumber", "SKUId", "OrderedQty", "City", "VendorName", "POCreatedDate"})
	_ = f.SetSheetRow(sheet, "A2", &[]interface{}{"PO-1", "A", 4, "Chennai", "Acme", "2025-01-15"})
	xlsx, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	upload := func(filename string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, _ := mw.CreateFormFile("file", filename)
		_, _ = part.Write(xlsx.Bytes())
		_ = mw.WriteField("platform", "X")
		_ = mw.Close()
		return &buf, mw.FormDataContentType()
	}

	env := newTestEnv()
	body, contentType := upload("orders.xlsx")
	w, resp := env.do(t, http.MethodPost, "/process-po/upload", body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (%v)", w.Code, resp)
	}
	if env.ingestor.source != models.IngestionSourceUpload || env.ingestor.platform != "X" || len(env.ingestor.items) != 1 {
		t.Fatalf("unexpected ingest call: %+v", env.ingestor)
	}
	if len(env.archived) != 1 {
		t.Fatalf("want upload archived once, got %v", env.archived)
	}

	env = newTestEnv()
	body, contentType = upload("orders.csv")
	w, _ = env.do(t, http.MethodPost, "/process-po/upload", body, contentType)
	if w.Code != http.StatusBadRequest || env.ingestor.source != "" {
		t.Fatalf("non-xlsx upload: want 400 and no ingest, got %d", w.Code)
	}
}

func TestGetPOHandler(t *testing.T) {
	env := newTestEnv()
	if w, _ := env.do(t, http.MethodGet, "/po/PO-1", nil, ""); w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodGet, "/po/PO-404", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}
}

func TestListPOsHandler(t *testing.T) {
	env := newTestEnv()
	w, body := env.do(t, http.MethodGet, "/pos?city=Chennai&status=Pending&fromDate=2025-01-01&toDate=2025-01-31&vendorName=Acme", nil, "")
	if w.Code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("unexpected response: %d %v", w.Code, body)
	}
	f := env.svc.lastFilter
	if f.City != "Chennai" || f.Status != "Pending" || f.VendorName != "Acme" || f.FromDate == nil || f.ToDate == nil {
		t.Fatalf("filter not forwarded: %+v", f)
	}

	w, body = env.do(t, http.MethodGet, "/pos?fromDate=01/02/2025", nil, "")
	if w.Code != http.StatusBadRequest || body["message"] != "Invalid fromDate" {
		t.Fatalf("bad date: got %d %v", w.Code, body)
	}
}

func TestUpdateStatusHandler(t *testing.T) {
	env := newTestEnv()
	w, body := env.do(t, http.MethodPatch, "/po/PO-1/status", bytes.NewBufferString(`{"status":"Shipped"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d %v", w.Code, body)
	}
	if body["message"] != "Purchase order status updated successfully" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if len(env.events) != 1 || env.events[0] != models.EventStatusUpdated {
		t.Fatalf("want one status event, got %v", env.events)
	}

	w, body = env.do(t, http.MethodPatch, "/po/PO-1/status", bytes.NewBufferString(`{}`), "application/json")
	if w.Code != http.StatusBadRequest || body["message"] != "Status is required" {
		t.Fatalf("missing status: got %d %v", w.Code, body)
	}

	if w, _ = env.do(t, http.MethodPatch, "/po/PO-9/status", bytes.NewBufferString(`{"status":"Shipped"}`), "application/json"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown PO: want 404, got %d", w.Code)
	}
}

func TestUpdateReceivedHandler(t *testing.T) {
	cases := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"ok", "/po/PO-1/item/A/received", `{"receivedQty":2.5}`, http.StatusOK},
		{"zero", "/po/PO-1/item/A/received", `{"receivedQty":0}`, http.StatusOK},
		{"negative", "/po/PO-1/item/A/received", `{"receivedQty":-1}`, http.StatusBadRequest},
		{"missing", "/po/PO-1/item/A/received", `{}`, http.StatusBadRequest},
		{"not a number", "/po/PO-1/item/A/received", `{"receivedQty":"two"}`, http.StatusBadRequest},
		{"unknown po", "/po/PO-9/item/A/received", `{"receivedQty":1}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			w, body := env.do(t, http.MethodPatch, tc.path, bytes.NewBufferString(tc.body), "application/json")
			if w.Code != tc.wantStatus {
				t.Fatalf("want %d, got %d (%v)", tc.wantStatus, w.Code, body)
			}
			if tc.wantStatus == http.StatusOK && body["message"] != "Received quantity updated successfully" {
				t.Fatalf("unexpected message: %v", body["message"])
			}
		})
	}
}

func TestListIngestionRunsHandler(t *testing.T) {
	env := newTestEnv()
	w, body := env.do(t, http.MethodGet, "/ingestion-runs?limit=5", nil, "")
	if w.Code != http.StatusOK || body["count"] != float64(1) || env.svc.lastLimit != 5 {
		t.Fatalf("unexpected response: %d %v limit=%d", w.Code, body, env.svc.lastLimit)
	}
}
