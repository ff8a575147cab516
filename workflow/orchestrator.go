package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/po_service/config"
	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	MessageAllProcessed = "All POs processed successfully"
	MessageSomeFailed   = "Some POs had errors"
	MessageRunFailed    = "Failed to process PO data"

	ingestLockTTL = 10 * time.Minute
)

var tracer = otel.Tracer("po-service")

type GroupResult struct {
	PoNumber      string                `json:"poNumber"`
	Platform      *models.Platform      `json:"platform"`
	Vendor        *models.Vendor        `json:"vendor"`
	PurchaseOrder *models.PurchaseOrder `json:"purchaseOrder"`
	OrderItems    []*models.OrderItem   `json:"orderItems"`
}

type Stats struct {
	TotalItems       int   `json:"totalItems"`
	TotalPOs         int   `json:"totalPOs"`
	ProcessedPOs     int   `json:"processedPOs"`
	FailedPOs        int   `json:"failedPOs"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

type Report struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	RunId   string         `json:"runId,omitempty"`
	Data    []*GroupResult `json:"data"`
	Errors  []string       `json:"errors,omitempty"`
	Stats   Stats          `json:"stats"`
}

type Options struct {
	// BatchWidth bounds how many PO groups are in flight at once.
	BatchWidth int
	// BatchDelay is slept between consecutive batches.
	BatchDelay time.Duration
	// LockWait bounds how long a run waits for another run of the same platform.
	LockWait        time.Duration
	DefaultPlatform string
	Logger          *logrus.Logger
}

// DefaultOptions reads the batch settings from the environment.
func DefaultOptions() Options {
	return Options{
		BatchWidth:      config.IngestBatchWidth(),
		BatchDelay:      config.IngestBatchDelay(),
		LockWait:        config.IngestLockWait(),
		DefaultPlatform: config.DefaultPlatformName(),
		Logger:          config.GetLogger(),
	}
}

type Orchestrator struct {
	store Store
	opts  Options
	now   func() time.Time
}

func NewOrchestrator(store Store, opts Options) *Orchestrator {
	if opts.BatchWidth <= 0 {
		opts.BatchWidth = 10
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	if opts.LockWait < 0 {
		opts.LockWait = 0
	}
	if strings.TrimSpace(opts.DefaultPlatform) == "" {
		opts.DefaultPlatform = config.DefaultPlatformName()
	}
	if opts.Logger == nil {
		opts.Logger = config.GetLogger()
	}
	return &Orchestrator{store: store, opts: opts, now: time.Now}
}

// ProcessPOData groups items by PO number and materializes every group.
//
// Validation errors (wrapping models.ErrInvalidInput) are returned before any
// store call. While another run of the same platform holds the ingestion
// lock past Options.LockWait, utils.ErrIngestBusy is returned with no report
// and nothing written. A platform resolution failure aborts the run: the report is
// returned together with the error. Any other failure is confined to its
// group and listed in Report.Errors.
func (o *Orchestrator) ProcessPOData(ctx context.Context, items []LineItem, platformName string) (*Report, error) {
	started := o.now()

	groups, err := GroupByPONumber(items)
	if err != nil {
		return nil, err
	}

	platformName = strings.TrimSpace(platformName)
	if platformName == "" {
		platformName = o.opts.DefaultPlatform
	}

	runId, ok := utils.GetRunIdFromContext(ctx)
	if !ok || runId == "" {
		runId = uuid.NewString()
		ctx = utils.SetRunIdInContext(ctx, runId)
	}

	ctx, span := tracer.Start(ctx, "ProcessPOData", trace.WithAttributes(
		attribute.String("run_id", runId),
		attribute.String("platform", platformName),
		attribute.Int("items", len(items)),
		attribute.Int("po_groups", len(groups)),
	))
	defer span.End()

	logger := o.opts.Logger.WithFields(logrus.Fields{
		"field":    "ProcessPOData",
		"run_id":   runId,
		"platform": platformName,
	})
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		logger = logger.WithField("correlation_id", correlationId)
	}

	release, err := utils.IngestLock(ctx, platformName, ingestLockTTL, o.opts.LockWait)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingest lock not obtained")
		logger.WithError(err).Warn("ingestion rejected: platform lock busy")
		return nil, err
	}
	defer release()

	report := &Report{
		RunId: runId,
		Data:  make([]*GroupResult, 0, len(groups)),
		Stats: Stats{
			TotalItems: len(items),
			TotalPOs:   len(groups),
		},
	}

	resolver := NewReferenceResolver(o.store, started)
	upserter := NewPOUpserter(o.store)

	platform, err := resolver.ResolvePlatform(ctx, platformName)
	if err != nil {
		report.Message = MessageRunFailed
		report.Errors = []string{err.Error()}
		report.Stats.ProcessingTimeMs = o.now().Sub(started).Milliseconds()
		span.RecordError(err)
		span.SetStatus(codes.Error, "platform resolution failed")
		logger.WithError(err).Error("ingestion aborted: platform resolution failed")
		observeRun(report, true)
		return report, err
	}

	var mu sync.Mutex
	for start := 0; start < len(groups); start += o.opts.BatchWidth {
		if start > 0 && o.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.opts.BatchDelay):
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			for _, group := range groups[start:] {
				report.Errors = append(report.Errors, groupErrorMessage(group.PoNumber, ctxErr))
				report.Stats.FailedPOs++
			}
			logger.WithError(ctxErr).Warnf("ingestion cancelled with %d PO groups left", len(groups)-start)
			break
		}

		end := min(start+o.opts.BatchWidth, len(groups))
		var g errgroup.Group
		for _, group := range groups[start:end] {
			g.Go(func() error {
				res, err := o.processGroup(ctx, resolver, upserter, platform, group)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.Errors = append(report.Errors, groupErrorMessage(group.PoNumber, err))
					report.Stats.FailedPOs++
					logger.WithField("po_number", group.PoNumber).WithError(err).Warn("PO group failed")
					return nil
				}
				report.Data = append(report.Data, res)
				report.Stats.ProcessedPOs++
				return nil
			})
		}
		_ = g.Wait()

		logger.WithFields(logrus.Fields{
			"batch_start": start,
			"batch_end":   end,
			"processed":   report.Stats.ProcessedPOs,
			"failed":      report.Stats.FailedPOs,
		}).Debug("batch done")
	}

	report.Success = len(report.Errors) == 0
	if report.Success {
		report.Message = MessageAllProcessed
	} else {
		report.Message = MessageSomeFailed
		span.SetStatus(codes.Error, MessageSomeFailed)
	}
	report.Stats.ProcessingTimeMs = o.now().Sub(started).Milliseconds()
	span.SetAttributes(
		attribute.Int("processed_pos", report.Stats.ProcessedPOs),
		attribute.Int("failed_pos", report.Stats.FailedPOs),
	)

	logger.WithFields(logrus.Fields{
		"total_items":   report.Stats.TotalItems,
		"total_pos":     report.Stats.TotalPOs,
		"processed_pos": report.Stats.ProcessedPOs,
		"failed_pos":    report.Stats.FailedPOs,
		"duration_ms":   report.Stats.ProcessingTimeMs,
	}).Info("ingestion finished")
	observeRun(report, false)

	return report, nil
}

func groupErrorMessage(poNumber string, err error) string {
	return fmt.Sprintf("Error processing PO %s: %s", poNumber, err.Error())
}

// processGroup runs vendor -> SKUs -> PO -> order items for one PO number.
// Rows written before a failing step stay written.
func (o *Orchestrator) processGroup(
	ctx context.Context,
	resolver *ReferenceResolver,
	upserter *POUpserter,
	platform *models.Platform,
	group POGroup,
) (result *GroupResult, err error) {
	ctx, span := tracer.Start(ctx, "processGroup", trace.WithAttributes(
		attribute.String("po_number", group.PoNumber),
		attribute.Int("items", len(group.Items)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	first := group.Items[0]
	vendor, err := resolver.ResolveVendor(ctx, first.VendorName, first.City, platform.ID)
	if err != nil {
		return nil, err
	}

	skus := make(map[string]*models.LandingRate, len(group.Items))
	for _, item := range group.Items {
		if _, ok := skus[item.SKUId]; ok {
			continue
		}
		sku, err := resolver.ResolveSku(ctx, platform.ID, item.SKUId, item.ProductName)
		if err != nil {
			return nil, err
		}
		skus[item.SKUId] = sku
	}

	// already validated by GroupByPONumber
	createdDate, _ := utils.ParseISODate(first.POCreatedDate)
	po, err := upserter.UpsertPurchaseOrder(ctx, PurchaseOrderInput{
		PoNumber:    group.PoNumber,
		VendorId:    vendor.ID,
		PlatformId:  platform.ID,
		City:        first.City,
		CreatedDate: createdDate,
	})
	if err != nil {
		return nil, err
	}
	defer o.store.InvalidatePurchaseOrder(ctx, group.PoNumber)

	orderItems := make([]*models.OrderItem, 0, len(group.Items))
	for _, item := range group.Items {
		orderItem, err := upserter.UpsertOrderItem(ctx, po.ID, item.SKUId, decimal.NewFromFloat(*item.OrderedQty))
		if err != nil {
			return nil, err
		}
		orderItem.LandingRate = skus[item.SKUId]
		orderItems = append(orderItems, orderItem)
	}

	return &GroupResult{
		PoNumber:      group.PoNumber,
		Platform:      platform,
		Vendor:        vendor,
		PurchaseOrder: po,
		OrderItems:    orderItems,
	}, nil
}
