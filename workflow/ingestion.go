package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mmdatafocus/po_service/config"
	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/sirupsen/logrus"
)

type RunRecorder interface {
	CreateIngestionRun(ctx context.Context, run *models.IngestionRun) error
}

// PublishFunc matches config.PublishEvent.
type PublishFunc func(ctx context.Context, eventType string, correlationId string, payload interface{}) error

// Ingestor wraps one orchestrator call with run bookkeeping: an
// ingestion_runs row and a po.ingestion.completed event. Bookkeeping
// failures are logged and never change the returned report.
type Ingestor struct {
	orchestrator *Orchestrator
	runs         RunRecorder
	publish      PublishFunc
	logger       *logrus.Logger
}

// NewIngestor accepts nil runs and publish.
func NewIngestor(store Store, runs RunRecorder, publish PublishFunc, opts Options) *Ingestor {
	orchestrator := NewOrchestrator(store, opts)
	return &Ingestor{
		orchestrator: orchestrator,
		runs:         runs,
		publish:      publish,
		logger:       orchestrator.opts.Logger,
	}
}

func (i *Ingestor) Ingest(ctx context.Context, source string, items []LineItem, platformName string) (*Report, error) {
	platformName = strings.TrimSpace(platformName)
	if platformName == "" {
		platformName = i.orchestrator.opts.DefaultPlatform
	}

	report, err := i.orchestrator.ProcessPOData(ctx, items, platformName)
	if report == nil {
		return nil, err
	}

	run := &models.IngestionRun{
		RunId:        report.RunId,
		Source:       source,
		Platform:     platformName,
		Status:       models.IngestionRunStatus(err != nil, report.Stats.ProcessedPOs, report.Stats.FailedPOs),
		TotalItems:   report.Stats.TotalItems,
		TotalPOs:     report.Stats.TotalPOs,
		ProcessedPOs: report.Stats.ProcessedPOs,
		FailedPOs:    report.Stats.FailedPOs,
		DurationMs:   report.Stats.ProcessingTimeMs,
	}
	if len(report.Errors) > 0 {
		if raw, mErr := json.Marshal(report.Errors); mErr == nil {
			run.Errors = raw
		}
	}

	// bookkeeping outlives a cancelled request
	bgCtx := context.WithoutCancel(ctx)
	if i.runs != nil {
		if rErr := i.runs.CreateIngestionRun(bgCtx, run); rErr != nil {
			config.LogError(i.logger, "ingestion.go", "Ingest", "recording ingestion run", run.RunId, rErr)
		}
	}
	if i.publish != nil {
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		pErr := i.publish(bgCtx, models.EventIngestionCompleted, correlationId, models.POEvent{
			RunId:        run.RunId,
			Status:       run.Status,
			Platform:     run.Platform,
			TotalPOs:     run.TotalPOs,
			ProcessedPOs: run.ProcessedPOs,
			FailedPOs:    run.FailedPOs,
		})
		if pErr != nil && !errors.Is(pErr, context.Canceled) {
			config.LogError(i.logger, "ingestion.go", "Ingest", "publishing ingestion event", run.RunId, pErr)
		}
	}

	return report, err
}
