package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	IngestionRunStatusSuccess = "success"
	IngestionRunStatusPartial = "partial"
	IngestionRunStatusFailed  = "failed"
)

const (
	IngestionSourceApi    = "api"
	IngestionSourceUpload = "upload"
	IngestionSourceCli    = "cli"
)

type IngestionRun struct {
	ID           int            `gorm:"primary_key" json:"id"`
	RunId        string         `gorm:"size:36;uniqueIndex;not null" json:"run_id"`
	Source       string         `gorm:"size:20" json:"source"`
	Platform     string         `gorm:"size:255;index" json:"platform"`
	Status       string         `gorm:"size:20;not null" json:"status"`
	TotalItems   int            `json:"total_items"`
	TotalPOs     int            `gorm:"column:total_pos" json:"total_pos"`
	ProcessedPOs int            `gorm:"column:processed_pos" json:"processed_pos"`
	FailedPOs    int            `gorm:"column:failed_pos" json:"failed_pos"`
	DurationMs   int64          `json:"duration_ms"`
	Errors       datatypes.JSON `json:"errors"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (IngestionRun) TableName() string {
	return "ingestion_runs"
}

// IngestionRunStatus maps run counters to a status. fatal marks a run that
// aborted before any group was attempted.
func IngestionRunStatus(fatal bool, processed, failed int) string {
	switch {
	case fatal:
		return IngestionRunStatusFailed
	case failed == 0:
		return IngestionRunStatusSuccess
	case processed == 0:
		return IngestionRunStatusFailed
	default:
		return IngestionRunStatusPartial
	}
}
