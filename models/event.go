package models

const (
	EventIngestionCompleted = "po.ingestion.completed"
	EventStatusUpdated      = "po.status.updated"
)

// POEvent is the payload of every published PO event.
type POEvent struct {
	PoNumber     string `json:"po_number,omitempty"`
	RunId        string `json:"run_id,omitempty"`
	Status       string `json:"status,omitempty"`
	Platform     string `json:"platform,omitempty"`
	TotalPOs     int    `json:"total_pos,omitempty"`
	ProcessedPOs int    `json:"processed_pos,omitempty"`
	FailedPOs    int    `json:"failed_pos,omitempty"`
}
