package models

import "time"

// RunStatus is the lifecycle state of an import run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusError    RunStatus = "error"
)

// ImportSummary is the result of one import run.
type ImportSummary struct {
	ProcessedNow int `json:"processedNow"`
	TotalRows    int `json:"totalRows"`
}

// ImportRun tracks a single invocation of the incremental importer.
type ImportRun struct {
	ID         string         `json:"id"`
	Status     RunStatus      `json:"status"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
	Summary    *ImportSummary `json:"summary,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// NewImportRun creates a run record in the running state.
func NewImportRun(id string) *ImportRun {
	return &ImportRun{
		ID:        id,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}
