package model

import "time"

// FailureStage names the pipeline stage at which a company failed.
type FailureStage string

const (
	StagePrimary     FailureStage = "primary"
	StageSecondary   FailureStage = "secondary"
	StagePersistence FailureStage = "persistence"
)

// Failure records why a single company ended in the FAILED state.
type Failure struct {
	TaxID string       `json:"tax_id"`
	Stage FailureStage `json:"stage"`
	Error string       `json:"error"`
}

// RunReport summarizes one collection run.
type RunReport struct {
	Requested int       `json:"requested"`
	Collected int       `json:"collected"`
	Skipped   int       `json:"skipped"` // rows dropped for missing tax id
	Failed    int       `json:"failed"`
	Degraded  int       `json:"degraded"` // stored without supplementary data
	Failures  []Failure `json:"failures,omitempty"`
}

// CollectionRun is the persisted audit row for one orchestrator run.
type CollectionRun struct {
	ID         string     `json:"id"`
	Industry   string     `json:"industry"`
	Location   string     `json:"location"`
	Report     *RunReport `json:"report,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// StoreStats holds aggregate counts over the persisted records.
type StoreStats struct {
	TotalRecords int            `json:"total_records"`
	BySource     map[string]int `json:"by_source"`
	TopProvinces map[string]int `json:"top_provinces"`
	TotalRuns    int            `json:"total_runs"`
}
