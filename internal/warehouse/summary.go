package warehouse

import (
	"time"

	"salesdw/internal/logging"
)

// Status classifies the outcome of a single source row.
type Status string

const (
	// StatusLoaded marks a row persisted to the warehouse.
	StatusLoaded Status = "loaded"
	// StatusInvalid marks a row rejected by validation.
	StatusInvalid Status = "invalid"
	// StatusDuplicate marks a fact already present from an earlier run.
	StatusDuplicate Status = "duplicate"
	// StatusFailed marks a row rejected by the warehouse at insert time.
	StatusFailed Status = "failed"
)

// RowResult is the structured outcome of one source row.
type RowResult struct {
	SaleID string
	Status Status
	Reason string
}

// RunSummary aggregates the outcome of one pipeline run: per-table load
// counts and per-error-kind counts. It is returned by the pipeline entry
// point and persisted to the run history table.
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time

	// SourceRows is the number of transaction rows read from the sales file.
	SourceRows int

	// Loaded maps table name to rows inserted during this run.
	Loaded map[string]int

	ParseErrors       int
	ValidationErrors  int
	PersistenceErrors int
	DuplicateFacts    int

	// Failures holds the persistence failures, tagged with natural keys.
	Failures []RowResult
}

// NewRunSummary creates an empty summary stamped with the start time.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		StartedAt: time.Now().UTC(),
		Loaded:    make(map[string]int),
	}
}

// DimensionsLoaded sums the rows inserted across the four dimension tables.
func (s *RunSummary) DimensionsLoaded() int {
	return s.Loaded["dim_product"] + s.Loaded["dim_date"] +
		s.Loaded["dim_customer"] + s.Loaded["dim_region"]
}

// FactsLoaded reports the fact rows inserted during this run.
func (s *RunSummary) FactsLoaded() int {
	return s.Loaded["fact_sales"]
}

// Log emits the end-of-run summary.
func (s *RunSummary) Log() {
	logging.Info().
		Int("source_rows", s.SourceRows).
		Int("facts_loaded", s.FactsLoaded()).
		Int("dim_product", s.Loaded["dim_product"]).
		Int("dim_date", s.Loaded["dim_date"]).
		Int("dim_customer", s.Loaded["dim_customer"]).
		Int("dim_region", s.Loaded["dim_region"]).
		Int("parse_errors", s.ParseErrors).
		Int("validation_errors", s.ValidationErrors).
		Int("persistence_errors", s.PersistenceErrors).
		Int("duplicate_facts", s.DuplicateFacts).
		Dur("elapsed", s.FinishedAt.Sub(s.StartedAt)).
		Msg("Pipeline run complete")

	for _, f := range s.Failures {
		logging.Warn().Str("sale_id", f.SaleID).Str("reason", f.Reason).
			Msg("Row not loaded")
	}
}
