package models

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedQuery threads model output through sanitize, validate and execute.
// It is never stored.
type GeneratedQuery struct {
	Raw       string `json:"raw"`
	Sanitized string `json:"sanitized"`
	Validated bool   `json:"validated"`
}

// ResultSet is the ordered column list plus rows keyed by column name.
type ResultSet struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// IsEmpty reports whether the result set has no rows.
func (r *ResultSet) IsEmpty() bool {
	return r == nil || len(r.Rows) == 0
}

// PipelineState is a position in the question pipeline.
type PipelineState string

const (
	StateIdle              PipelineState = "idle"
	StateSchemaLoaded      PipelineState = "schema_loaded"
	StatePromptBuilt       PipelineState = "prompt_built"
	StateSQLGenerated      PipelineState = "sql_generated"
	StateSQLSanitized      PipelineState = "sql_sanitized"
	StateSQLValidated      PipelineState = "sql_validated"
	StateSQLExecuted       PipelineState = "sql_executed"
	StateAnswerSynthesized PipelineState = "answer_synthesized"
	StateDone              PipelineState = "done"
	StateFailed            PipelineState = "failed"
)

// Answer is the uniform result of one question. SQL, Results and Message
// are always populated as far as the pipeline got; failures never escape
// as errors.
type Answer struct {
	ID       uuid.UUID     `json:"id"`
	Question string        `json:"question"`
	SQL      string        `json:"sql"`
	Results  ResultSet     `json:"results"`
	Message  string        `json:"message"`
	Warnings []string      `json:"warnings,omitempty"`
	State    PipelineState `json:"state"`
	// Failure is the failure kind when State is StateFailed.
	Failure string        `json:"failure,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Failed reports whether the pipeline ended in the failed state.
func (a *Answer) Failed() bool {
	return a.State == StateFailed
}
