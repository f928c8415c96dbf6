package pipeline

import (
	"context"

	"pipewise/internal/types"
)

// Stage is one unit of the pipeline: it declares the context fields it needs
// and produces, builds a prompt from them, invokes the model, and returns new
// fields for the orchestrator to merge. Stages never mutate the context.
type Stage interface {
	Name() string
	Requires() []string
	Produces() []string
	Run(ctx context.Context, c *Context) Result
}

// Result is the tagged outcome of one stage.
type Result struct {
	Outcome types.Outcome
	Fields  map[string]any
	Reason  string
}

// Success marks fields as model-derived (strict parse).
func Success(fields map[string]any) Result {
	return Result{Outcome: types.OutcomeSuccess, Fields: fields}
}

// Degraded marks fields as fallback-derived: tolerant extraction or pure
// rule-based heuristics. Still valid, lower confidence.
func Degraded(fields map[string]any, reason string) Result {
	return Result{Outcome: types.OutcomeDegraded, Fields: fields, Reason: reason}
}

// Fatal halts the pipeline; no fields are merged.
func Fatal(reason string) Result {
	return Result{Outcome: types.OutcomeFatal, Reason: reason}
}
