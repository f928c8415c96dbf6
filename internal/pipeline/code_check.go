package pipeline

import (
	"context"
	"strings"

	"pipewise/internal/heuristic"
	"pipewise/internal/llm"
	"pipewise/internal/types"
	"pipewise/internal/util/jsonutil"
)

const promptCodeCheck = `You are a code review expert for data pipelines.
Given the error type, the error log, and the DAG code in the input, identify
the root cause of the failure.

Return STRICT JSON ONLY:
{
  "root_cause": "string"  // what causes the error, which line(s) are problematic, and why
}

Rules:
- Be specific: name the call or line that fails when the code shows it.
- JSON only; no comments or surrounding prose.`

// CodeCheckStage derives the root cause from the classified error and the
// DAG code.
type CodeCheckStage struct {
	LLM llm.Client
}

func (s *CodeCheckStage) Name() string       { return "code_check" }
func (s *CodeCheckStage) Requires() []string { return []string{FieldErrorType, FieldDagCode} }
func (s *CodeCheckStage) Produces() []string { return []string{FieldRootCause} }

type codeCheckOut struct {
	RootCause string `json:"root_cause"`
}

func (s *CodeCheckStage) Run(ctx context.Context, c *Context) Result {
	input := map[string]any{
		"error_type": c.String(FieldErrorType),
		"error_log":  c.String(FieldErrorLog),
		"dag_code":   c.String(FieldDagCode),
	}

	raw, err := s.LLM.Generate(ctx, promptCodeCheck, input)
	if err != nil {
		cause := heuristic.FallbackRootCause(types.Classification{
			ErrorType: types.ErrorType(c.String(FieldErrorType)),
			Matched:   c.String(FieldErrorMatch),
		})
		return Degraded(map[string]any{FieldRootCause: cause}, "model unavailable: "+err.Error())
	}

	var out codeCheckOut
	tier, perr := jsonutil.DecodeLoose(raw, &out)
	if perr == nil && strings.TrimSpace(out.RootCause) != "" {
		fields := map[string]any{FieldRootCause: strings.TrimSpace(out.RootCause)}
		if tier == jsonutil.TierStrict {
			return Success(fields)
		}
		return Degraded(fields, "root cause extracted from surrounding prose")
	}

	// Free-form analysis is still a usable root cause; keep the prose.
	if cause := strings.TrimSpace(raw); cause != "" {
		return Degraded(map[string]any{FieldRootCause: cause}, "unstructured model output")
	}
	cause := heuristic.FallbackRootCause(types.Classification{
		ErrorType: types.ErrorType(c.String(FieldErrorType)),
		Matched:   c.String(FieldErrorMatch),
	})
	return Degraded(map[string]any{FieldRootCause: cause}, "heuristic root cause")
}
