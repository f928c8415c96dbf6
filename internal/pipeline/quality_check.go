package pipeline

import (
	"context"
	"fmt"
	"strings"

	"pipewise/internal/heuristic"
	"pipewise/internal/llm"
	"pipewise/internal/types"
	"pipewise/internal/util/jsonutil"
)

const promptQualityCheck = `You are a data quality expert. Given the table
schema in the input, suggest practical data quality checks.

Return STRICT JSON ONLY: an array of checks:
[
  {
    "column":      "string",  // column the check applies to
    "check_type":  "string",  // one of: null_check, range_check, uniqueness_check, type_check, freshness_check
    "severity":    "string",  // one of: critical, high, medium, low
    "description": "string",  // what to check and why
    "code":        "string"   // a one-line Python assertion implementing it
  }
]

Rules:
- Suggest at least one check per column.
- check_type and severity must use the listed values exactly.
- JSON only; no comments or surrounding prose.`

// QualityCheckStage elicits quality-check suggestions for a table schema.
// Out-of-enum entries are dropped downstream by the guardrail filter rather
// than failing the request.
type QualityCheckStage struct {
	LLM llm.Client
}

func (s *QualityCheckStage) Name() string       { return "quality_check" }
func (s *QualityCheckStage) Requires() []string { return []string{FieldTableName, FieldTableSchema} }
func (s *QualityCheckStage) Produces() []string { return []string{FieldChecks} }

type qualityCheckOut struct {
	Column      string `json:"column"`
	CheckType   string `json:"check_type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

func (s *QualityCheckStage) Run(ctx context.Context, c *Context) Result {
	table := c.String(FieldTableName)
	schema := schemaColumns(c)

	input := map[string]any{
		"table_name": table,
		"columns":    schema,
	}

	raw, err := s.LLM.Generate(ctx, promptQualityCheck, input)
	if err != nil {
		checks := heuristic.DefaultChecks(table, schema)
		return Degraded(map[string]any{FieldChecks: checks}, "model unavailable: "+err.Error())
	}

	var out []qualityCheckOut
	tier, perr := jsonutil.DecodeLoose(raw, &out)
	if perr != nil || len(out) == 0 {
		checks := heuristic.DefaultChecks(table, schema)
		return Degraded(map[string]any{FieldChecks: checks}, "heuristic default checks")
	}

	checks := make([]types.QualityCheck, 0, len(out))
	for i, qc := range out {
		checks = append(checks, types.QualityCheck{
			CheckID:     fmt.Sprintf("%s_check_%d", table, i+1),
			Column:      strings.TrimSpace(qc.Column),
			CheckType:   types.CheckType(strings.TrimSpace(qc.CheckType)),
			Severity:    types.Severity(strings.ToLower(strings.TrimSpace(qc.Severity))),
			Description: strings.TrimSpace(qc.Description),
			CodeSnippet: strings.TrimSpace(qc.Code),
		})
	}
	fields := map[string]any{FieldChecks: checks}
	if tier == jsonutil.TierStrict {
		return Success(fields)
	}
	return Degraded(fields, "checks extracted from surrounding prose")
}

func schemaColumns(c *Context) []types.Column {
	v, _ := c.Get(FieldTableSchema)
	cols, _ := v.([]types.Column)
	return cols
}
