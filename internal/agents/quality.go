package agents

import (
	"context"
	"log"

	"pipewise/internal/guardrail"
	"pipewise/internal/llm"
	"pipewise/internal/pipeline"
	"pipewise/internal/types"
	"pipewise/internal/warehouse"
)

// QualityReport is the answer to one check-suggestion request.
type QualityReport struct {
	Success    bool                 `json:"success"`
	TableName  string               `json:"table_name"`
	Checks     []types.QualityCheck `json:"checks"`
	CheckCount int                  `json:"check_count"`
	Workflow   []string             `json:"agent_workflow"`
	Error      string               `json:"error,omitempty"`
}

// Quality suggests data quality checks for warehouse tables.
type Quality struct {
	LLM   llm.Client
	Store *warehouse.Store
	Log   *log.Logger
}

// Suggest proposes checks for a table. Model output is filtered through the
// guardrail before it reaches the caller, so the report only ever carries
// checks from the enumerated type and severity sets.
func (q *Quality) Suggest(ctx context.Context, table string) (*QualityReport, error) {
	report := &QualityReport{TableName: table}

	schema, err := q.Store.Schema(ctx, table)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}

	c := pipeline.NewContext(map[string]any{
		pipeline.FieldTableName:   table,
		pipeline.FieldTableSchema: schema,
	})
	runner := pipeline.Runner{Log: q.Log}
	trail, err := runner.Run(ctx, []pipeline.Stage{&pipeline.QualityCheckStage{LLM: q.LLM}}, c)
	report.Workflow = renderWorkflow(trail)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}

	raw, _ := c.Get(pipeline.FieldChecks)
	checks, _ := raw.([]types.QualityCheck)
	report.Checks = guardrail.FilterChecks(checks)
	report.CheckCount = len(report.Checks)
	report.Success = report.CheckCount > 0
	if !report.Success {
		report.Error = "no valid checks after filtering"
	}
	return report, nil
}
