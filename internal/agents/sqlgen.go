package agents

import (
	"context"
	"log"

	"pipewise/internal/guardrail"
	"pipewise/internal/llm"
	"pipewise/internal/pipeline"
	"pipewise/internal/warehouse"
)

const promptSQLExplanation = `You are a data analyst. Explain in 2-3 plain
sentences what the SQL query in the input computes and what its result shows.
Answer in prose, no JSON, no code blocks.`

// SQLReport is the answer to one NL-to-SQL request. Results are only present
// when the generated statement passed validation and executed.
type SQLReport struct {
	Success     bool                 `json:"success"`
	Question    string               `json:"question"`
	SQL         string               `json:"sql,omitempty"`
	Results     *warehouse.ResultSet `json:"results,omitempty"`
	RowCount    int                  `json:"row_count"`
	Explanation string               `json:"explanation,omitempty"`
	Workflow    []string             `json:"agent_workflow"`
	Error       string               `json:"error,omitempty"`
}

// SQLGen answers natural-language questions against the warehouse.
type SQLGen struct {
	LLM   llm.Client
	Store *warehouse.Store
	Log   *log.Logger
}

// Ask generates, validates, and executes a query for the question. Every
// rejection path comes back as a report with Success=false and a reason
// instead of an error: a bad model answer is an expected outcome here.
func (s *SQLGen) Ask(ctx context.Context, question string) (*SQLReport, error) {
	report := &SQLReport{Question: question}

	schema, err := s.Store.SchemaAll(ctx)
	if err != nil {
		return nil, err
	}

	c := pipeline.NewContext(map[string]any{
		pipeline.FieldQuestion:    question,
		pipeline.FieldTableSchema: schema,
	})
	runner := pipeline.Runner{Log: s.Log}
	trail, err := runner.Run(ctx, []pipeline.Stage{&pipeline.SQLGenerationStage{LLM: s.LLM}}, c)
	report.Workflow = renderWorkflow(trail)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}

	candidate := c.String(pipeline.FieldSQL)
	vetted, err := guardrail.ValidateSQL(candidate, schema)
	if err != nil {
		report.SQL = candidate
		report.Error = "query rejected: " + err.Error()
		return report, nil
	}
	report.SQL = vetted.Statement

	rs, err := s.Store.Execute(ctx, vetted.Statement)
	if err != nil {
		report.Error = "execution failed: " + err.Error()
		return report, nil
	}
	report.Success = true
	report.Results = rs
	report.RowCount = len(rs.Rows)
	report.Explanation = s.explain(ctx, question, vetted.Statement, rs)
	return report, nil
}

// explain is best-effort: a gateway failure here degrades to an empty
// explanation rather than failing a query that already ran.
func (s *SQLGen) explain(ctx context.Context, question, stmt string, rs *warehouse.ResultSet) string {
	input := map[string]any{
		"question":  question,
		"sql":       stmt,
		"row_count": len(rs.Rows),
		"columns":   rs.Columns,
	}
	out, err := s.LLM.Generate(llm.WithPhase(ctx, "sql_explanation"), promptSQLExplanation, input)
	if err != nil {
		return ""
	}
	return out
}
