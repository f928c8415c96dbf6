package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pipewise/internal/llm"
	"pipewise/internal/pipeline"
	"pipewise/internal/types"
)

// DebugReport is the full answer to one failure-diagnosis request.
type DebugReport struct {
	Success       bool            `json:"success"`
	ErrorType     string          `json:"error_type"`
	Diagnosis     types.Diagnosis `json:"diagnosis"`
	Solution      types.Solution  `json:"solution"`
	Prevention    string          `json:"prevention"`
	AgentWorkflow []string        `json:"agent_workflow"`
	Error         string          `json:"error,omitempty"`
}

// Debugger runs the three diagnosis stages over a failing task's log and
// DAG code.
type Debugger struct {
	LLM llm.Client
	Log *log.Logger
}

func (d *Debugger) stages() []pipeline.Stage {
	return []pipeline.Stage{
		&pipeline.LogAnalysisStage{LLM: d.LLM},
		&pipeline.CodeCheckStage{LLM: d.LLM},
		&pipeline.SolutionStage{LLM: d.LLM},
	}
}

// Debug diagnoses one failure. A fatal stage yields a report with
// Success=false and the workflow up to the halt; the error is also returned
// so callers can distinguish contract faults from runtime failures.
func (d *Debugger) Debug(ctx context.Context, errorLog, dagCode string) (*DebugReport, error) {
	c := pipeline.NewContext(map[string]any{
		pipeline.FieldErrorLog: errorLog,
		pipeline.FieldDagCode:  dagCode,
	})

	runner := pipeline.Runner{Log: d.Log}
	trail, err := runner.Run(ctx, d.stages(), c)

	report := &DebugReport{
		Success:       err == nil,
		AgentWorkflow: renderWorkflow(trail),
	}
	fillDebugReport(report, c)
	if err != nil {
		// The partial report covers everything up to the halt; the error
		// tells the caller whether this was a runtime failure or a
		// misconfigured stage order.
		report.Error = err.Error()
	}
	return report, err
}

func fillDebugReport(r *DebugReport, c *pipeline.Context) {
	r.ErrorType = c.String(pipeline.FieldErrorType)
	r.Diagnosis = types.Diagnosis{
		ErrorType: r.ErrorType,
		RootCause: c.String(pipeline.FieldRootCause),
	}
	if v, ok := c.Get(pipeline.FieldSolution); ok {
		if sol, ok := v.(types.Solution); ok {
			r.Solution = sol
		}
	}
	r.Prevention = c.String(pipeline.FieldPrevention)
}

// renderWorkflow turns the trail into the human-readable agent_workflow
// lines: one numbered line per stage with outcome and duration, plus the
// degradation reason when there is one.
func renderWorkflow(trail types.Trail) []string {
	lines := make([]string, 0, len(trail))
	for i, e := range trail {
		line := fmt.Sprintf("%d. %s: %s (%dms)", i+1, e.Stage, e.Outcome, e.Duration.Milliseconds())
		if e.Reason != "" && e.Outcome != types.OutcomeSuccess {
			line += " - " + strings.TrimSpace(e.Reason)
		}
		lines = append(lines, line)
	}
	return lines
}
