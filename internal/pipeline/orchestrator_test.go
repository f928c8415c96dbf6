package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"pipewise/internal/llm"
	"pipewise/internal/types"
)

// cannedClient returns fixed completions per phase; absent phases error with
// a gateway failure, like an unreachable backend.
type cannedClient struct {
	byPhase map[string]string
}

func (c *cannedClient) Name() string { return "canned" }
func (c *cannedClient) Close() error { return nil }

func (c *cannedClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	if out, ok := c.byPhase[llm.PhaseFrom(ctx)]; ok {
		return out, nil
	}
	return "", llm.NewGatewayError(errors.New("backend down"))
}

func quietRunner() *Runner {
	return &Runner{Log: log.New(io.Discard, "", 0)}
}

func debugStages(cli llm.Client) []Stage {
	return []Stage{
		&LogAnalysisStage{LLM: cli},
		&CodeCheckStage{LLM: cli},
		&SolutionStage{LLM: cli},
	}
}

const testErrorLog = `Traceback (most recent call last):
  File "/opt/airflow/dags/etl.py", line 12, in load
    import pandas_profiling
ModuleNotFoundError: No module named 'pandas_profiling'`

func TestRun_AllStagesSucceed(t *testing.T) {
	cli := &cannedClient{byPhase: map[string]string{
		"log_analysis": `{"error_type":"ModuleNotFoundError","error_message":"No module named 'pandas_profiling'","component":"etl.py"}`,
		"code_check":   `{"root_cause":"line 12 imports pandas_profiling, which is not installed"}`,
		"solution":     `{"steps":"1. Install it.","commands":["pip install pandas_profiling"],"explanation":"missing dep","prevention":"pin deps"}`,
	}}
	c := NewContext(map[string]any{
		FieldErrorLog: testErrorLog,
		FieldDagCode:  "import pandas_profiling",
	})

	trail, err := quietRunner().Run(context.Background(), debugStages(cli), c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("trail length: got=%d want=3", len(trail))
	}
	for _, e := range trail {
		if e.Outcome != types.OutcomeSuccess {
			t.Fatalf("stage %s: got=%s want=success (%s)", e.Stage, e.Outcome, e.Reason)
		}
	}
	if got := c.String(FieldErrorType); got != "ModuleNotFoundError" {
		t.Fatalf("error_type: got=%s", got)
	}
	sol, _ := c.Get(FieldSolution)
	if sol.(types.Solution).Commands[0] != "pip install pandas_profiling" {
		t.Fatalf("solution: got=%+v", sol)
	}
}

func TestRun_DegradesWhenBackendDown(t *testing.T) {
	// Every Generate call fails; the heuristics must carry the whole run.
	cli := &cannedClient{}
	c := NewContext(map[string]any{
		FieldErrorLog: testErrorLog,
		FieldDagCode:  "import pandas_profiling",
	})

	trail, err := quietRunner().Run(context.Background(), debugStages(cli), c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("trail length: got=%d want=3", len(trail))
	}
	for _, e := range trail {
		if e.Outcome != types.OutcomeDegraded {
			t.Fatalf("stage %s: got=%s want=degraded", e.Stage, e.Outcome)
		}
		if !strings.Contains(e.Reason, "model unavailable") {
			t.Fatalf("stage %s: reason=%q", e.Stage, e.Reason)
		}
	}
	if got := c.String(FieldErrorType); got != "ModuleNotFoundError" {
		t.Fatalf("error_type: got=%s", got)
	}
	sol, _ := c.Get(FieldSolution)
	cmds := sol.(types.Solution).Commands
	if len(cmds) == 0 {
		t.Fatal("fallback solution has no commands")
	}
	if cmds[0] != "pip install pandas_profiling" {
		t.Fatalf("playbook command: got=%q", cmds[0])
	}
}

func TestRun_ContractErrorOnMissingDependency(t *testing.T) {
	cli := &cannedClient{}
	// code_check scheduled first: error_type is not in the context yet.
	stages := []Stage{&CodeCheckStage{LLM: cli}}
	c := NewContext(map[string]any{FieldErrorLog: testErrorLog})

	trail, err := quietRunner().Run(context.Background(), stages, c)
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("err: got=%v want ContractError", err)
	}
	if ce.Stage != "code_check" {
		t.Fatalf("stage: got=%s", ce.Stage)
	}
	if len(ce.Missing) != 2 || ce.Missing[0] != "dag_code" || ce.Missing[1] != "error_type" {
		t.Fatalf("missing: got=%v", ce.Missing)
	}
	if len(trail) != 0 {
		t.Fatalf("trail: got=%d entries, stage must not run", len(trail))
	}
}

// doubleWriter produces a field that already exists in the context.
type doubleWriter struct{}

func (d *doubleWriter) Name() string       { return "double_writer" }
func (d *doubleWriter) Requires() []string { return nil }
func (d *doubleWriter) Produces() []string { return []string{FieldErrorLog} }
func (d *doubleWriter) Run(ctx context.Context, c *Context) Result {
	return Success(map[string]any{FieldErrorLog: "overwritten"})
}

func TestRun_ContractErrorOnDoubleWrite(t *testing.T) {
	c := NewContext(map[string]any{FieldErrorLog: "original"})
	_, err := quietRunner().Run(context.Background(), []Stage{&doubleWriter{}}, c)
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("err: got=%v want ContractError", err)
	}
	if got := c.String(FieldErrorLog); got != "original" {
		t.Fatalf("field overwritten: got=%q", got)
	}
}

func TestRun_FatalHaltsWithPartialTrail(t *testing.T) {
	cli := &cannedClient{} // sql_generation errors, and it has no fallback
	c := NewContext(map[string]any{
		FieldQuestion:    "how many events per city?",
		FieldTableSchema: map[string][]types.Column{},
	})

	trail, err := quietRunner().Run(context.Background(), []Stage{&SQLGenerationStage{LLM: cli}}, c)
	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err: got=%v want PipelineError", err)
	}
	if pe.Stage != "sql_generation" {
		t.Fatalf("stage: got=%s", pe.Stage)
	}
	if len(trail) != 1 || trail[0].Outcome != types.OutcomeFatal {
		t.Fatalf("trail: got=%+v", trail)
	}
	if _, ok := c.Get(FieldSQL); ok {
		t.Fatal("fatal stage must not write fields")
	}
}

func TestQualityCheckStage_FallsBackToDefaults(t *testing.T) {
	cli := &cannedClient{byPhase: map[string]string{
		"quality_check": "I cannot help with that.",
	}}
	c := NewContext(map[string]any{
		FieldTableName: "events",
		FieldTableSchema: []types.Column{
			{Name: "id", Type: "BIGINT"},
			{Name: "city", Type: "VARCHAR"},
		},
	})

	trail, err := quietRunner().Run(context.Background(), []Stage{&QualityCheckStage{LLM: cli}}, c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if trail[0].Outcome != types.OutcomeDegraded {
		t.Fatalf("outcome: got=%s want=degraded", trail[0].Outcome)
	}
	raw, _ := c.Get(FieldChecks)
	checks := raw.([]types.QualityCheck)
	if len(checks) == 0 {
		t.Fatal("no default checks produced")
	}
	for _, qc := range checks {
		if !strings.HasPrefix(qc.CheckID, "events_check_") {
			t.Fatalf("check id: got=%q", qc.CheckID)
		}
	}
}
