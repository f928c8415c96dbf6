package heuristic

import (
	"strings"
	"testing"

	"pipewise/internal/types"
)

func TestParseSolutionText_Sectioned(t *testing.T) {
	text := `SOLUTION:
1. Install the missing package.
2. Restart the scheduler.

COMMANDS:
- pip install pandas_profiling
- ` + "`airflow scheduler restart`" + `

EXPLANATION:
The import fails at parse time.

PREVENTION:
Pin dependencies in requirements.txt.`

	sol, prevention := ParseSolutionText(text)
	if !strings.Contains(sol.Steps, "Install the missing package") {
		t.Fatalf("steps: got=%q", sol.Steps)
	}
	if len(sol.Commands) != 2 {
		t.Fatalf("commands: got=%v", sol.Commands)
	}
	if sol.Commands[0] != "pip install pandas_profiling" {
		t.Fatalf("command[0]: got=%q", sol.Commands[0])
	}
	if sol.Commands[1] != "airflow scheduler restart" {
		t.Fatalf("command[1]: got=%q (backticks not stripped)", sol.Commands[1])
	}
	if !strings.Contains(sol.Explanation, "parse time") {
		t.Fatalf("explanation: got=%q", sol.Explanation)
	}
	if !strings.Contains(prevention, "requirements.txt") {
		t.Fatalf("prevention: got=%q", prevention)
	}
}

func TestParseSolutionText_Unsectioned(t *testing.T) {
	text := "Just reinstall the package and retry the task."
	sol, prevention := ParseSolutionText(text)
	if sol.Steps != text {
		t.Fatalf("steps: got=%q want the whole text", sol.Steps)
	}
	if len(sol.Commands) != 0 || prevention != "" {
		t.Fatalf("commands=%v prevention=%q, want empty", sol.Commands, prevention)
	}
}

func TestFallbackSolution_CommandsNeverEmpty(t *testing.T) {
	all := append([]types.ErrorType{types.ErrUnknown}, types.KnownErrorTypes...)
	for _, et := range all {
		sol, prevention := FallbackSolution(et, "")
		if len(sol.Commands) == 0 {
			t.Fatalf("%s: no commands", et)
		}
		if sol.Steps == "" || sol.Explanation == "" || prevention == "" {
			t.Fatalf("%s: incomplete solution: %+v / %q", et, sol, prevention)
		}
	}
}

func TestFallbackSolution_UsesLogDetails(t *testing.T) {
	sol, _ := FallbackSolution(types.ErrModuleNotFound,
		"ModuleNotFoundError: No module named 'pandas_profiling'")
	if sol.Commands[0] != "pip install pandas_profiling" {
		t.Fatalf("command: got=%q", sol.Commands[0])
	}

	sol, _ = FallbackSolution(types.ErrPermission,
		"PermissionError: [Errno 13] Permission denied: '/opt/airflow/data/out.csv'")
	joined := strings.Join(sol.Commands, "\n")
	if !strings.Contains(joined, "/opt/airflow/data/out.csv") {
		t.Fatalf("commands missing denied path: %v", sol.Commands)
	}
	if !strings.Contains(joined, "chown -R airflow:airflow /opt/airflow/data") {
		t.Fatalf("chown should target the parent dir: %v", sol.Commands)
	}
}

func TestFallbackRootCause(t *testing.T) {
	got := FallbackRootCause(types.Classification{ErrorType: types.ErrUnknown})
	if !strings.Contains(got, "Unable to determine") {
		t.Fatalf("unknown: got=%q", got)
	}
	got = FallbackRootCause(types.Classification{
		ErrorType: types.ErrKey,
		Matched:   "KeyError: 'user_id'",
		Component: "/opt/airflow/dags/etl.py",
	})
	if !strings.Contains(got, "KeyError") || !strings.Contains(got, "/opt/airflow/dags/etl.py") {
		t.Fatalf("known: got=%q", got)
	}
}
