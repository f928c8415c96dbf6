package heuristic

import (
	"testing"

	"pipewise/internal/types"
)

const moduleNotFoundLog = `[2024-01-15 10:23:45] {taskinstance.py:1851} ERROR - Task failed with exception
Traceback (most recent call last):
  File "/opt/airflow/dags/etl_daily.py", line 42, in transform
    import pandas_profiling
ModuleNotFoundError: No module named 'pandas_profiling'`

func TestClassifyLog(t *testing.T) {
	cases := []struct {
		name string
		log  string
		want types.ErrorType
	}{
		{"module not found", moduleNotFoundLog, types.ErrModuleNotFound},
		{"permission", "PermissionError: [Errno 13] Permission denied: '/opt/airflow/data/out.csv'", types.ErrPermission},
		{"connection", "requests.exceptions.ConnectionError: HTTPConnectionPool(host='api.internal')", types.ErrConnection},
		{"file not found", "FileNotFoundError: [Errno 2] No such file or directory: '/tmp/input.csv'", types.ErrFileNotFound},
		{"syntax", "  File \"dag.py\", line 7\n    def broken(:\nSyntaxError: invalid syntax", types.ErrSyntax},
		{"unmatched", "task exited with return code 1", types.ErrUnknown},
		{"empty", "", types.ErrUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyLog(tc.log)
			if got.ErrorType != tc.want {
				t.Fatalf("error type: got=%s want=%s", got.ErrorType, tc.want)
			}
			if tc.want != types.ErrUnknown && got.Matched == "" {
				t.Fatal("matched line is empty for a known class")
			}
		})
	}
}

func TestClassifyLog_MatchesFirstLineInScanOrder(t *testing.T) {
	// Permission outranks ValueError when both appear on the same line.
	log := "ValueError handling failed: PermissionError: denied"
	got := ClassifyLog(log)
	if got.ErrorType != types.ErrPermission {
		t.Fatalf("error type: got=%s want=%s", got.ErrorType, types.ErrPermission)
	}
}

func TestClassifyLog_ExtractsComponent(t *testing.T) {
	got := ClassifyLog(moduleNotFoundLog)
	if got.Component != "/opt/airflow/dags/etl_daily.py" {
		t.Fatalf("component: got=%q", got.Component)
	}
}

func TestClassifyText(t *testing.T) {
	got := ClassifyText("Error Type: KeyError\nThe dict access fails.", "")
	if got.ErrorType != types.ErrKey {
		t.Fatalf("error type: got=%s want=%s", got.ErrorType, types.ErrKey)
	}

	// Prose mentioning a class without the label still classifies.
	got = ClassifyText("This looks like a TypeError in the transform step.", "")
	if got.ErrorType != types.ErrType {
		t.Fatalf("error type: got=%s want=%s", got.ErrorType, types.ErrType)
	}

	// Unusable prose falls back to the log.
	got = ClassifyText("I am not sure what happened.", moduleNotFoundLog)
	if got.ErrorType != types.ErrModuleNotFound {
		t.Fatalf("error type: got=%s want=%s", got.ErrorType, types.ErrModuleNotFound)
	}
}
