package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns deterministic, minimal JSON payloads per phase for
// offline runs and tests.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	phase := PhaseFrom(ctx)
	var obj any
	switch phase {
	case "log_analysis":
		obj = map[string]any{
			"error_type":    "UnknownError",
			"error_message": "fake log analysis output",
			"component":     "",
		}
	case "code_check":
		obj = map[string]any{
			"root_cause": "fake root cause: the failing call could not be attributed to a specific line",
		}
	case "solution":
		obj = map[string]any{
			"steps":       "1. Inspect the failing task.\n2. Apply the fix below.",
			"commands":    []string{"echo inspect the task logs"},
			"explanation": "fake solution output",
			"prevention":  "add a pre-deployment check",
		}
	case "sql_generation":
		obj = map[string]any{
			"sql": "SELECT city, avg_value FROM analytics_events_daily LIMIT 10",
		}
	case "sql_explanation":
		return "This query lists cities with their average values.", nil
	case "quality_check":
		obj = []map[string]any{
			{
				"column":      "event_count",
				"check_type":  "null_check",
				"severity":    "high",
				"description": "event_count must not be null",
				"code":        "assert df['event_count'].notnull().all()",
			},
		}
	default:
		obj = map[string]any{}
	}
	b, _ := json.Marshal(obj)
	return string(b), nil
}
