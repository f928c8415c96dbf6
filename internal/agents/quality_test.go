package agents

import (
	"context"
	"encoding/json"
	"testing"

	"pipewise/internal/llm"
	"pipewise/internal/types"
)

func TestQuality_Suggest(t *testing.T) {
	q := &Quality{LLM: llm.NewFakeClient(), Store: testStore(t), Log: quietLogger()}

	report, err := q.Suggest(context.Background(), "analytics_events_daily")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if !report.Success {
		t.Fatalf("report failed: %+v", report)
	}
	if report.CheckCount != len(report.Checks) || report.CheckCount == 0 {
		t.Fatalf("check count: %+v", report)
	}
	for _, c := range report.Checks {
		if !types.ValidCheckType(c.CheckType) || !types.ValidSeverity(c.Severity) {
			t.Fatalf("invalid check leaked through: %+v", c)
		}
	}
}

func TestQuality_UnknownTable(t *testing.T) {
	q := &Quality{LLM: llm.NewFakeClient(), Store: testStore(t), Log: quietLogger()}

	report, err := q.Suggest(context.Background(), "no_such_table")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if report.Success || report.Error == "" {
		t.Fatalf("missing table not reported: %+v", report)
	}
}

// noisyChecksClient mixes valid, invalid, and duplicate checks.
type noisyChecksClient struct{}

func (n *noisyChecksClient) Name() string { return "noisy" }
func (n *noisyChecksClient) Close() error { return nil }

func (n *noisyChecksClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	checks := []map[string]string{
		{"column": "city", "check_type": "null_check", "severity": "high", "description": "keep"},
		{"column": "city", "check_type": "regex_check", "severity": "high", "description": "invalid type"},
		{"column": "city", "check_type": "null_check", "severity": "low", "description": "duplicate"},
		{"column": "event_count", "check_type": "range_check", "severity": "extreme", "description": "invalid severity"},
	}
	b, _ := json.Marshal(checks)
	return string(b), nil
}

func TestQuality_FiltersModelOutput(t *testing.T) {
	q := &Quality{LLM: &noisyChecksClient{}, Store: testStore(t), Log: quietLogger()}

	report, err := q.Suggest(context.Background(), "analytics_events_daily")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if report.CheckCount != 1 {
		t.Fatalf("check count: got=%d want=1 (%+v)", report.CheckCount, report.Checks)
	}
	if report.Checks[0].Description != "keep" {
		t.Fatalf("wrong check survived: %+v", report.Checks[0])
	}
}
