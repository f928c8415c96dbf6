package agents

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"pipewise/internal/llm"
	"pipewise/internal/warehouse"
)

func testStore(t *testing.T) *warehouse.Store {
	t.Helper()
	store, err := warehouse.Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestSQLGen_EndToEnd(t *testing.T) {
	gen := &SQLGen{LLM: llm.NewFakeClient(), Store: testStore(t), Log: quietLogger()}

	report, err := gen.Ask(context.Background(), "average value per city?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !report.Success {
		t.Fatalf("report failed: %+v", report)
	}
	if !strings.HasPrefix(report.SQL, "SELECT") {
		t.Fatalf("sql: got=%q", report.SQL)
	}
	if report.RowCount == 0 || report.Results == nil {
		t.Fatalf("no rows: %+v", report)
	}
	if report.Explanation == "" {
		t.Fatal("empty explanation")
	}
}

// sqlClient answers the generation phase with a fixed statement.
type sqlClient struct {
	sql string
}

func (s *sqlClient) Name() string { return "sql-stub" }
func (s *sqlClient) Close() error { return nil }

func (s *sqlClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	if llm.PhaseFrom(ctx) == "sql_explanation" {
		return "explanation text", nil
	}
	b, _ := json.Marshal(map[string]string{"sql": s.sql})
	return string(b), nil
}

func TestSQLGen_RejectsWriteStatement(t *testing.T) {
	gen := &SQLGen{
		LLM:   &sqlClient{sql: "DROP TABLE analytics_events_daily"},
		Store: testStore(t),
		Log:   quietLogger(),
	}

	report, err := gen.Ask(context.Background(), "drop everything")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if report.Success {
		t.Fatal("write statement accepted")
	}
	if !strings.Contains(report.Error, "query rejected") {
		t.Fatalf("error: got=%q", report.Error)
	}
	if report.Results != nil {
		t.Fatal("rejected query must not execute")
	}

	// The table must still be there.
	tables, err := gen.Store.Tables(context.Background())
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	if len(tables) != 1 || tables[0] != "analytics_events_daily" {
		t.Fatalf("tables: got=%v", tables)
	}
}

func TestSQLGen_RejectsUnknownColumn(t *testing.T) {
	gen := &SQLGen{
		LLM:   &sqlClient{sql: "SELECT password FROM analytics_events_daily"},
		Store: testStore(t),
		Log:   quietLogger(),
	}

	report, err := gen.Ask(context.Background(), "show passwords")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if report.Success {
		t.Fatal("unknown column accepted")
	}
	if !strings.Contains(report.Error, "unknown column") {
		t.Fatalf("error: got=%q", report.Error)
	}
}
