package guardrail

import (
	"strings"
	"testing"

	"pipewise/internal/types"
)

func testSchema() map[string][]types.Column {
	return map[string][]types.Column{
		"analytics_events_daily": {
			{Name: "event_date", Type: "DATE"},
			{Name: "city", Type: "VARCHAR"},
			{Name: "event_type", Type: "VARCHAR"},
			{Name: "event_count", Type: "INTEGER"},
			{Name: "avg_value", Type: "DOUBLE"},
		},
	}
}

func TestValidateSQL_Accepts(t *testing.T) {
	cases := []string{
		"SELECT city, avg_value FROM analytics_events_daily LIMIT 10",
		"SELECT city, sum(event_count) AS total FROM analytics_events_daily GROUP BY city ORDER BY total DESC;",
		"select * from analytics_events_daily where event_type = 'purchase'",
		"WITH daily AS (SELECT city, event_count FROM analytics_events_daily) SELECT city FROM daily",
		"SELECT count(*) FROM analytics_events_daily -- trailing comment",
		"SELECT city FROM analytics_events_daily WHERE event_type = 'drop table'",
		"SELECT e.city FROM analytics_events_daily AS e",
		"SELECT event_date, event_count FROM analytics_events_daily WHERE city = 'Paris';",
	}
	for _, stmt := range cases {
		q, err := ValidateSQL(stmt, testSchema())
		if err != nil {
			t.Fatalf("%q rejected: %v", stmt, err)
		}
		if len(q.Tables) == 0 || q.Tables[0] != "analytics_events_daily" {
			t.Fatalf("%q: tables=%v", stmt, q.Tables)
		}
	}
}

func TestValidateSQL_Rejects(t *testing.T) {
	cases := []struct {
		stmt string
		want string
	}{
		{"DROP TABLE analytics_events_daily", "only SELECT"},
		{"INSERT INTO analytics_events_daily VALUES (1)", "only SELECT"},
		{"SELECT city FROM analytics_events_daily; DROP TABLE analytics_events_daily", "multiple statements"},
		{"SELECT city FROM analytics_events_daily; DELETE FROM analytics_events_daily", "multiple statements"},
		{"SELECT * FROM secret_table", "unknown table"},
		{"SELECT password FROM analytics_events_daily", "unknown column"},
		{"SELECT e.password FROM analytics_events_daily e", "unknown column"},
		{"", "empty"},
		{"-- nothing here", "empty"},
		{"PRAGMA database_list", "only SELECT"},
	}
	for _, tc := range cases {
		_, err := ValidateSQL(tc.stmt, testSchema())
		if err == nil {
			t.Fatalf("%q accepted, want rejection", tc.stmt)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%q: err=%q want substring %q", tc.stmt, err, tc.want)
		}
	}
}

func TestValidateSQL_ForbiddenKeywordInsideSelect(t *testing.T) {
	_, err := ValidateSQL("SELECT city FROM analytics_events_daily UNION SELECT 1 WHERE EXISTS (SELECT 1) OR 1=1; TRUNCATE analytics_events_daily", testSchema())
	if err == nil {
		t.Fatal("piggybacked statement accepted")
	}
}

func TestValidateSQL_ReportsIdentifiers(t *testing.T) {
	q, err := ValidateSQL("SELECT city, avg(avg_value) FROM analytics_events_daily GROUP BY city", testSchema())
	if err != nil {
		t.Fatalf("rejected: %v", err)
	}
	if len(q.Columns) != 2 || q.Columns[0] != "avg_value" || q.Columns[1] != "city" {
		t.Fatalf("columns: got=%v", q.Columns)
	}
}
