package heuristic

import (
	"fmt"
	"strings"

	"pipewise/internal/types"
)

// DefaultChecks derives quality checks from column types alone: a null check
// per column, range checks for numerics, uniqueness for id-like columns, and
// freshness for date/timestamp columns. Used when the model produced nothing
// usable for a table.
func DefaultChecks(table string, schema []types.Column) []types.QualityCheck {
	var checks []types.QualityCheck
	add := func(col string, ct types.CheckType, sev types.Severity, desc, snippet string) {
		checks = append(checks, types.QualityCheck{
			CheckID:     fmt.Sprintf("%s_check_%d", table, len(checks)+1),
			Column:      col,
			CheckType:   ct,
			Severity:    sev,
			Description: desc,
			CodeSnippet: snippet,
		})
	}

	for _, col := range schema {
		add(col.Name, types.CheckNull, types.SeverityHigh,
			fmt.Sprintf("%s should not contain nulls", col.Name),
			fmt.Sprintf("assert df['%s'].notnull().all()", col.Name))

		switch {
		case isNumericType(col.Type):
			add(col.Name, types.CheckRange, types.SeverityMedium,
				fmt.Sprintf("%s should stay within its expected range (e.g. non-negative)", col.Name),
				fmt.Sprintf("assert (df['%s'] >= 0).all()", col.Name))
		case isTemporalType(col.Type):
			add(col.Name, types.CheckFreshness, types.SeverityMedium,
				fmt.Sprintf("%s should include recent records", col.Name),
				fmt.Sprintf("assert df['%s'].max() >= expected_latest", col.Name))
		default:
			add(col.Name, types.CheckTypeOf, types.SeverityLow,
				fmt.Sprintf("%s values should parse as %s", col.Name, strings.ToLower(col.Type)),
				fmt.Sprintf("assert df['%s'].map(type).nunique() == 1", col.Name))
		}

		if looksLikeKey(col.Name) {
			add(col.Name, types.CheckUniqueness, types.SeverityCritical,
				fmt.Sprintf("%s should be unique per row", col.Name),
				fmt.Sprintf("assert df['%s'].is_unique", col.Name))
		}
	}
	return checks
}

func isNumericType(t string) bool {
	switch strings.ToUpper(strings.TrimSpace(t)) {
	case "INTEGER", "INT", "BIGINT", "SMALLINT", "TINYINT", "HUGEINT",
		"DOUBLE", "FLOAT", "REAL", "DECIMAL", "NUMERIC", "UINTEGER", "UBIGINT":
		return true
	}
	return false
}

func isTemporalType(t string) bool {
	u := strings.ToUpper(strings.TrimSpace(t))
	return u == "DATE" || strings.HasPrefix(u, "TIMESTAMP") || u == "DATETIME" || u == "TIME"
}

func looksLikeKey(name string) bool {
	n := strings.ToLower(name)
	return n == "id" || strings.HasSuffix(n, "_id") || strings.HasSuffix(n, "_key")
}
