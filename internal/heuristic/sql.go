package heuristic

import "strings"

// ExtractSQL pulls a SQL statement out of model prose: a ```sql fenced block
// wins, then anything after an "SQL Query:" label, then the text from the
// first SELECT/WITH keyword onward. Returns "" when nothing looks like SQL.
func ExtractSQL(raw string) string {
	s := strings.TrimSpace(raw)

	for _, fence := range []string{"```sql", "```SQL"} {
		if i := strings.Index(s, fence); i >= 0 {
			rest := s[i+len(fence):]
			if j := strings.Index(rest, "```"); j >= 0 {
				return strings.TrimSpace(rest[:j])
			}
		}
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}

	lower := strings.ToLower(s)
	if i := strings.Index(lower, "sql query:"); i >= 0 {
		return strings.TrimSpace(s[i+len("sql query:"):])
	}

	for _, kw := range []string{"select ", "with "} {
		if i := strings.Index(lower, kw); i >= 0 {
			return strings.TrimSpace(s[i:])
		}
	}
	return ""
}
