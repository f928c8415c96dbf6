// Package guardrail validates model-produced artifacts before they reach the
// warehouse or the caller. Nothing here talks to a model: the inputs are the
// candidate artifact and the ground truth (schema, enums), and the outputs
// are either a vetted artifact or an error naming what was rejected.
package guardrail

import (
	"fmt"
	"sort"
	"strings"

	"pipewise/internal/types"
)

// forbidden are statement keywords that make a query non-read-only. The scan
// is token-based, so "created_at" or a 'DROP' string literal never trips it.
var forbidden = map[string]bool{
	"insert": true, "update": true, "delete": true,
	"drop": true, "alter": true, "create": true,
	"truncate": true, "attach": true, "detach": true,
	"copy": true, "pragma": true, "install": true,
	"load": true, "set": true, "call": true,
	"export": true, "import": true, "grant": true,
	"revoke": true,
}

// sqlKeywords are tokens that are never identifiers. Kept deliberately small:
// an unknown token is only rejected when it cannot be resolved as a table,
// column, or alias, so missing keywords cost precision, not correctness.
var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "group": true, "by": true,
	"order": true, "having": true, "limit": true, "offset": true, "as": true,
	"and": true, "or": true, "not": true, "in": true, "is": true, "null": true,
	"like": true, "ilike": true, "between": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "distinct": true, "join": true,
	"inner": true, "left": true, "right": true, "full": true, "outer": true,
	"cross": true, "on": true, "using": true, "union": true, "all": true,
	"with": true, "asc": true, "desc": true, "true": true, "false": true,
	"exists": true, "any": true, "interval": true, "cast": true, "over": true,
	"partition": true, "rows": true, "range": true, "preceding": true,
	"following": true, "current": true, "row": true, "unbounded": true,
	"nulls": true, "first": true, "last": true, "qualify": true,
}

// ValidateSQL admits exactly one read-only statement that resolves against
// the given schema. On success it returns the statement together with the
// tables and columns it references; any violation is an error and the
// statement must not be executed.
func ValidateSQL(stmt string, schema map[string][]types.Column) (types.SQLQuery, error) {
	clean := stripComments(stmt)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return types.SQLQuery{}, fmt.Errorf("empty statement")
	}

	// One trailing semicolon is tolerated; an interior one means a second
	// statement is smuggled in.
	clean = strings.TrimSuffix(clean, ";")
	if i := indexOutsideStrings(clean, ';'); i >= 0 {
		return types.SQLQuery{}, fmt.Errorf("multiple statements are not allowed")
	}

	toks := tokenize(clean)
	if len(toks) == 0 {
		return types.SQLQuery{}, fmt.Errorf("empty statement")
	}
	switch strings.ToLower(toks[0].text) {
	case "select", "with":
	default:
		return types.SQLQuery{}, fmt.Errorf("only SELECT statements are allowed, got %q", toks[0].text)
	}

	for _, t := range toks {
		if t.kind == tokWord && forbidden[strings.ToLower(t.text)] {
			return types.SQLQuery{}, fmt.Errorf("forbidden keyword %q in statement", strings.ToUpper(t.text))
		}
	}

	tables, columns, err := resolveIdentifiers(toks, schema)
	if err != nil {
		return types.SQLQuery{}, err
	}

	return types.SQLQuery{
		Statement: strings.TrimSpace(stmt),
		Tables:    tables,
		Columns:   columns,
	}, nil
}

type tokKind int

const (
	tokWord tokKind = iota
	tokPunct
	tokString
	tokNumber
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string) []token {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'':
			j := i + 1
			for j < len(s) {
				if s[j] == '\'' {
					if j+1 < len(s) && s[j+1] == '\'' { // escaped quote
						j += 2
						continue
					}
					break
				}
				j++
			}
			toks = append(toks, token{tokString, s[i : min(j+1, len(s))]})
			i = j + 1
		case c == '"':
			j := i + 1
			for j < len(s) && s[j] != '"' {
				j++
			}
			toks = append(toks, token{tokWord, s[i+1 : min(j, len(s))]})
			i = j + 1
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			toks = append(toks, token{tokWord, s[i:j]})
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, s[i:j]})
			i = j
		default:
			toks = append(toks, token{tokPunct, string(c)})
			i++
		}
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// resolveIdentifiers walks the token stream and binds every bare identifier
// to a table, a column of a referenced table, or an alias introduced by the
// statement itself. An identifier that binds to none of these fails the
// statement.
func resolveIdentifiers(toks []token, schema map[string][]types.Column) ([]string, []string, error) {
	lowerSchema := make(map[string]map[string]bool, len(schema))
	for table, cols := range schema {
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[strings.ToLower(c.Name)] = true
		}
		lowerSchema[strings.ToLower(table)] = set
	}

	tableSet := map[string]bool{}
	// aliases maps an alias to the schema table it stands for; CTE names and
	// output aliases map to "", which disables static column resolution.
	aliases := map[string]string{}

	// First pass: tables after FROM/JOIN, aliases after AS or after a bound
	// table name, CTE names after WITH.
	for i := 0; i < len(toks); i++ {
		if toks[i].kind != tokWord {
			continue
		}
		lw := strings.ToLower(toks[i].text)
		switch lw {
		case "from", "join":
			if i+1 < len(toks) && toks[i+1].kind == tokWord {
				name := strings.ToLower(toks[i+1].text)
				if _, ok := lowerSchema[name]; ok {
					tableSet[name] = true
					// optional alias: FROM t x  or  FROM t AS x
					j := i + 2
					if j < len(toks) && toks[j].kind == tokWord && strings.ToLower(toks[j].text) == "as" {
						j++
					}
					if j < len(toks) && toks[j].kind == tokWord && !sqlKeywords[strings.ToLower(toks[j].text)] {
						aliases[strings.ToLower(toks[j].text)] = name
					}
				} else if _, isAlias := aliases[name]; !sqlKeywords[name] && !isAlias {
					return nil, nil, fmt.Errorf("unknown table %q", toks[i+1].text)
				}
			}
		case "with":
			// WITH cte AS (...)[, cte2 AS (...)]
			for j := i + 1; j+1 < len(toks); j++ {
				if toks[j].kind == tokWord && j+1 < len(toks) &&
					toks[j+1].kind == tokWord && strings.ToLower(toks[j+1].text) == "as" {
					aliases[strings.ToLower(toks[j].text)] = ""
				}
				if toks[j].kind == tokWord && strings.ToLower(toks[j].text) == "select" {
					break
				}
			}
		}
	}

	columnSet := map[string]bool{}
	unionCols := map[string]bool{}
	for t := range tableSet {
		for c := range lowerSchema[t] {
			unionCols[c] = true
		}
	}

	// Second pass: every remaining bare identifier must bind.
	for i := 0; i < len(toks); i++ {
		if toks[i].kind != tokWord {
			continue
		}
		lw := strings.ToLower(toks[i].text)
		_, isAlias := aliases[lw]
		if sqlKeywords[lw] || forbidden[lw] || tableSet[lw] || isAlias {
			continue
		}
		// function call: identifier immediately followed by (
		if i+1 < len(toks) && toks[i+1].kind == tokPunct && toks[i+1].text == "(" {
			continue
		}
		// qualified reference: t.col binds against t's columns, through an
		// alias when the alias stands for a schema table
		if i >= 2 && toks[i-1].kind == tokPunct && toks[i-1].text == "." {
			qual := strings.ToLower(toks[i-2].text)
			target := qual
			if aliased, ok := aliases[qual]; ok {
				if aliased == "" {
					continue // CTE-qualified, cannot resolve statically
				}
				target = aliased
			}
			if cols, ok := lowerSchema[target]; ok {
				if !cols[lw] {
					return nil, nil, fmt.Errorf("unknown column %q in table %q", toks[i].text, target)
				}
				columnSet[lw] = true
				continue
			}
		}
		// output alias: previous meaningful token is AS
		if i >= 1 && toks[i-1].kind == tokWord && strings.ToLower(toks[i-1].text) == "as" {
			aliases[lw] = ""
			continue
		}
		if unionCols[lw] {
			columnSet[lw] = true
			continue
		}
		// identifier defined later as an output alias (ORDER BY alias)
		if definedAsAliasLater(toks, i, lw) {
			continue
		}
		return nil, nil, fmt.Errorf("unknown column %q", toks[i].text)
	}

	return sortedKeys(tableSet), sortedKeys(columnSet), nil
}

func definedAsAliasLater(toks []token, upto int, name string) bool {
	for j := 0; j < len(toks)-1; j++ {
		if j == upto {
			continue
		}
		if toks[j].kind == tokWord && strings.ToLower(toks[j].text) == "as" &&
			toks[j+1].kind == tokWord && strings.ToLower(toks[j+1].text) == name {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func stripComments(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		switch {
		case s[i] == '\'':
			j := i + 1
			for j < len(s) && s[j] != '\'' {
				j++
			}
			b.WriteString(s[i:min(j+1, len(s))])
			i = j + 1
		case strings.HasPrefix(s[i:], "--"):
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case strings.HasPrefix(s[i:], "/*"):
			if j := strings.Index(s[i:], "*/"); j >= 0 {
				i += j + 2
			} else {
				i = len(s)
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

func indexOutsideStrings(s string, target byte) int {
	inStr := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			inStr = !inStr
			continue
		}
		if !inStr && s[i] == target {
			return i
		}
	}
	return -1
}
