package pipeline

import (
	"fmt"
	"sort"
)

// Well-known context field names. Initial fields are supplied by the caller;
// derived fields are written exactly once, by exactly one stage.
const (
	FieldErrorLog    = "error_log"
	FieldDagCode     = "dag_code"
	FieldQuestion    = "question"
	FieldTableName   = "table_name"
	FieldTableSchema = "table_schema"

	FieldErrorType  = "error_type"
	FieldErrorMatch = "error_match"
	FieldRootCause  = "root_cause"
	FieldSolution   = "solution"
	FieldPrevention = "prevention"
	FieldSQL        = "generated_sql"
	FieldChecks     = "checks"
)

// Context is the append-only field map threaded through a pipeline run.
// Fields are never overwritten: a second write to the same name is an error,
// which keeps the stage dependency order acyclic and checkable.
type Context struct {
	fields map[string]any
}

// NewContext creates a run context seeded with the caller's initial fields.
func NewContext(initial map[string]any) *Context {
	fields := make(map[string]any, len(initial)+8)
	for k, v := range initial {
		fields[k] = v
	}
	return &Context{fields: fields}
}

// Get returns a field value and whether it is present.
func (c *Context) Get(name string) (any, bool) {
	v, ok := c.fields[name]
	return v, ok
}

// String returns a string field, or "" when absent or not a string.
func (c *Context) String(name string) string {
	if v, ok := c.fields[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Missing returns which of the given fields are not present, sorted.
func (c *Context) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := c.fields[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Strings(missing)
	return missing
}

// merge appends produced fields. Only the orchestrator calls this; stages
// return their fields instead of mutating the context.
func (c *Context) merge(fields map[string]any) error {
	for k := range fields {
		if _, exists := c.fields[k]; exists {
			return fmt.Errorf("pipeline: field %q written twice", k)
		}
	}
	for k, v := range fields {
		c.fields[k] = v
	}
	return nil
}

// Fields returns a copy of all fields, for rendering the final result.
func (c *Context) Fields() map[string]any {
	out := make(map[string]any, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}
