package pipeline

import (
	"context"
	"strings"

	"pipewise/internal/heuristic"
	"pipewise/internal/llm"
	"pipewise/internal/util/jsonutil"
)

const promptSQLGeneration = `You are a SQL expert. Given the database schema
in the input, generate a valid DuckDB SQL query that answers the user's
question.

Return STRICT JSON ONLY:
{
  "sql": "string"  // the query, nothing else
}

Rules:
- Use DuckDB syntax.
- Exactly one statement, read-only (SELECT or WITH ... SELECT).
- Never use INSERT, UPDATE, DELETE, DROP, ALTER, or CREATE.
- Only reference tables and columns that appear in the schema.
- JSON only; no comments or surrounding prose.`

// SQLGenerationStage turns a natural-language question into a candidate SQL
// statement, grounded in the warehouse schema. The statement is a candidate
// only: the guardrail layer decides whether it may be executed.
type SQLGenerationStage struct {
	LLM llm.Client
}

func (s *SQLGenerationStage) Name() string       { return "sql_generation" }
func (s *SQLGenerationStage) Requires() []string { return []string{FieldQuestion, FieldTableSchema} }
func (s *SQLGenerationStage) Produces() []string { return []string{FieldSQL} }

type sqlGenerationOut struct {
	SQL string `json:"sql"`
}

func (s *SQLGenerationStage) Run(ctx context.Context, c *Context) Result {
	schema, _ := c.Get(FieldTableSchema)
	input := map[string]any{
		"schema":   schema,
		"question": c.String(FieldQuestion),
	}

	raw, err := s.LLM.Generate(ctx, promptSQLGeneration, input)
	if err != nil {
		// No rule can write SQL for an arbitrary question; this stage has no
		// degraded path.
		return Fatal("model unavailable: " + err.Error())
	}

	var out sqlGenerationOut
	tier, perr := jsonutil.DecodeLoose(raw, &out)
	if perr == nil && strings.TrimSpace(out.SQL) != "" {
		fields := map[string]any{FieldSQL: strings.TrimSpace(out.SQL)}
		if tier == jsonutil.TierStrict {
			return Success(fields)
		}
		return Degraded(fields, "sql extracted from surrounding prose")
	}

	if sql := heuristic.ExtractSQL(raw); sql != "" {
		return Degraded(map[string]any{FieldSQL: sql}, "sql scraped from model prose")
	}
	return Fatal("model output contained no SQL")
}
