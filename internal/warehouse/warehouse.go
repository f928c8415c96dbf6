// Package warehouse wraps the DuckDB analytics store: schema introspection
// for prompt grounding and read-only execution of vetted queries.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	_ "github.com/duckdb/duckdb-go/v2"

	"pipewise/internal/types"
)

// Store owns one DuckDB handle. Schema lookups are cached; the cache is
// per-process and cleared only by Invalidate, so DDL run outside this process
// can leave it stale.
type Store struct {
	db     *sql.DB
	schema *lru.Cache[string, []types.Column]
}

const schemaCacheSize = 64

// Open opens (creating if absent) the DuckDB database at path. An empty path
// opens an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	cache, err := lru.New[string, []types.Column](schemaCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, schema: cache}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Tables lists the user tables in the main schema.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'main' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Schema returns the columns of a table in declaration order.
func (s *Store) Schema(ctx context.Context, table string) ([]types.Column, error) {
	if cols, ok := s.schema.Get(table); ok {
		return cols, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = 'main' AND table_name = ?
		 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []types.Column
	for rows.Next() {
		var c types.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}
	s.schema.Add(table, cols)
	return cols, nil
}

// SchemaAll snapshots every table's columns. Used to ground SQL generation
// and to resolve identifiers in candidate queries.
func (s *Store) SchemaAll(ctx context.Context) (map[string][]types.Column, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]types.Column, len(tables))
	for _, t := range tables {
		cols, err := s.Schema(ctx, t)
		if err != nil {
			return nil, err
		}
		out[t] = cols
	}
	return out, nil
}

// Invalidate drops the cached schema for a table (or all tables when table
// is empty).
func (s *Store) Invalidate(table string) {
	if table == "" {
		s.schema.Purge()
		return
	}
	s.schema.Remove(table)
}

// ResultSet is a column-ordered query result, JSON-friendly for API replies.
type ResultSet struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Execute runs a statement and materializes the full result. Callers pass
// only statements vetted by the guardrail layer; Execute itself does no
// validation.
func (s *Store) Execute(ctx context.Context, stmt string) (*ResultSet, error) {
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := &ResultSet{Columns: cols, Rows: []map[string]any{}}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[c] = v
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, rows.Err()
}

// Seed creates the demo analytics table when it does not exist yet, so a
// fresh database answers SQL requests out of the box.
func (s *Store) Seed(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analytics_events_daily (
			event_date DATE,
			city VARCHAR,
			event_type VARCHAR,
			event_count INTEGER,
			avg_value DOUBLE
		)`)
	if err != nil {
		return fmt.Errorf("seed schema: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM analytics_events_daily`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analytics_events_daily VALUES
			('2024-01-01', 'Istanbul', 'page_view', 1520, 3.4),
			('2024-01-01', 'Ankara',   'page_view',  830, 2.9),
			('2024-01-01', 'Izmir',    'purchase',    95, 42.7),
			('2024-01-02', 'Istanbul', 'page_view', 1610, 3.6),
			('2024-01-02', 'Ankara',   'purchase',    61, 38.1),
			('2024-01-02', 'Izmir',    'page_view',  720, 2.4),
			('2024-01-03', 'Istanbul', 'purchase',   140, 45.0),
			('2024-01-03', 'Ankara',   'page_view',  890, 3.1),
			('2024-01-03', 'Izmir',    'purchase',    88, 40.2)`)
	if err != nil {
		return fmt.Errorf("seed rows: %w", err)
	}
	s.Invalidate("analytics_events_daily")
	return nil
}
