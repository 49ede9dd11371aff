package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/selection"
)

// Querier is the subset of *pgx.Conn used by SQLSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SQLSource fetches cell ranges from a PostgreSQL table with
// LIMIT/OFFSET paging. A pgx connection is not safe for concurrent use, so
// queries are serialized.
type SQLSource struct {
	mu      sync.Mutex
	db      Querier
	conn    *pgx.Conn // set when the source owns its connection
	table   string
	columns []string
	orderBy string
}

// NewSQLSource wraps an existing connection. columns lists the projected
// columns in grid order; orderBy defaults to the first column.
func NewSQLSource(db Querier, table string, columns []string, orderBy string) (*SQLSource, error) {
	if table == "" {
		return nil, fmt.Errorf("sql source: empty table name")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("sql source %s: no columns", table)
	}
	if orderBy == "" {
		orderBy = columns[0]
	}
	return &SQLSource{db: db, table: table, columns: columns, orderBy: orderBy}, nil
}

// ConnectSQL opens a connection to url and returns a source that owns it.
func ConnectSQL(ctx context.Context, url, table string, columns []string, orderBy string) (*SQLSource, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	src, err := NewSQLSource(conn, table, columns, orderBy)
	if err != nil {
		conn.Close(ctx)
		return nil, err
	}
	src.conn = conn
	return src, nil
}

// Close closes an owned connection.
func (s *SQLSource) Close() {
	if s.conn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.conn.Close(ctx)
}

// Columns returns the projected column names.
func (s *SQLSource) Columns() []string {
	return s.columns
}

// RangeQuery returns the statement used for r.
func (s *SQLSource) RangeQuery(r selection.Range) string {
	first := min(max(r.X, 0), len(s.columns))
	last := min(max(r.X+r.Width, first), len(s.columns))
	proj := make([]string, 0, last-first)
	for _, c := range s.columns[first:last] {
		proj = append(proj, pgx.Identifier{c}.Sanitize())
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT $1 OFFSET $2",
		strings.Join(proj, ", "),
		pgx.Identifier(strings.Split(s.table, ".")).Sanitize(),
		pgx.Identifier{s.orderBy}.Sanitize())
}

// Count returns the number of rows in the table.
func (s *SQLSource) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	q := "SELECT count(*) FROM " + pgx.Identifier(strings.Split(s.table, ".")).Sanitize()
	if err := s.db.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return int(n), nil
}

// FetchRange implements RangeFetcher.
func (s *SQLSource) FetchRange(ctx context.Context, r selection.Range) ([][]cell.Content, error) {
	if r.Width <= 0 || r.Height <= 0 || r.X >= len(s.columns) {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(ctx, s.RangeQuery(r), r.Height, r.Y)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out [][]cell.Content
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		row := make([]cell.Content, len(values))
		for i, v := range values {
			row[i] = ValueCell(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.table, err)
	}
	return out, nil
}

// ValueCell converts a decoded database value to read-only cell content.
func ValueCell(v any) cell.Content {
	var c cell.Content
	switch x := v.(type) {
	case nil:
		t := cell.NewText("")
		t.B.Style = "faded"
		t.DisplayData = "NULL"
		c = t
	case bool:
		c = cell.NewBoolean(x)
	case int:
		c = cell.NewNumber(float64(x))
	case int16:
		c = cell.NewNumber(float64(x))
	case int32:
		c = cell.NewNumber(float64(x))
	case int64:
		c = cell.NewNumber(float64(x))
	case float32:
		c = cell.NewNumber(float64(x))
	case float64:
		c = cell.NewNumber(x)
	case string:
		c = cell.NewText(x)
	case []byte:
		c = cell.NewText(string(x))
	case time.Time:
		c = cell.NewText(x.Format(time.RFC3339))
	case [16]byte:
		c = &cell.RowID{B: cell.Base{Readonly: true}, Data: fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])}
	default:
		c = cell.NewText(fmt.Sprintf("%v", x))
	}
	c.Base().Readonly = true
	return c
}
