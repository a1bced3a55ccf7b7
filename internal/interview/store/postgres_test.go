package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/voxprep/voxprep/internal/interview"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	return scanInto(r.data[r.idx-1], dest)
}

func scanInto(row []any, dest []any) error {
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *bool:
			*d = v.(bool)
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// rowData builds a raw row matching the SELECT column order.
func rowData(rec interview.Record) []any {
	tech, _ := json.Marshal(rec.Techstack)
	questions, _ := json.Marshal(rec.Questions)
	return []any{
		rec.ID, rec.Role, rec.Type, rec.Level, tech, questions,
		rec.UserID, rec.Finalized, rec.CoverImage, rec.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// PostgresStore tests
// ---------------------------------------------------------------------------

func TestPostgresStore_Create(t *testing.T) {
	t.Parallel()

	var gotSQL string
	var gotArgs []any
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			gotArgs = args
			return pgconn.CommandTag{}, nil
		},
	}
	s := NewPostgresStore(db)

	rec := testRecord("u1", "2026-08-29T10:00:00Z")
	if err := s.Create(context.Background(), &rec); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}
	if !strings.Contains(gotSQL, "INSERT INTO interviews") {
		t.Fatalf("unexpected SQL: %s", gotSQL)
	}
	if len(gotArgs) != 10 {
		t.Fatalf("got %d args, want 10", len(gotArgs))
	}
	if gotArgs[0] != rec.ID || gotArgs[6] != "u1" {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
	if string(gotArgs[4].([]byte)) != `["React","CSS"]` {
		t.Fatalf("techstack JSON = %s", gotArgs[4])
	}
}

func TestPostgresStore_CreateDuplicate(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		},
	}
	s := NewPostgresStore(db)

	rec := testRecord("u1", "2026-08-29T10:00:00Z")
	err := s.Create(context.Background(), &rec)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("Create() error = %v, want duplicate-key message", err)
	}
}

func TestPostgresStore_Get(t *testing.T) {
	t.Parallel()

	want := testRecord("u1", "2026-08-29T10:00:00Z")
	want.ID = "iv-1"
	db := &mockDB{
		queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
			if args[0] != "iv-1" {
				return &mockRow{scanFunc: func(_ ...any) error { return pgx.ErrNoRows }}
			}
			return &mockRow{scanFunc: func(dest ...any) error {
				return scanInto(rowData(want), dest)
			}}
		},
	}
	s := NewPostgresStore(db)

	got, err := s.Get(context.Background(), "iv-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || got.Role != want.Role || len(got.Questions) != 2 {
		t.Fatalf("Get() = %+v", got)
	}

	missing, err := s.Get(context.Background(), "other")
	if err != nil {
		t.Fatalf("Get() missing error: %v", err)
	}
	if missing != nil {
		t.Fatalf("Get() missing = %+v, want nil", missing)
	}
}

func TestPostgresStore_GetError(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection reset")
	db := &mockDB{
		queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &mockRow{scanFunc: func(_ ...any) error { return dbErr }}
		},
	}
	s := NewPostgresStore(db)

	_, err := s.Get(context.Background(), "iv-1")
	if !errors.Is(err, dbErr) {
		t.Fatalf("Get() error = %v, want wrapped %v", err, dbErr)
	}
}

func TestPostgresStore_ListByUser(t *testing.T) {
	t.Parallel()

	first := testRecord("u1", "2026-08-29T11:00:00Z")
	first.ID = "iv-1"
	second := testRecord("u1", "2026-08-29T09:00:00Z")
	second.ID = "iv-2"

	rows := &mockRows{data: [][]any{rowData(first), rowData(second)}}
	db := &mockDB{
		queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			if !strings.Contains(sql, "ORDER BY created_at DESC") {
				t.Errorf("list SQL missing ordering: %s", sql)
			}
			if args[0] != "u1" {
				t.Errorf("list args = %v", args)
			}
			return rows, nil
		},
	}
	s := NewPostgresStore(db)

	recs, err := s.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].ID != "iv-1" || recs[1].ID != "iv-2" {
		t.Fatalf("unexpected order: %q, %q", recs[0].ID, recs[1].ID)
	}
	if !rows.closed {
		t.Fatal("rows not closed")
	}
}

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	var gotSQL string
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.CommandTag{}, nil
		},
	}
	s := NewPostgresStore(db)

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if !strings.Contains(gotSQL, "CREATE TABLE IF NOT EXISTS interviews") {
		t.Fatalf("unexpected migration SQL: %s", gotSQL)
	}
}
