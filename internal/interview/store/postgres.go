package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/voxprep/voxprep/internal/interview"
)

// Schema is the SQL DDL for the interviews table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS interviews (
    id          TEXT PRIMARY KEY,
    role        TEXT NOT NULL,
    type        TEXT NOT NULL,
    level       TEXT NOT NULL,
    techstack   JSONB NOT NULL DEFAULT '[]',
    questions   JSONB NOT NULL DEFAULT '[]',
    user_id     TEXT NOT NULL,
    finalized   BOOLEAN NOT NULL DEFAULT true,
    cover_image TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interviews_user ON interviews(user_id);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. Techstack and
// questions are serialised as JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// interviews table and index if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Create inserts a new interview record. When rec.ID is empty a new UUID is
// assigned before the insert.
func (s *PostgresStore) Create(ctx context.Context, rec *interview.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	techJSON, err := json.Marshal(emptySlice(rec.Techstack))
	if err != nil {
		return fmt.Errorf("store: marshal techstack: %w", err)
	}
	qJSON, err := json.Marshal(emptySlice(rec.Questions))
	if err != nil {
		return fmt.Errorf("store: marshal questions: %w", err)
	}

	const query = `
		INSERT INTO interviews (
			id, role, type, level, techstack, questions,
			user_id, finalized, cover_image, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err = s.db.Exec(ctx, query,
		rec.ID, rec.Role, rec.Type, rec.Level, techJSON, qJSON,
		rec.UserID, rec.Finalized, rec.CoverImage, rec.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("store: interview with id %q already exists", rec.ID)
		}
		return fmt.Errorf("store: create: %w", err)
	}
	return nil
}

// Get retrieves an interview record by ID. It returns (nil, nil) if no record
// with the given ID exists.
func (s *PostgresStore) Get(ctx context.Context, id string) (*interview.Record, error) {
	const query = `
		SELECT id, role, type, level, techstack, questions,
		       user_id, finalized, cover_image, created_at
		FROM interviews
		WHERE id = $1`

	var rec interview.Record
	var techJSON, qJSON []byte

	err := s.db.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.Role, &rec.Type, &rec.Level, &techJSON, &qJSON,
		&rec.UserID, &rec.Finalized, &rec.CoverImage, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get %q: %w", id, err)
	}

	if err := unmarshalFields(&rec, techJSON, qJSON); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByUser returns all interview records belonging to the given user,
// newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]interview.Record, error) {
	const query = `
		SELECT id, role, type, level, techstack, questions,
		       user_id, finalized, cover_image, created_at
		FROM interviews
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var recs []interview.Record
	for rows.Next() {
		var rec interview.Record
		var techJSON, qJSON []byte

		if err := rows.Scan(
			&rec.ID, &rec.Role, &rec.Type, &rec.Level, &techJSON, &qJSON,
			&rec.UserID, &rec.Finalized, &rec.CoverImage, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}

		if err := unmarshalFields(&rec, techJSON, qJSON); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return recs, nil
}

// unmarshalFields deserialises the JSONB columns into the corresponding
// [interview.Record] fields.
func unmarshalFields(rec *interview.Record, tech, questions []byte) error {
	if err := json.Unmarshal(tech, &rec.Techstack); err != nil {
		return fmt.Errorf("store: unmarshal techstack: %w", err)
	}
	if err := json.Unmarshal(questions, &rec.Questions); err != nil {
		return fmt.Errorf("store: unmarshal questions: %w", err)
	}
	return nil
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
