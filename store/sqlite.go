package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/pressly/goose/v3"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite persists record collections in a local SQLite database. Records are
// stored as JSON field maps in a single generic table; filters and sorts are
// evaluated with json_extract so the query shape matches the hosted API.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies pending
// schema migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: database path not provided", ErrUnavailable)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open record database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Fetch returns the records of a collection matching the query.
func (s *SQLite) Fetch(ctx context.Context, collection string, q Query) ([]Record, error) {
	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString("SELECT id, fields FROM records WHERE collection = ?")
	args = append(args, collection)

	for _, f := range q.Filters {
		sb.WriteString(" AND json_extract(fields, ?) = ?")
		args = append(args, "$."+f.Field, f.Value)
	}

	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY json_extract(fields, ?)")
		args = append(args, "$."+q.OrderBy)
		if q.Desc {
			sb.WriteString(" DESC")
		}
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			id     string
			fields string
		)
		if err := rows.Scan(&id, &fields); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", collection, err)
		}

		rec := Record{}
		if err := json.Unmarshal([]byte(fields), &rec); err != nil {
			return nil, fmt.Errorf("decode %s record %s: %w", collection, id, err)
		}
		rec["id"] = id
		records = append(records, projected(rec, q.Fields))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}

	return records, nil
}

// Create inserts the supplied records, assigning identities where missing.
// Each record gets its own result; a failed insert does not abort the batch.
func (s *SQLite) Create(ctx context.Context, collection string, records []Record) ([]Result, error) {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		id := StringField(rec, "id")
		if id == "" {
			id = uuid.NewString()
		}

		fields, err := encodeFields(rec)
		if err != nil {
			results = append(results, Result{ID: id, Message: err.Error()})
			continue
		}

		_, err = s.db.ExecContext(ctx,
			"INSERT INTO records (collection, id, fields) VALUES (?, ?, ?)",
			collection, id, fields)
		if err != nil {
			results = append(results, Result{ID: id, Message: err.Error()})
			continue
		}

		results = append(results, Result{ID: id, Success: true})
	}
	return results, nil
}

// Update rewrites existing records in place, keyed by their "id" field.
func (s *SQLite) Update(ctx context.Context, collection string, records []Record) ([]Result, error) {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		id := StringField(rec, "id")
		if id == "" {
			results = append(results, Result{Message: "record is missing an id"})
			continue
		}

		fields, err := encodeFields(rec)
		if err != nil {
			results = append(results, Result{ID: id, Message: err.Error()})
			continue
		}

		res, err := s.db.ExecContext(ctx,
			"UPDATE records SET fields = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?",
			fields, collection, id)
		if err != nil {
			results = append(results, Result{ID: id, Message: err.Error()})
			continue
		}

		if n, _ := res.RowsAffected(); n == 0 {
			results = append(results, Result{ID: id, Message: ErrNotFound.Error()})
			continue
		}

		results = append(results, Result{ID: id, Success: true})
	}
	return results, nil
}

// Delete removes records by identity.
func (s *SQLite) Delete(ctx context.Context, collection string, ids []string) ([]Result, error) {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx,
			"DELETE FROM records WHERE collection = ? AND id = ?", collection, id)
		if err != nil {
			results = append(results, Result{ID: id, Message: err.Error()})
			continue
		}

		if n, _ := res.RowsAffected(); n == 0 {
			results = append(results, Result{ID: id, Message: ErrNotFound.Error()})
			continue
		}

		results = append(results, Result{ID: id, Success: true})
	}
	return results, nil
}

// encodeFields serializes a record without its identity column.
func encodeFields(rec Record) (string, error) {
	fields := make(Record, len(rec))
	for k, v := range rec {
		if k == "id" {
			continue
		}
		fields[k] = v
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(data), nil
}

func projected(rec Record, fields []string) Record {
	if len(fields) == 0 {
		return rec
	}

	out := make(Record, len(fields)+1)
	out["id"] = rec["id"]
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}
