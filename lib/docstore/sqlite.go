package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"courseatlas-backend/lib/docstore/db"

	_ "modernc.org/sqlite"
)

// SqliteStore persists documents as JSON blobs in a single sqlite table.
type SqliteStore struct {
	db *sql.DB
}

func OpenSqlite(path string) (SqliteStore, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return SqliteStore{}, err
	}
	_, err = database.Exec(db.Schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return SqliteStore{}, err
	}
	return SqliteStore{db: database}, nil
}

func NewSqliteStore(database *sql.DB) SqliteStore {
	return SqliteStore{db: database}
}

func (s SqliteStore) Get(ctx context.Context, path string) (Document, error) {
	row := s.db.QueryRowContext(
		ctx,
		`select fields from documents where path = ?`,
		path,
	)
	var raw string
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	err = json.Unmarshal([]byte(raw), &doc)
	if err != nil {
		return nil, fmt.Errorf("corrupt document at %q: %w", path, err)
	}
	return doc, nil
}

func (s SqliteStore) Set(ctx context.Context, path string, fields Document, mergeFields bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing Document
	row := tx.QueryRowContext(
		ctx,
		`select fields from documents where path = ?`,
		path,
	)
	var raw string
	err = row.Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if err == nil {
		err = json.Unmarshal([]byte(raw), &existing)
		if err != nil {
			return fmt.Errorf("corrupt document at %q: %w", path, err)
		}
	}

	resolved := applyTransforms(existing, fields)
	if mergeFields && existing != nil {
		resolved = merge(existing, resolved)
	}

	encoded, err := json.Marshal(resolved)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(
		ctx,
		`insert into documents (path, fields, updated_at) values (?, ?, ?)
		 on conflict (path) do update set fields = excluded.fields, updated_at = excluded.updated_at`,
		path,
		string(encoded),
		time.Now().Unix(),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s SqliteStore) List(ctx context.Context, prefix string) (map[string]Document, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select path, fields from documents where path like ?`,
		prefix+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Document{}
	for rows.Next() {
		var path, raw string
		err = rows.Scan(&path, &raw)
		if err != nil {
			return nil, err
		}
		var doc Document
		err = json.Unmarshal([]byte(raw), &doc)
		if err != nil {
			return nil, fmt.Errorf("corrupt document at %q: %w", path, err)
		}
		out[path] = doc
	}
	return out, rows.Err()
}
