package studycache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/at-ishikawa/studyset/schemas"
	"github.com/jmoiron/sqlx"
)

// MySQLStore keeps entries in the study_set_cache table.
type MySQLStore struct {
	db *sqlx.DB
}

func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (store *MySQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := store.db.GetContext(ctx, &payload, "SELECT payload FROM study_set_cache WHERE cache_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("db.GetContext(study_set_cache) > %w", err)
	}
	return payload, true, nil
}

func (store *MySQLStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO study_set_cache (cache_key, payload)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload)`,
		key, value)
	if err != nil {
		return fmt.Errorf("db.ExecContext(upsert study_set_cache) > %w", err)
	}
	return nil
}

// MigrateSchema applies the embedded migrations in file name order.
// Every migration is idempotent, so running it again is harmless.
func MigrateSchema(ctx context.Context, db *sqlx.DB) ([]string, error) {
	names, err := fs.Glob(schemas.Migrations, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("fs.Glob > %w", err)
	}

	var applied []string
	for _, name := range names {
		contents, err := fs.ReadFile(schemas.Migrations, name)
		if err != nil {
			return applied, fmt.Errorf("fs.ReadFile(%s) > %w", name, err)
		}
		statement := strings.TrimSpace(string(contents))
		if statement == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return applied, fmt.Errorf("db.ExecContext(%s) > %w", name, err)
		}
		applied = append(applied, name)
	}
	return applied, nil
}
