package postgres

import (
	"context"
	"errors"
	"fmt"

	"food-expose-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type completionStore struct {
	db        *pgxpool.Pool
	table     string // quoted identifier
	namespace string
}

// NewCompletionStore stores namespaced key/value pairs in table. The table name
// comes from configuration and is quoted before use.
func NewCompletionStore(db *pgxpool.Pool, table, namespace string) domain.CompletionStore {
	return &completionStore{
		db:        db,
		table:     pq.QuoteIdentifier(table),
		namespace: namespace,
	}
}

// EnsureCompletionSchema creates the key/value table if it does not exist.
func EnsureCompletionSchema(ctx context.Context, db *pgxpool.Pool, table string) error {
	quoted := pq.QuoteIdentifier(table)
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace  TEXT        NOT NULL,
			key        TEXT        NOT NULL,
			value      TEXT        NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (namespace, key)
		)
	`, quoted)

	if _, err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", quoted, err)
	}
	return nil
}

func (s *completionStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE namespace = $1 AND key = $2`, s.table)

	var value string
	err := s.db.QueryRow(ctx, query, s.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get key: %w", err)
	}

	return value, true, nil
}

func (s *completionStore) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, s.table)

	if _, err := s.db.Exec(ctx, query, s.namespace, key, value); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (s *completionStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
