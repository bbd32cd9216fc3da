package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/quizzer/internal/infra/postgres"
)

// PostgresKV stores snapshots in the session_kv table.
type PostgresKV struct {
	db  postgres.DBTX
	now func() time.Time
}

// NewPostgresKV creates a PostgresKV.
func NewPostgresKV(db postgres.DBTX) *PostgresKV {
	return &PostgresKV{db: db, now: time.Now}
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM session_kv
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)
	`

	var value []byte
	err := p.db.QueryRow(ctx, query, key, p.now()).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session kv: %w", err)
	}

	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO session_kv (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
	`

	now := p.now()
	var expiresAt *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}

	if _, err := p.db.Exec(ctx, query, key, value, expiresAt, now); err != nil {
		return fmt.Errorf("set session kv: %w", err)
	}

	return nil
}

func (p *PostgresKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if _, err := p.db.Exec(ctx, `DELETE FROM session_kv WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("delete session kv: %w", err)
	}

	return nil
}

// PurgeExpired removes rows whose TTL has passed.
func (p *PostgresKV) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM session_kv WHERE expires_at IS NOT NULL AND expires_at <= $1`, p.now())
	if err != nil {
		return 0, fmt.Errorf("purge session kv: %w", err)
	}
	return tag.RowsAffected(), nil
}
