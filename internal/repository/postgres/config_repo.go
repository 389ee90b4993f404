package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/tally/internal/domain"
)

type ConfigRepo struct {
	pool *pgxpool.Pool
}

func NewConfigRepo(pool *pgxpool.Pool) *ConfigRepo {
	return &ConfigRepo{pool: pool}
}

func (r *ConfigRepo) Get(ctx context.Context, key string) (*domain.ConfigEntry, error) {
	entry := domain.ConfigEntry{Key: key}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT value, updated_at FROM system_config WHERE key = $1`, key,
	).Scan(&entry.Value, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ConfigRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_config (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at`
	_, err := conn(ctx, r.pool).Exec(ctx, query, key, value, time.Now())
	return err
}
