package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/vedran77/tally/internal/domain"
)

type PreferenceRepo struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepo(pool *pgxpool.Pool) *PreferenceRepo {
	return &PreferenceRepo{pool: pool}
}

func (r *PreferenceRepo) Upsert(ctx context.Context, key domain.ConversationKey, rate decimal.Decimal) error {
	query := `
		INSERT INTO rate_preferences (conversation_key, last_rate, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (conversation_key) DO UPDATE
		SET last_rate = EXCLUDED.last_rate,
		    updated_at = EXCLUDED.updated_at`
	_, err := conn(ctx, r.pool).Exec(ctx, query, string(key), rate, time.Now())
	return err
}

func (r *PreferenceRepo) Get(ctx context.Context, key domain.ConversationKey) (*domain.RatePreference, error) {
	query := `
		SELECT last_rate, updated_at
		FROM rate_preferences
		WHERE conversation_key = $1`
	pref := domain.RatePreference{ConversationKey: key}
	err := conn(ctx, r.pool).QueryRow(ctx, query, string(key)).Scan(&pref.LastRate, &pref.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}
