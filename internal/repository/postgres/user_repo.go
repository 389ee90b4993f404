package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/tally/internal/domain"
)

const userColumns = "id, display_name, password_hash, avatar_url, is_admin, created_at, updated_at"

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, display_name, password_hash, avatar_url, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		user.ID, user.DisplayName, user.PasswordHash, user.AvatarURL,
		user.IsAdmin, user.CreatedAt, user.UpdatedAt,
	)
	return translate(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *UserRepo) GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE display_name = $1", displayName)
}

func (r *UserRepo) ListExcept(ctx context.Context, id uuid.UUID) ([]domain.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE id <> $1 ORDER BY display_name", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.DisplayName, &u.PasswordHash, &u.AvatarURL,
			&u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET avatar_url = $1, updated_at = $2 WHERE id = $3`, avatarURL, time.Now(), id)
	return err
}

func (r *UserRepo) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET is_admin = $1, updated_at = $2 WHERE id = $3`, isAdmin, time.Now(), id)
	return err
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.DisplayName, &u.PasswordHash, &u.AvatarURL,
		&u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
