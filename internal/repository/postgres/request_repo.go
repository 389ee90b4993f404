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

type RequestRepo struct {
	pool *pgxpool.Pool
}

func NewRequestRepo(pool *pgxpool.Pool) *RequestRepo {
	return &RequestRepo{pool: pool}
}

func (r *RequestRepo) Create(ctx context.Context, req *domain.Request) error {
	query := `
		INSERT INTO requests (id, usd_amount, rate, status, sender_id, recipient_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		req.ID, req.USDAmount, req.Rate, string(req.Status),
		req.SenderID, req.RecipientID, req.CreatedAt,
	)
	return translate(err)
}

func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	query := `
		SELECT id, usd_amount, rate, status, sender_id, recipient_id, created_at
		FROM requests
		WHERE id = $1`
	req, err := scanRequest(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *RequestRepo) MarkReceived(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE requests SET status = $1 WHERE id = $2 AND status = $3`,
		string(domain.RequestReceived), id, string(domain.RequestPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepo) ListByConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Request, error) {
	query := `
		SELECT r.id, r.usd_amount, r.rate, r.status, r.sender_id, r.recipient_id, r.created_at
		FROM messages m
		JOIN requests r ON r.id = m.request_id
		WHERE m.conversation_key = $1 AND m.kind = $2
		ORDER BY m.seq ASC`

	rows, err := conn(ctx, r.pool).Query(ctx, query, string(key), string(domain.MessageKindRequest))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (r *RequestRepo) DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM requests r
		WHERE r.created_at < $1
			AND NOT EXISTS (SELECT 1 FROM messages m WHERE m.request_id = r.id)`
	tag, err := conn(ctx, r.pool).Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var (
		req    domain.Request
		status string
	)
	if err := row.Scan(
		&req.ID, &req.USDAmount, &req.Rate, &status,
		&req.SenderID, &req.RecipientID, &req.CreatedAt,
	); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	return &req, nil
}
