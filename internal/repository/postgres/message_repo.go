package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/tally/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Create assigns msg.Seq from the table sequence.
func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_key, author_id, kind, body, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		msg.ID, string(msg.ConversationKey), msg.AuthorID, string(msg.Kind),
		msg.Body, msg.RequestID, msg.CreatedAt,
	).Scan(&msg.Seq)
	return translate(err)
}

func (r *MessageRepo) ListByConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Message, error) {
	query := `
		SELECT id, conversation_key, author_id, kind, body, request_id, seq, created_at
		FROM messages
		WHERE conversation_key = $1
		ORDER BY seq ASC`

	rows, err := conn(ctx, r.pool).Query(ctx, query, string(key))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT id, conversation_key, author_id, kind, body, request_id, seq, created_at
		FROM messages
		WHERE request_id = $1`

	msg, err := scanMessage(conn(ctx, r.pool).QueryRow(ctx, query, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

func (r *MessageRepo) DeleteByRequestID(ctx context.Context, requestID uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM messages WHERE request_id = $1`, requestID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		msg  domain.Message
		key  string
		kind string
	)
	if err := row.Scan(
		&msg.ID, &key, &msg.AuthorID, &kind, &msg.Body,
		&msg.RequestID, &msg.Seq, &msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	msg.ConversationKey = domain.ConversationKey(key)
	msg.Kind = domain.MessageKind(kind)
	return &msg, nil
}
