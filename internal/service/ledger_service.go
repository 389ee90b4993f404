package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
	"github.com/vedran77/tally/pkg/validator"
	"go.uber.org/zap"
)

// LedgerService owns the request lifecycle. Every request has exactly one
// request message; both are written and removed in the same transaction.
type LedgerService struct {
	tx       repository.Transactor
	requests repository.RequestRepository
	messages repository.MessageRepository
	prefs    repository.PreferenceRepository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewLedgerService(
	tx repository.Transactor,
	requests repository.RequestRepository,
	messages repository.MessageRepository,
	prefs repository.PreferenceRepository,
) *LedgerService {
	return &LedgerService{
		tx:       tx,
		requests: requests,
		messages: messages,
		prefs:    prefs,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *LedgerService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *LedgerService) SetLogger(l *zap.Logger) {
	s.logger = l
}

// CreateRequest records a pending request from senderID to the other
// participant, appends its request message and remembers the rate for
// the conversation.
func (s *LedgerService) CreateRequest(ctx context.Context, key domain.ConversationKey, senderID uuid.UUID, usdAmount, rate decimal.Decimal) (*domain.Request, error) {
	if errs := validator.ValidateRequest(usdAmount, &rate); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}

	recipientID, ok := key.Other(senderID)
	if !ok {
		return nil, ErrNotParticipant
	}

	now := s.now()
	req := &domain.Request{
		ID:          uuid.New(),
		USDAmount:   usdAmount,
		Rate:        rate,
		Status:      domain.RequestPending,
		SenderID:    senderID,
		RecipientID: &recipientID,
		CreatedAt:   now,
	}
	requestID := req.ID
	msg := &domain.Message{
		ID:              uuid.New(),
		ConversationKey: key,
		AuthorID:        senderID,
		Kind:            domain.MessageKindRequest,
		RequestID:       &requestID,
		CreatedAt:       now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requests.Create(ctx, req); err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if err := s.messages.Create(ctx, msg); err != nil {
			return fmt.Errorf("creating request message: %w", err)
		}
		if err := s.prefs.Upsert(ctx, key, rate); err != nil {
			return fmt.Errorf("saving rate preference: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("create request", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyMessage(msg)
		s.notifier.NotifyRequestUpdated(key, req)
	}

	return req, nil
}

// ConfirmRequest marks a pending request as received. Confirming a
// received request is a no-op that returns the current record.
func (s *LedgerService) ConfirmRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	changed, err := s.requests.MarkReceived(ctx, id)
	if err != nil {
		return nil, storageErr("mark request received", err)
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get request", err)
	}
	if req == nil {
		// never existed, or a concurrent delete won
		return nil, ErrRequestNotFound
	}

	if changed && s.notifier != nil {
		msg, err := s.messages.GetByRequestID(ctx, id)
		switch {
		case err != nil:
			s.logger.Error("request.updated not sent: message lookup failed",
				zap.Stringer("request_id", id),
				zap.Error(err),
			)
		case msg == nil:
			s.logger.Warn("request.updated not sent: request has no message",
				zap.Stringer("request_id", id),
			)
		default:
			s.notifier.NotifyRequestUpdated(msg.ConversationKey, req)
		}
	}

	return req, nil
}

// DeleteRequest removes a request in either state together with its
// message. A request whose message is already gone is still deleted.
func (s *LedgerService) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	var msg *domain.Message

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.messages.GetByRequestID(ctx, id)
		if err != nil {
			return fmt.Errorf("finding request message: %w", err)
		}

		deleted, err := s.requests.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting request: %w", err)
		}
		if !deleted {
			return ErrRequestNotFound
		}

		if _, err := s.messages.DeleteByRequestID(ctx, id); err != nil {
			return fmt.Errorf("deleting request message: %w", err)
		}

		msg = m
		return nil
	})
	if err != nil {
		return storageErr("delete request", err)
	}

	if msg != nil && s.notifier != nil {
		s.notifier.NotifyMessageDeleted(msg.ConversationKey, msg.ID)
	}

	return nil
}

func (s *LedgerService) GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get request", err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// RequestConversation returns the conversation a request was made in.
func (s *LedgerService) RequestConversation(ctx context.Context, id uuid.UUID) (domain.ConversationKey, error) {
	msg, err := s.messages.GetByRequestID(ctx, id)
	if err != nil {
		return "", storageErr("get request message", err)
	}
	if msg == nil {
		return "", ErrRequestNotFound
	}
	return msg.ConversationKey, nil
}

// CheckParticipant returns ErrNotParticipant unless userID takes part in
// the request. A request whose message is gone is checked against its
// sender and recipient.
func (s *LedgerService) CheckParticipant(ctx context.Context, id, userID uuid.UUID) error {
	key, err := s.RequestConversation(ctx, id)
	if err == nil {
		if !key.Includes(userID) {
			return ErrNotParticipant
		}
		return nil
	}
	if !errors.Is(err, ErrRequestNotFound) {
		return err
	}

	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.SenderID == userID || (req.RecipientID != nil && *req.RecipientID == userID) {
		return nil
	}
	return ErrNotParticipant
}

// PruneOrphans deletes requests created before cutoff that have no
// request message. It is the cleanup path for writers that bypass
// CreateRequest's transaction.
func (s *LedgerService) PruneOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.requests.DeleteOrphans(ctx, cutoff)
	if err != nil {
		return 0, storageErr("delete orphan requests", err)
	}
	return n, nil
}
