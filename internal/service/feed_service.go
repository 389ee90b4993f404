package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
	"github.com/vedran77/tally/pkg/validator"
)

// FeedService appends and reads conversation messages.
type FeedService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	notifier Notifier
}

func NewFeedService(messages repository.MessageRepository, users repository.UserRepository) *FeedService {
	return &FeedService{
		messages: messages,
		users:    users,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *FeedService) SetNotifier(n Notifier) {
	s.notifier = n
}

// OpenConversation returns the key for userID and peerID after checking
// that the peer exists.
func (s *FeedService) OpenConversation(ctx context.Context, userID, peerID uuid.UUID) (domain.ConversationKey, error) {
	key, err := domain.DeriveKey(userID, peerID)
	if err != nil {
		return "", err
	}

	peer, err := s.users.GetByID(ctx, peerID)
	if err != nil {
		return "", storageErr("get user", err)
	}
	if peer == nil {
		return "", ErrUserNotFound
	}

	return key, nil
}

func (s *FeedService) SendMessage(ctx context.Context, key domain.ConversationKey, authorID uuid.UUID, body string) (*domain.Message, error) {
	if errs := validator.ValidateMessage(body); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}
	if !key.Includes(authorID) {
		return nil, ErrNotParticipant
	}

	body = strings.TrimSpace(body)
	msg := &domain.Message{
		ID:              uuid.New(),
		ConversationKey: key,
		AuthorID:        authorID,
		Kind:            domain.MessageKindText,
		Body:            &body,
		CreatedAt:       time.Now(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, storageErr("create message", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyMessage(msg)
	}

	return msg, nil
}

// ListMessages returns the conversation in insertion order.
func (s *FeedService) ListMessages(ctx context.Context, key domain.ConversationKey) ([]domain.Message, error) {
	messages, err := s.messages.ListByConversation(ctx, key)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
