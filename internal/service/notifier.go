package service

import (
	"github.com/google/uuid"
	"github.com/vedran77/tally/internal/domain"
)

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	NotifyMessage(msg *domain.Message)
	NotifyMessageDeleted(key domain.ConversationKey, messageID uuid.UUID)
	NotifyRequestUpdated(key domain.ConversationKey, req *domain.Request)
}
