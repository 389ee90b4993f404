package ws

import (
	"github.com/google/uuid"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/service"
	"go.uber.org/zap"
)

var _ service.Notifier = (*HubNotifier)(nil)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHubNotifier(hub *Hub, logger *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) NotifyMessage(msg *domain.Message) {
	n.publish(msg.ConversationKey, EventTypeMessageNew, MessagePayload{Message: *msg})
}

func (n *HubNotifier) NotifyMessageDeleted(key domain.ConversationKey, messageID uuid.UUID) {
	n.publish(key, EventTypeMessageDeleted, MessageDeletedPayload{ID: messageID})
}

func (n *HubNotifier) NotifyRequestUpdated(key domain.ConversationKey, req *domain.Request) {
	n.publish(key, EventTypeRequestUpdated, RequestUpdatedPayload{Request: *req})
}

func (n *HubNotifier) publish(key domain.ConversationKey, eventType string, payload any) {
	evt, err := NewEvent(eventType, &key, payload)
	if err != nil {
		n.logger.Error("ws notifier: marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}
	n.hub.BroadcastToConversation(key, evt)
}
