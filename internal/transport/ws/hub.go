package ws

import (
	"context"
	"encoding/json"

	"github.com/vedran77/tally/internal/domain"
	"go.uber.org/zap"
)

// Hub manages all active WebSocket clients and routes events to the
// clients subscribed to a conversation. A user may hold several
// connections.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	stopped    chan struct{}

	logger *zap.Logger
}

type broadcastMsg struct {
	key  domain.ConversationKey
	data []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Run is the Hub's event loop. It owns the client map and returns once
// ctx is cancelled, after disconnecting every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("ws hub stopped")
			return nil

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Debug("ws client connected",
				zap.Stringer("user_id", client.userID),
				zap.Int("clients", len(h.clients)),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug("ws client disconnected",
					zap.Stringer("user_id", client.userID),
					zap.Int("clients", len(h.clients)),
				)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.IsSubscribed(msg.key) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					h.logger.Warn("ws client too slow, disconnecting",
						zap.Stringer("user_id", client.userID),
					)
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// BroadcastToConversation sends an event to all subscribers of a conversation.
func (h *Hub) BroadcastToConversation(key domain.ConversationKey, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws hub: marshal event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- &broadcastMsg{key: key, data: data}:
	case <-h.stopped:
	}
}
