package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/tally/internal/domain"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
	replyBufSize   = 16
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	logger *zap.Logger

	subscriptions map[domain.ConversationKey]struct{}
	mu            sync.RWMutex

	// send is owned by the hub, which closes it on disconnect. Replies to
	// the client's own events go through reply, which is never closed.
	send  chan []byte
	reply chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, logger *zap.Logger) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		userID:        userID,
		logger:        logger.With(zap.Stringer("user_id", userID)),
		subscriptions: make(map[domain.ConversationKey]struct{}),
		send:          make(chan []byte, sendBufSize),
		reply:         make(chan []byte, replyBufSize),
	}
}

// IsSubscribed checks if this client is subscribed to a conversation.
func (c *Client) IsSubscribed(key domain.ConversationKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[key]
	return ok
}

func (c *Client) Subscribe(key domain.ConversationKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[key] = struct{}{}
}

func (c *Client) Unsubscribe(key domain.ConversationKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, key)
}

// ReadPump reads events from the WebSocket until the connection closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.logger.Debug("ws client closed connection")
			} else {
				c.logger.Debug("ws read failed", zap.Error(err))
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes queued events to the WebSocket and keeps it alive.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, message); err != nil {
				return
			}

		case message := <-c.reply:
			if err := c.write(ctx, message); err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.logger.Debug("ws ping failed", zap.Error(err))
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, message []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := c.conn.Write(ctx, websocket.MessageText, message); err != nil {
		c.logger.Debug("ws write failed", zap.Error(err))
		return err
	}
	return nil
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeConversationSubscribe:
		key, ok := c.conversationKey(event)
		if !ok {
			return
		}
		if !key.Includes(c.userID) {
			c.sendError("FORBIDDEN", "not a participant of this conversation")
			return
		}
		c.Subscribe(key)

	case EventTypeConversationUnsubscribe:
		key, ok := c.conversationKey(event)
		if !ok {
			return
		}
		c.Unsubscribe(key)

	case EventTypePing:
		c.sendReply(&Event{Type: EventTypePong, Timestamp: time.Now().Unix()})

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) conversationKey(event *Event) (domain.ConversationKey, bool) {
	var p ConversationPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "invalid "+event.Type+" payload")
		return "", false
	}

	key, err := domain.ParseConversationKey(string(p.ConversationKey))
	if err != nil {
		c.sendError("INVALID_PAYLOAD", "invalid conversation_key")
		return "", false
	}
	return key, true
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.sendReply(evt)
}

func (c *Client) sendReply(evt *Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.reply <- data:
	default:
	}
}
