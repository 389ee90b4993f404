package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	MessageKindText    MessageKind = "text"
	MessageKindRequest MessageKind = "request"
)

// Message is one entry of a conversation feed. Text messages carry a Body;
// request messages carry the RequestID of their paired request.
type Message struct {
	ID              uuid.UUID       `json:"id"`
	ConversationKey ConversationKey `json:"conversation_key"`
	AuthorID        uuid.UUID       `json:"author_id"`
	Kind            MessageKind     `json:"kind"`
	Body            *string         `json:"body,omitempty"`
	RequestID       *uuid.UUID      `json:"request_id,omitempty"`
	Seq             int64           `json:"seq"`
	CreatedAt       time.Time       `json:"created_at"`
}
