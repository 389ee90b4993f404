package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const keySeparator = "_"

var (
	ErrInvalidParticipant = fmt.Errorf("%w: participant id is required", ErrValidation)
	ErrSelfConversation   = fmt.Errorf("%w: cannot start a conversation with yourself", ErrValidation)
	ErrMalformedKey       = fmt.Errorf("%w: malformed conversation key", ErrValidation)
)

// ConversationKey scopes messages, requests and rate memory to one pair of users.
type ConversationKey string

// DeriveKey returns the key for the unordered pair {a, b}. DeriveKey(a, b) == DeriveKey(b, a).
func DeriveKey(a, b uuid.UUID) (ConversationKey, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return "", ErrInvalidParticipant
	}
	if a == b {
		return "", ErrSelfConversation
	}

	// Sort so the key does not depend on who opened the conversation
	s1, s2 := a.String(), b.String()
	if s1 > s2 {
		s1, s2 = s2, s1
	}
	return ConversationKey(s1 + keySeparator + s2), nil
}

// ParseConversationKey validates a key received from outside the process.
func ParseConversationKey(s string) (ConversationKey, error) {
	left, right, ok := strings.Cut(s, keySeparator)
	if !ok {
		return "", ErrMalformedKey
	}
	a, err := uuid.Parse(left)
	if err != nil {
		return "", ErrMalformedKey
	}
	b, err := uuid.Parse(right)
	if err != nil {
		return "", ErrMalformedKey
	}

	key, err := DeriveKey(a, b)
	if err != nil {
		return "", err
	}
	if string(key) != s {
		return "", ErrMalformedKey
	}
	return key, nil
}

// Participants returns both user ids in key order.
func (k ConversationKey) Participants() (uuid.UUID, uuid.UUID) {
	left, right, _ := strings.Cut(string(k), keySeparator)
	a, _ := uuid.Parse(left)
	b, _ := uuid.Parse(right)
	return a, b
}

// Includes reports whether userID is one of the two participants.
func (k ConversationKey) Includes(userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}
	a, b := k.Participants()
	return userID == a || userID == b
}

// Other returns the participant that is not userID.
func (k ConversationKey) Other(userID uuid.UUID) (uuid.UUID, bool) {
	a, b := k.Participants()
	switch userID {
	case a:
		return b, true
	case b:
		return a, true
	}
	return uuid.Nil, false
}

func (k ConversationKey) String() string {
	return string(k)
}
