package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StandardRateKey is the system_config key holding the admin-set default rate.
const StandardRateKey = "standard_rate"

// FallbackRate is used when neither rate memory nor a standard rate exists.
var FallbackRate = decimal.New(84, -1)

// RatePreference remembers the last rate used in a conversation.
type RatePreference struct {
	ConversationKey ConversationKey `json:"conversation_key"`
	LastRate        decimal.Decimal `json:"last_rate"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ConfigEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Balance totals one conversation's requests.
type Balance struct {
	ConversationKey ConversationKey `json:"conversation_key"`
	PendingUSD      decimal.Decimal `json:"pending_usd"`
	ReceivedLocal   decimal.Decimal `json:"received_local"`
	PendingCount    int             `json:"pending_count"`
	ReceivedCount   int             `json:"received_count"`
}

// Add folds one request into the balance.
func (b *Balance) Add(r *Request) {
	switch r.Status {
	case RequestPending:
		b.PendingUSD = b.PendingUSD.Add(r.USDAmount)
		b.PendingCount++
	case RequestReceived:
		b.ReceivedLocal = b.ReceivedLocal.Add(r.LocalAmount())
		b.ReceivedCount++
	}
}

// Merge combines two partial balances of the same conversation.
func (b *Balance) Merge(other *Balance) {
	b.PendingUSD = b.PendingUSD.Add(other.PendingUSD)
	b.ReceivedLocal = b.ReceivedLocal.Add(other.ReceivedLocal)
	b.PendingCount += other.PendingCount
	b.ReceivedCount += other.ReceivedCount
}
