package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestReceived RequestStatus = "received"
)

// Request asks the other participant for USDAmount, convertible at Rate.
// The rate is captured at creation and never changes.
type Request struct {
	ID          uuid.UUID       `json:"id"`
	USDAmount   decimal.Decimal `json:"usd_amount"`
	Rate        decimal.Decimal `json:"rate"`
	Status      RequestStatus   `json:"status"`
	SenderID    uuid.UUID       `json:"sender_id"`
	RecipientID *uuid.UUID      `json:"recipient_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LocalAmount is the USD amount converted at the captured rate.
func (r *Request) LocalAmount() decimal.Decimal {
	return r.USDAmount.Mul(r.Rate)
}

func (r *Request) IsReceived() bool {
	return r.Status == RequestReceived
}
