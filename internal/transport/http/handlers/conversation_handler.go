package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/service"
	"github.com/vedran77/tally/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// ConversationHandler serves the routes scoped to a conversation with a
// peer, addressed by the peer's user id.
type ConversationHandler struct {
	feed     *service.FeedService
	ledger   *service.LedgerService
	rates    *service.RateService
	balances *service.BalanceService
	logger   *zap.Logger
}

func NewConversationHandler(
	feed *service.FeedService,
	ledger *service.LedgerService,
	rates *service.RateService,
	balances *service.BalanceService,
	logger *zap.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		feed:     feed,
		ledger:   ledger,
		rates:    rates,
		balances: balances,
		logger:   logger,
	}
}

func (h *ConversationHandler) conversation(w http.ResponseWriter, r *http.Request) (domain.ConversationKey, bool) {
	peerID, ok := pathUUID(w, r, "peerID", "user")
	if !ok {
		return "", false
	}

	key, err := h.feed.OpenConversation(r.Context(), middleware.GetUserID(r.Context()), peerID)
	if err != nil {
		writeServiceError(w, h.logger, "open conversation", err)
		return "", false
	}
	return key, true
}

func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	key, ok := h.conversation(w, r)
	if !ok {
		return
	}

	msgs, err := h.feed.ListMessages(r.Context(), key)
	if err != nil {
		writeServiceError(w, h.logger, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	key, ok := h.conversation(w, r)
	if !ok {
		return
	}

	var input struct {
		Body string `json:"body"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	msg, err := h.feed.SendMessage(r.Context(), key, middleware.GetUserID(r.Context()), input.Body)
	if err != nil {
		writeServiceError(w, h.logger, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *ConversationHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	key, ok := h.conversation(w, r)
	if !ok {
		return
	}

	var input struct {
		USDAmount decimal.Decimal  `json:"usd_amount"`
		Rate      *decimal.Decimal `json:"rate"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	rate := input.Rate
	if rate == nil {
		resolved, err := h.rates.ResolveDefaultRate(r.Context(), key)
		if err != nil {
			writeServiceError(w, h.logger, "resolve default rate", err)
			return
		}
		rate = &resolved
	}

	req, err := h.ledger.CreateRequest(r.Context(), key, middleware.GetUserID(r.Context()), input.USDAmount, *rate)
	if err != nil {
		writeServiceError(w, h.logger, "create request", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (h *ConversationHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	key, ok := h.conversation(w, r)
	if !ok {
		return
	}

	quote, err := h.rates.Quote(r.Context(), key)
	if err != nil {
		writeServiceError(w, h.logger, "resolve default rate", err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (h *ConversationHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	key, ok := h.conversation(w, r)
	if !ok {
		return
	}

	balance, err := h.balances.ComputeBalance(r.Context(), key)
	if err != nil {
		writeServiceError(w, h.logger, "compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}
