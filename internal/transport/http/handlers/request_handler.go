package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/tally/internal/service"
	"github.com/vedran77/tally/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type RequestHandler struct {
	ledger *service.LedgerService
	logger *zap.Logger
}

func NewRequestHandler(ledger *service.LedgerService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{ledger: ledger, logger: logger}
}

// authorize resolves the request id and checks that the caller takes part
// in the request.
func (h *RequestHandler) authorize(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := pathUUID(w, r, "id", "request")
	if !ok {
		return uuid.Nil, false
	}

	if err := h.ledger.CheckParticipant(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, h.logger, "check request participant", err)
		return uuid.Nil, false
	}

	return id, true
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	req, err := h.ledger.GetRequest(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get request", err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	req, err := h.ledger.ConfirmRequest(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "confirm request", err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.ledger.DeleteRequest(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "delete request", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
