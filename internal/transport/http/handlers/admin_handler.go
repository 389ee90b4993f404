package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/vedran77/tally/internal/service"
	"github.com/vedran77/tally/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService *service.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

type rateResponse struct {
	Rate decimal.Decimal `json:"rate"`
}

func (h *AdminHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.adminService.GetStandardRate(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "get standard rate", err)
		return
	}

	writeJSON(w, http.StatusOK, rateResponse{Rate: rate})
}

func (h *AdminHandler) SetRate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	rate, err := h.adminService.SetStandardRate(r.Context(), middleware.GetUserID(r.Context()), input.Rate)
	if err != nil {
		writeServiceError(w, h.logger, "set standard rate", err)
		return
	}

	writeJSON(w, http.StatusOK, rateResponse{Rate: rate})
}

func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Secret string `json:"secret"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.adminService.PromoteToAdmin(r.Context(), middleware.GetUserID(r.Context()), input.Secret)
	if err != nil {
		writeServiceError(w, h.logger, "promote to admin", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
