package handlers

import (
	"net/http"

	"github.com/vedran77/tally/internal/service"
	"github.com/vedran77/tally/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	users, err := h.userService.ListUsers(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "list users", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "get user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		AvatarURL string `json:"avatar_url"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.userService.UpdateAvatar(r.Context(), userID, input.AvatarURL)
	if err != nil {
		writeServiceError(w, h.logger, "update avatar", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
