package handlers

import (
	"net/http"

	"github.com/vedran77/tally/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	JWTSecret   string
	CORSOrigins []string
	Logger      *zap.Logger

	Auth          *AuthHandler
	Users         *UserHandler
	Conversations *ConversationHandler
	Requests      *RequestHandler
	Admin         *AdminHandler
	// Realtime is mounted at /ws when set. It authenticates on its own.
	Realtime http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	auth := middleware.Auth(cfg.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/v1/auth/register", cfg.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", cfg.Auth.Login)

	// Protected - Users
	mux.Handle("GET /api/v1/users", protected(cfg.Users.List))
	mux.Handle("GET /api/v1/users/me", protected(cfg.Users.Me))
	mux.Handle("PUT /api/v1/users/me/avatar", protected(cfg.Users.UpdateAvatar))

	// Protected - Conversations
	mux.Handle("GET /api/v1/conversations/{peerID}/messages", protected(cfg.Conversations.ListMessages))
	mux.Handle("POST /api/v1/conversations/{peerID}/messages", protected(cfg.Conversations.SendMessage))
	mux.Handle("POST /api/v1/conversations/{peerID}/requests", protected(cfg.Conversations.CreateRequest))
	mux.Handle("GET /api/v1/conversations/{peerID}/rate", protected(cfg.Conversations.GetRate))
	mux.Handle("GET /api/v1/conversations/{peerID}/balance", protected(cfg.Conversations.GetBalance))

	// Protected - Requests
	mux.Handle("GET /api/v1/requests/{id}", protected(cfg.Requests.Get))
	mux.Handle("POST /api/v1/requests/{id}/confirm", protected(cfg.Requests.Confirm))
	mux.Handle("DELETE /api/v1/requests/{id}", protected(cfg.Requests.Delete))

	// Protected - Admin
	mux.Handle("GET /api/v1/admin/rate", protected(cfg.Admin.GetRate))
	mux.Handle("PUT /api/v1/admin/rate", protected(cfg.Admin.SetRate))
	mux.Handle("POST /api/v1/admin/promote", protected(cfg.Admin.Promote))

	if cfg.Realtime != nil {
		mux.Handle("GET /ws", cfg.Realtime)
	}

	var h http.Handler = mux
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.Logging(cfg.Logger)(h)
	return h
}
