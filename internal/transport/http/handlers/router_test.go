package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/tally/internal/cache"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository/memory"
	"github.com/vedran77/tally/internal/service"
	"github.com/vedran77/tally/pkg/passhash"
	"go.uber.org/zap"
)

const (
	testJWTSecret   = "handler-test-secret"
	testAdminSecret = "open-sesame"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
}

type session struct {
	ID    uuid.UUID
	Token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	logger := zap.NewNop()

	secretHash, err := passhash.Hash(testAdminSecret)
	require.NoError(t, err)

	admin := service.NewAdminService(store.Config(), store.Users(), service.NewRoleAuthorizer(), cache.Nop{}, service.AdminConfig{
		Fallback:   domain.FallbackRate,
		SecretHash: secretHash,
	}, logger)
	ledger := service.NewLedgerService(store, store.Requests(), store.Messages(), store.Preferences())
	feed := service.NewFeedService(store.Messages(), store.Users())
	rates := service.NewRateService(store.Preferences(), admin, domain.FallbackRate)

	router := NewRouter(RouterConfig{
		JWTSecret:     testJWTSecret,
		CORSOrigins:   []string{"*"},
		Logger:        logger,
		Auth:          NewAuthHandler(service.NewAuthService(store.Users(), testJWTSecret), logger),
		Users:         NewUserHandler(service.NewUserService(store.Users()), logger),
		Conversations: NewConversationHandler(feed, ledger, rates, service.NewBalanceService(store.Requests()), logger),
		Requests:      NewRequestHandler(ledger, logger),
		Admin:         NewAdminHandler(admin, logger),
	})

	return &testServer{t: t, handler: router, store: store}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(name string) session {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"display_name": name,
		"password":     "Passw0rdOK",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User        domain.User `json:"user"`
		AccessToken string      `json:"access_token"`
	}
	decode(s.t, rec, &resp)
	return session{ID: resp.User.ID, Token: resp.AccessToken}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, rec, &resp)
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/users", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterConflictAndLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("ana")

	rec := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"display_name": "ana",
		"password":     "Passw0rdOK",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DISPLAY_NAME_TAKEN", errorCode(t, rec))

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"display_name": "ana",
		"password":     "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"display_name": "ana",
		"password":     "Passw0rdOK",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"display_name": "",
		"password":     "x",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "display_name")
	assert.Contains(t, resp.Error.Fields, "password")
}

func TestUsers(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana")
	s.register("ben")

	rec := s.do(http.MethodGet, "/api/v1/users", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []domain.User
	decode(t, rec, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "ben", users[0].DisplayName)

	rec = s.do(http.MethodPut, "/api/v1/users/me/avatar", ana.Token, map[string]string{
		"avatar_url": "https://img.example.com/ana.png",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/users/me", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	decode(t, rec, &me)
	require.NotNil(t, me.AvatarURL)
	assert.Equal(t, "https://img.example.com/ana.png", *me.AvatarURL)
}

func TestRequestLifecycle(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana")
	ben := s.register("ben")
	conv := "/api/v1/conversations/" + ben.ID.String()

	rec := s.do(http.MethodGet, conv+"/rate", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var quote service.RateQuote
	decode(t, rec, &quote)
	assert.Equal(t, service.RateSourceFallback, quote.Source)
	assert.True(t, quote.Rate.Equal(domain.FallbackRate))

	rec = s.do(http.MethodPost, conv+"/requests", ana.Token, map[string]any{
		"usd_amount": "50",
		"rate":       "6.8",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req domain.Request
	decode(t, rec, &req)
	assert.Equal(t, domain.RequestPending, req.Status)

	// the peer sees the same conversation from the other side
	rec = s.do(http.MethodGet, "/api/v1/conversations/"+ana.ID.String()+"/messages", ben.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []domain.Message
	decode(t, rec, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MessageKindRequest, msgs[0].Kind)

	rec = s.do(http.MethodPost, "/api/v1/requests/"+req.ID.String()+"/confirm", ben.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, conv+"/balance", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance domain.Balance
	decode(t, rec, &balance)
	assert.True(t, balance.PendingUSD.IsZero())
	assert.True(t, balance.ReceivedLocal.Equal(decimal.NewFromInt(340)), balance.ReceivedLocal.String())

	// rate is optional and defaults to the conversation's last rate
	rec = s.do(http.MethodPost, conv+"/requests", ana.Token, map[string]any{"usd_amount": 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var second domain.Request
	decode(t, rec, &second)
	assert.True(t, second.Rate.Equal(decimal.RequireFromString("6.8")))

	rec = s.do(http.MethodDelete, "/api/v1/requests/"+req.ID.String(), ana.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/requests/"+req.ID.String(), ana.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestRoutesCheckParticipants(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana")
	ben := s.register("ben")
	eve := s.register("eve")

	rec := s.do(http.MethodPost, "/api/v1/conversations/"+ben.ID.String()+"/requests", ana.Token, map[string]any{
		"usd_amount": "5",
		"rate":       "7",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var req domain.Request
	decode(t, rec, &req)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/requests/" + req.ID.String()},
		{http.MethodPost, "/api/v1/requests/" + req.ID.String() + "/confirm"},
		{http.MethodDelete, "/api/v1/requests/" + req.ID.String()},
	} {
		rec := s.do(tc.method, tc.path, eve.Token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.method+" "+tc.path)
	}
}

func TestConversationErrors(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana")

	rec := s.do(http.MethodGet, "/api/v1/conversations/not-a-uuid/messages", ana.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/conversations/"+ana.ID.String()+"/messages", ana.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SELF_CONVERSATION", errorCode(t, rec))

	rec = s.do(http.MethodGet, "/api/v1/conversations/"+uuid.NewString()+"/messages", ana.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessage(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana")
	ben := s.register("ben")
	path := "/api/v1/conversations/" + ben.ID.String() + "/messages"

	rec := s.do(http.MethodPost, path, ana.Token, map[string]string{"body": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, path, ana.Token, map[string]string{"body": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana")

	rec := s.do(http.MethodPut, "/api/v1/admin/rate", ana.Token, map[string]string{"rate": "7.1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/admin/promote", ana.Token, map[string]string{"secret": "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/admin/promote", ana.Token, map[string]string{"secret": testAdminSecret})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, "/api/v1/admin/rate", ana.Token, map[string]string{"rate": "7.1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/admin/rate", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Rate decimal.Decimal `json:"rate"`
	}
	decode(t, rec, &resp)
	assert.True(t, resp.Rate.Equal(decimal.RequireFromString("7.1")))
}

func TestRequestWithoutMessageStillReachable(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana")
	ben := s.register("ben")
	eve := s.register("eve")

	rec := s.do(http.MethodPost, "/api/v1/conversations/"+ben.ID.String()+"/requests", ana.Token, map[string]any{
		"usd_amount": "5",
		"rate":       "7",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var req domain.Request
	decode(t, rec, &req)

	_, err := s.store.Messages().DeleteByRequestID(context.Background(), req.ID)
	require.NoError(t, err)

	path := "/api/v1/requests/" + req.ID.String()

	rec = s.do(http.MethodGet, path, eve.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, path, ben.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, path, ana.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, path, ana.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
