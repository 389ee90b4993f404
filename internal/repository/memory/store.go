// Package memory is a process-local implementation of the repository
// interfaces. Transactions are serialized behind one mutex and rolled back
// by restoring a snapshot.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
)

var (
	_ repository.UserRepository       = (*UserRepo)(nil)
	_ repository.MessageRepository    = (*MessageRepo)(nil)
	_ repository.RequestRepository    = (*RequestRepo)(nil)
	_ repository.PreferenceRepository = (*PreferenceRepo)(nil)
	_ repository.ConfigRepository     = (*ConfigRepo)(nil)
	_ repository.Transactor           = (*Store)(nil)
)

type txKey struct{}

type state struct {
	users    map[uuid.UUID]domain.User
	messages map[uuid.UUID]domain.Message
	requests map[uuid.UUID]domain.Request
	prefs    map[domain.ConversationKey]domain.RatePreference
	config   map[string]domain.ConfigEntry
	seq      int64

	// byRequest maps a request id to the id of its request message.
	byRequest map[uuid.UUID]uuid.UUID
	// byConversation holds message ids in insertion order.
	byConversation map[domain.ConversationKey][]uuid.UUID
}

func (s *state) clone() *state {
	byConversation := make(map[domain.ConversationKey][]uuid.UUID, len(s.byConversation))
	for key, ids := range s.byConversation {
		byConversation[key] = slices.Clone(ids)
	}

	return &state{
		users:          maps.Clone(s.users),
		messages:       maps.Clone(s.messages),
		requests:       maps.Clone(s.requests),
		prefs:          maps.Clone(s.prefs),
		config:         maps.Clone(s.config),
		seq:            s.seq,
		byRequest:      maps.Clone(s.byRequest),
		byConversation: byConversation,
	}
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: &state{
		users:    make(map[uuid.UUID]domain.User),
		messages: make(map[uuid.UUID]domain.Message),
		requests: make(map[uuid.UUID]domain.Request),
		prefs:    make(map[domain.ConversationKey]domain.RatePreference),
		config:   make(map[string]domain.ConfigEntry),

		byRequest:      make(map[uuid.UUID]uuid.UUID),
		byConversation: make(map[domain.ConversationKey][]uuid.UUID),
	}}
}

// lock is a no-op inside a transaction started by this store.
func (s *Store) lock(ctx context.Context) func() {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Users() *UserRepo             { return &UserRepo{s} }
func (s *Store) Messages() *MessageRepo       { return &MessageRepo{s} }
func (s *Store) Requests() *RequestRepo       { return &RequestRepo{s} }
func (s *Store) Preferences() *PreferenceRepo { return &PreferenceRepo{s} }
func (s *Store) Config() *ConfigRepo          { return &ConfigRepo{s} }

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	defer r.s.lock(ctx)()
	for _, u := range r.s.st.users {
		if u.DisplayName == user.DisplayName {
			return repository.ErrConflict
		}
	}
	r.s.st.users[user.ID] = *user
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.st.users {
		if u.DisplayName == displayName {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) ListExcept(ctx context.Context, id uuid.UUID) ([]domain.User, error) {
	defer r.s.lock(ctx)()
	var users []domain.User
	for _, u := range r.s.st.users {
		if u.ID != id {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].DisplayName < users[j].DisplayName })
	return users, nil
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	defer r.s.lock(ctx)()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil
	}
	u.AvatarURL = &avatarURL
	u.UpdatedAt = time.Now()
	r.s.st.users[id] = u
	return nil
}

func (r *UserRepo) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	defer r.s.lock(ctx)()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil
	}
	u.IsAdmin = isAdmin
	u.UpdatedAt = time.Now()
	r.s.st.users[id] = u
	return nil
}

type MessageRepo struct{ s *Store }

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	defer r.s.lock(ctx)()
	st := r.s.st
	if _, ok := st.messages[msg.ID]; ok {
		return repository.ErrConflict
	}
	if msg.RequestID != nil {
		if _, ok := st.byRequest[*msg.RequestID]; ok {
			return repository.ErrConflict
		}
		st.byRequest[*msg.RequestID] = msg.ID
	}
	st.seq++
	msg.Seq = st.seq
	st.messages[msg.ID] = *msg
	st.byConversation[msg.ConversationKey] = append(st.byConversation[msg.ConversationKey], msg.ID)
	return nil
}

func (r *MessageRepo) ListByConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Message, error) {
	defer r.s.lock(ctx)()
	return r.s.conversationMessages(key), nil
}

func (r *MessageRepo) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Message, error) {
	defer r.s.lock(ctx)()
	if m := r.s.messageFor(requestID); m != nil {
		return m, nil
	}
	return nil, nil
}

func (r *MessageRepo) DeleteByRequestID(ctx context.Context, requestID uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()
	st := r.s.st
	m := r.s.messageFor(requestID)
	if m == nil {
		return false, nil
	}
	delete(st.messages, m.ID)
	delete(st.byRequest, requestID)
	ids := st.byConversation[m.ConversationKey]
	if i := slices.Index(ids, m.ID); i >= 0 {
		st.byConversation[m.ConversationKey] = slices.Delete(ids, i, i+1)
	}
	return true, nil
}

// conversationMessages returns the conversation's messages by insertion order.
func (s *Store) conversationMessages(key domain.ConversationKey) []domain.Message {
	ids := s.st.byConversation[key]
	out := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.st.messages[id])
	}
	return out
}

func (s *Store) messageFor(requestID uuid.UUID) *domain.Message {
	id, ok := s.st.byRequest[requestID]
	if !ok {
		return nil
	}
	m := s.st.messages[id]
	return &m
}

type RequestRepo struct{ s *Store }

func (r *RequestRepo) Create(ctx context.Context, req *domain.Request) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.requests[req.ID]; ok {
		return repository.ErrConflict
	}
	r.s.st.requests[req.ID] = *req
	return nil
}

func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.st.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r *RequestRepo) MarkReceived(ctx context.Context, id uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.st.requests[id]
	if !ok || req.Status != domain.RequestPending {
		return false, nil
	}
	req.Status = domain.RequestReceived
	r.s.st.requests[id] = req
	return true, nil
}

func (r *RequestRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.requests[id]; !ok {
		return false, nil
	}
	delete(r.s.st.requests, id)
	return true, nil
}

func (r *RequestRepo) ListByConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Request, error) {
	defer r.s.lock(ctx)()
	var out []domain.Request
	for _, m := range r.s.conversationMessages(key) {
		if m.Kind != domain.MessageKindRequest || m.RequestID == nil {
			continue
		}
		if req, ok := r.s.st.requests[*m.RequestID]; ok {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *RequestRepo) DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for id, req := range r.s.st.requests {
		if !req.CreatedAt.Before(cutoff) || r.s.messageFor(id) != nil {
			continue
		}
		delete(r.s.st.requests, id)
		n++
	}
	return n, nil
}

type PreferenceRepo struct{ s *Store }

func (r *PreferenceRepo) Upsert(ctx context.Context, key domain.ConversationKey, rate decimal.Decimal) error {
	defer r.s.lock(ctx)()
	r.s.st.prefs[key] = domain.RatePreference{
		ConversationKey: key,
		LastRate:        rate,
		UpdatedAt:       time.Now(),
	}
	return nil
}

func (r *PreferenceRepo) Get(ctx context.Context, key domain.ConversationKey) (*domain.RatePreference, error) {
	defer r.s.lock(ctx)()
	pref, ok := r.s.st.prefs[key]
	if !ok {
		return nil, nil
	}
	return &pref, nil
}

type ConfigRepo struct{ s *Store }

func (r *ConfigRepo) Get(ctx context.Context, key string) (*domain.ConfigEntry, error) {
	defer r.s.lock(ctx)()
	entry, ok := r.s.st.config[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *ConfigRepo) Set(ctx context.Context, key, value string) error {
	defer r.s.lock(ctx)()
	r.s.st.config[key] = domain.ConfigEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	return nil
}
