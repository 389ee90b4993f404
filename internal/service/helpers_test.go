package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/tally/internal/cache"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
	"github.com/vedran77/tally/internal/repository/memory"
	"go.uber.org/zap"
)

type fixture struct {
	store  *memory.Store
	ledger *LedgerService
	rates  *RateService
	admin  *AdminService
	feed   *FeedService
	cache  *memCache
	alice  *domain.User
	bob    *domain.User
	key    domain.ConversationKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	c := newMemCache()
	admin := NewAdminService(store.Config(), store.Users(), NewRoleAuthorizer(), c, AdminConfig{
		CacheTTL: time.Minute,
		Fallback: domain.FallbackRate,
	}, zap.NewNop())

	f := &fixture{
		store:  store,
		ledger: NewLedgerService(store, store.Requests(), store.Messages(), store.Preferences()),
		rates:  NewRateService(store.Preferences(), admin, domain.FallbackRate),
		admin:  admin,
		feed:   NewFeedService(store.Messages(), store.Users()),
		cache:  c,
		alice:  addUser(t, store, "alice", false),
		bob:    addUser(t, store, "bob", false),
	}

	key, err := domain.DeriveKey(f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	f.key = key

	return f
}

func addUser(t *testing.T, store *memory.Store, name string, isAdmin bool) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), DisplayName: name, IsAdmin: isAdmin, CreatedAt: time.Now()}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
	gets int
}

var _ cache.Cache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }
func (c *memCache) Close() error               { return nil }

// failingMessages fails every write, to exercise rollback.
type failingMessages struct {
	repository.MessageRepository
}

var errMessageWrite = errors.New("message write failed")

func (failingMessages) Create(context.Context, *domain.Message) error {
	return errMessageWrite
}

// stalledConfig reads the stored value and then holds the caller until
// release is closed. Only the first Get stalls.
type stalledConfig struct {
	repository.ConfigRepository
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newStalledConfig(inner repository.ConfigRepository) *stalledConfig {
	return &stalledConfig{
		ConfigRepository: inner,
		loaded:           make(chan struct{}),
		release:          make(chan struct{}),
	}
}

func (c *stalledConfig) Get(ctx context.Context, key string) (*domain.ConfigEntry, error) {
	entry, err := c.ConfigRepository.Get(ctx, key)
	c.once.Do(func() {
		close(c.loaded)
		<-c.release
	})
	return entry, err
}

// brokenLookup fails request message lookups.
type brokenLookup struct {
	repository.MessageRepository
}

var errLookup = errors.New("lookup failed")

func (brokenLookup) GetByRequestID(context.Context, uuid.UUID) (*domain.Message, error) {
	return nil, errLookup
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []*domain.Message
	deleted  []uuid.UUID
	updated  []*domain.Request
}

func (n *recordingNotifier) NotifyMessage(msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) NotifyMessageDeleted(_ domain.ConversationKey, id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, id)
}

func (n *recordingNotifier) NotifyRequestUpdated(_ domain.ConversationKey, req *domain.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, req)
}
