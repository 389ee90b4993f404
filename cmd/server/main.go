package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/tally/internal/cache"
	"github.com/vedran77/tally/internal/config"
	"github.com/vedran77/tally/internal/database"
	"github.com/vedran77/tally/internal/repository"
	"github.com/vedran77/tally/internal/repository/memory"
	postgresrepo "github.com/vedran77/tally/internal/repository/postgres"
	"github.com/vedran77/tally/internal/service"
	"github.com/vedran77/tally/internal/transport/http/handlers"
	"github.com/vedran77/tally/internal/transport/ws"
	"github.com/vedran77/tally/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	tx       repository.Transactor
	users    repository.UserRepository
	messages repository.MessageRepository
	requests repository.RequestRepository
	prefs    repository.PreferenceRepository
	config   repository.ConfigRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	st, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Cache
	var rateCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		rateCache = rc
		logger.Info("Connected to redis")
	}

	// Services
	authService := service.NewAuthService(st.users, cfg.JWTSecret)
	userService := service.NewUserService(st.users)
	adminService := service.NewAdminService(st.config, st.users, service.NewRoleAuthorizer(), rateCache, service.AdminConfig{
		CacheTTL:   cfg.RateCacheTTL,
		Fallback:   cfg.DefaultRate,
		SecretHash: cfg.AdminSecretHash,
	}, logger)
	rateService := service.NewRateService(st.prefs, adminService, cfg.DefaultRate)
	ledgerService := service.NewLedgerService(st.tx, st.requests, st.messages, st.prefs)
	balanceService := service.NewBalanceService(st.requests)
	feedService := service.NewFeedService(st.messages, st.users)

	// Realtime
	hub := ws.NewHub(logger)
	notifier := ws.NewHubNotifier(hub, logger)
	ledgerService.SetNotifier(notifier)
	ledgerService.SetLogger(logger)
	feedService.SetNotifier(notifier)

	sweeper := worker.NewOrphanSweeper(ledgerService, cfg.OrphanSweepInterval, cfg.OrphanGrace, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:     cfg.JWTSecret,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
		Auth:          handlers.NewAuthHandler(authService, logger),
		Users:         handlers.NewUserHandler(userService, logger),
		Conversations: handlers.NewConversationHandler(feedService, ledgerService, rateService, balanceService, logger),
		Requests:      handlers.NewRequestHandler(ledgerService, logger),
		Admin:         handlers.NewAdminHandler(adminService, logger),
		Realtime:      ws.ServeWS(hub, cfg.JWTSecret, cfg.CORSOrigins, logger),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store, data will not survive a restart")
		m := memory.NewStore()
		return &stores{
			tx:       m,
			users:    m.Users(),
			messages: m.Messages(),
			requests: m.Requests(),
			prefs:    m.Preferences(),
			config:   m.Config(),
		}, func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to database")

	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return postgresStores(pool), pool.Close, nil
}

func postgresStores(pool *pgxpool.Pool) *stores {
	return &stores{
		tx:       postgresrepo.NewTxManager(pool),
		users:    postgresrepo.NewUserRepo(pool),
		messages: postgresrepo.NewMessageRepo(pool),
		requests: postgresrepo.NewRequestRepo(pool),
		prefs:    postgresrepo.NewPreferenceRepo(pool),
		config:   postgresrepo.NewConfigRepo(pool),
	}
}
