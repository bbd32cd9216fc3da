package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/quizzer/internal/config"
	"github.com/aliskhannn/quizzer/internal/delivery/httpapi"
	"github.com/aliskhannn/quizzer/internal/delivery/telegram"
	"github.com/aliskhannn/quizzer/internal/infra/backend"
	"github.com/aliskhannn/quizzer/internal/infra/postgres"
	"github.com/aliskhannn/quizzer/internal/infra/postgres/repository"
	"github.com/aliskhannn/quizzer/internal/infra/redis"
	"github.com/aliskhannn/quizzer/internal/logger"
	"github.com/aliskhannn/quizzer/internal/metrics"
	"github.com/aliskhannn/quizzer/internal/persistence"
	"github.com/aliskhannn/quizzer/internal/service"
	"github.com/aliskhannn/quizzer/internal/session"
	"github.com/aliskhannn/quizzer/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("quizzer stopped with error", zap.Error(err))
	}
	lg.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	metrics.Init()

	var pool *pgxpool.Pool
	if cfg.NeedsDatabase() {
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return err
		}

		pool, err = postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Snapshot storage.
	var (
		kv     persistence.KV
		purger service.ExpiredPurger
	)
	switch cfg.Persistence.Driver {
	case config.DriverRedis:
		rdb, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		kv = persistence.NewRedisKV(rdb)

	case config.DriverPostgres:
		pkv := persistence.NewPostgresKV(pool)
		kv, purger = pkv, pkv

	default:
		kv = persistence.NewMemoryKV()
	}

	// Question source and history sink.
	var (
		source service.QuestionSource
		sink   service.HistorySink
	)
	switch cfg.Questions.Source {
	case config.SourceBackend:
		client := backend.NewClient(cfg.Questions.BackendURL, &http.Client{Timeout: cfg.Questions.Timeout})
		source, sink = client, client
	default:
		source = repository.NewQuestionRepository(pool)
		sink = service.NewHistoryService(postgres.NewTransactor(pool))
	}

	lg.Info("storage configured",
		zap.String("persistence", cfg.Persistence.Driver),
		zap.String("questions", cfg.Questions.Source),
	)

	cache := storage.NewQuestionSetStorage()
	quizzes := service.NewQuizService(
		source,
		sink,
		kv,
		cache,
		service.NewShuffler(nil),
		session.RealClock(),
		service.Config{
			SessionBudget:  cfg.Session.Budget(),
			SnapshotTTL:    cfg.Session.SnapshotTTL,
			WarningSeconds: cfg.Session.WarningSeconds,
			IdleTTL:        cfg.Session.IdleTTL,
		},
		lg,
	)

	var bot *telegram.Handler
	if cfg.Telegram.Enabled {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return err
		}
		api.Debug = cfg.Telegram.Debug
		lg.Info("authorized on telegram", zap.String("account", api.Self.UserName))

		setCommands(api, lg)

		bot = telegram.NewHandler(api, lg, quizzes, storage.NewQuestionMessageStorage())
		quizzes.SetEventHandler(bot.OnSessionEvent)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := httpapi.NewRateLimiter(cfg.HTTP.SignalRate, cfg.HTTP.SignalBurst)
	router := httpapi.NewRouter(httpapi.NewHandler(quizzes, lg), limiter, lg)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	janitor := service.NewJanitor(quizzes, cache, purger, cfg.Session.JanitorSchedule, cfg.Session.IdleTTL, lg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		janitor.Start(gctx)
		return nil
	})

	g.Go(func() error {
		limiter.Run(gctx.Done(), time.Minute, 10*time.Minute)
		return nil
	})

	if bot != nil {
		g.Go(func() error {
			if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func setCommands(api *tgbotapi.BotAPI, lg *zap.Logger) {
	commands := []tgbotapi.BotCommand{
		{
			Command:     "academic",
			Description: "Prepare a coursework quiz (/academic level faculty year [count])",
		},
		{
			Command:     "entrance",
			Description: "Prepare an entrance exam quiz (/entrance name [difficulty] [count])",
		},
		{
			Command:     "resume",
			Description: "Continue an unfinished quiz",
		},
		{
			Command:     "again",
			Description: "Replay the last questions in a new order",
		},
		{
			Command:     "stop",
			Description: "Discard a quiz",
		},
		{
			Command:     "help",
			Description: "Help",
		},
	}

	if _, err := api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}
}
