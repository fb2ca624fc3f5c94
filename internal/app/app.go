package app

import (
	"context"
	"time"

	tmsbot "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/bot"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/config"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/database"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/handlers"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/lang"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/pkg/metrics"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/pool"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/ratelimit"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/retrieval"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/session"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/shutdown"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	pollTimeoutSeconds     = 60
	limiterSweepInterval   = time.Minute
	limiterIdle            = 10 * time.Minute
)

// Application is the running bot with everything it owns.
type Application struct {
	config   *config.Config
	bot      *tmsbot.Bot
	handler  *handlers.Handler
	pool     *pool.Pool
	sessions *session.Store
	limiter  domain.RateLimiterInterface
	history  domain.TransferHistory
}

// New wires the bot. The config must already be loaded; logging and the
// message catalogue are set up here.
func New(cfg *config.Config) (*Application, error) {
	if err := cfg.ValidateForBot(); err != nil {
		return nil, err
	}
	logutils.InitLogger(cfg.LogLevel)
	lang.SetupLang(cfg.Lang)

	history, err := database.NewHistory(cfg.HistoryDBPath)
	if err != nil {
		return nil, err
	}

	botInstance, err := tmsbot.NewBot(cfg.BotToken, cfg.TelegramAPIEndpoint)
	if err != nil {
		_ = history.Close()
		return nil, err
	}

	stack := NewFetchStack(cfg)
	fs := cfg.GetFetchSettings()
	workers := pool.New(fs.MaxConcurrentFetches)
	sessions := session.NewStore(cfg.GetSessionSettings().TTL, nil)
	limiter := ratelimit.New(cfg.RateLimitPerMinute)
	m := metrics.NewInMemoryMetrics()

	service := retrieval.NewService(retrieval.Dependencies{
		Classifier:    stack.Classifier,
		Resolver:      stack.Resolver,
		Sessions:      sessions,
		Fetcher:       stack.Fetcher,
		Pool:          workers,
		Messenger:     botInstance,
		History:       history,
		Metrics:       m,
		UploadTimeout: fs.UploadTimeout,
	})

	return &Application{
		config:   cfg,
		bot:      botInstance,
		handler:  handlers.New(botInstance, service, limiter, m),
		pool:     workers,
		sessions: sessions,
		limiter:  limiter,
		history:  history,
	}, nil
}

// Run polls Telegram until ctx is cancelled or a termination signal arrives,
// then shuts everything down in order.
func (a *Application) Run(ctx context.Context) error {
	loopCtx, stopLoops := context.WithCancel(ctx)
	defer stopLoops()

	go a.sessions.Run(loopCtx, a.config.GetSessionSettings().CleanupInterval)
	if limiter, ok := a.limiter.(*ratelimit.ActorLimiter); ok {
		go limiter.Run(loopCtx, limiterSweepInterval, limiterIdle)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := a.bot.GetUpdatesChan(u)
	go a.handler.Run(loopCtx, updates)

	logutils.Log.Info("Telegram fetch bot started successfully")

	manager := shutdown.NewManager(defaultShutdownTimeout)
	manager.Register(a.bot)
	manager.Register(shutdown.NewFunc("background-loops", func(context.Context) error {
		stopLoops()
		return nil
	}))
	manager.Register(a.handler)
	manager.Register(a.pool)
	if closer, ok := a.history.(domain.GracefulShutdownInterface); ok {
		manager.Register(closer)
	}

	if err := manager.WaitForShutdown(ctx); err != nil {
		logutils.Log.WithError(err).Error("Graceful shutdown completed with errors")
		return err
	}
	logutils.Log.Info("Telegram fetch bot shutdown complete")
	return nil
}
