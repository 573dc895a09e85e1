package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/rag-assistant/internal/api"
	"github.com/futig/rag-assistant/internal/api/web"
	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/integration/rag"
	"github.com/futig/rag-assistant/internal/metrics"
	"github.com/futig/rag-assistant/internal/session"
	"github.com/futig/rag-assistant/internal/telegram"
	"go.uber.org/zap"
)

const mockDelay = 500 * time.Millisecond

// ragConnector is the backend as seen by sessions and the health endpoint
type ragConnector interface {
	session.RagConnector
	api.HealthChecker
}

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	metrics.Init()

	connector := setupConnector(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	registry := setupSessions(ctx, cfg, connector, logger)

	webHandler := web.NewHandler(registry, web.Options{
		MaxUploadSize: cfg.FileUploadCfg.MaxUploadSize,
		CookieSecure:  cfg.SessionCfg.CookieSecure,
		CookieMaxAge:  cfg.SessionCfg.TTL,
	})
	logger.Info("Web handler initialized")

	router := api.SetupRouter(webHandler, connector, logger)
	logger.Info("HTTP router configured")

	// No WriteTimeout: websocket connections stay open for the lifetime of the page
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:   server,
		sessions: registry,
		cancel:   cancel,
		logger:   logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.ValidateTelegram(); err != nil {
		return nil, nil, err
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	metrics.Init()

	connector := setupConnector(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	registry := setupSessions(ctx, cfg, connector, logger)

	bot, err := telegram.NewBot(&cfg.TelegramCfg, registry, time.Local, logger)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &telegramApp{Bot: bot, sessions: registry, cancel: cancel}, logger, nil
}

func setupConnector(cfg *config.Config, logger *zap.Logger) ragConnector {
	if cfg.EnableMocks {
		logger.Info("Using mock connector for the RAG backend")
		return rag.NewMockConnector(logger, mockDelay)
	}

	logger.Info("Using RAG backend", zap.String("url", cfg.RAGConnectorCfg.Url))
	return rag.NewConnector(cfg.RAGConnectorCfg, logger)
}

func setupSessions(ctx context.Context, cfg *config.Config, connector session.RagConnector, logger *zap.Logger) *session.Registry {
	factory := func(ctx context.Context, id string) *session.Session {
		return session.New(ctx, id, connector, logger)
	}

	logger.Info("Session registry initialized",
		zap.Duration("ttl", cfg.SessionCfg.TTL),
	)

	return session.NewRegistry(ctx, cfg.SessionCfg, factory, logger)
}

// telegramApp closes the chat sessions once the bot has stopped
type telegramApp struct {
	telegram.Bot
	sessions *session.Registry
	cancel   context.CancelFunc
}

func (a *telegramApp) Stop() error {
	err := a.Bot.Stop()
	a.sessions.Close()
	a.cancel()
	return err
}
