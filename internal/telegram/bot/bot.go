package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/futig/rag-assistant/internal/config"
	pkglogger "github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/session"
	"github.com/futig/rag-assistant/internal/telegram/handlers"
	"github.com/futig/rag-assistant/internal/telegram/keyboard"
	"github.com/futig/rag-assistant/internal/telegram/middleware"
	"github.com/futig/rag-assistant/internal/telegram/render"
	"github.com/futig/rag-assistant/internal/view"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Bot represents the Telegram bot
type Bot struct {
	api         *tgbotapi.BotAPI
	client      handlers.API
	cfg         *config.TelegramConfig
	handlers    map[string]handlers.Handler
	sessions    handlers.SessionStore
	sender      *handlers.MessageSender
	watcher     *handlers.Watcher
	keyboard    *keyboard.Builder
	location    *time.Location
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New authorizes against the Bot API and wires every handler
func New(cfg *config.TelegramConfig, sessions handlers.SessionStore, loc *time.Location, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	b := newBot(cfg, api, newFileDownloader(api, logger), sessions, loc, logger)
	b.api = api

	return b, nil
}

func newBot(
	cfg *config.TelegramConfig,
	client handlers.API,
	downloader handlers.FileDownloader,
	sessions handlers.SessionStore,
	loc *time.Location,
	logger *zap.Logger,
) *Bot {
	sender := handlers.NewMessageSender(client, cfg.SendRetry)
	kb := keyboard.NewBuilder()

	b := &Bot{
		client:   client,
		cfg:      cfg,
		handlers: make(map[string]handlers.Handler),
		sessions: sessions,
		sender:   sender,
		watcher:  handlers.NewWatcher(client, sender, kb, loc, logger),
		keyboard: kb,
		location: loc,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	b.loggingMW = middleware.NewLoggingMiddleware(logger)
	b.recoveryMW = middleware.NewRecoveryMiddleware(logger, client)
	b.rateLimitMW = middleware.NewRateLimiterMiddleware(
		cfg.RateLimitPerMinute,
		cfg.RateLimitBurst,
		logger,
		client,
	)

	deps := handlers.Deps{
		Sender:   sender,
		Sessions: sessions,
		Watcher:  b.watcher,
		Keyboard: kb,
		Location: loc,
	}
	b.RegisterHandler(handlers.NewDocumentHandler(deps, downloader, cfg.MaxFileSize))
	b.RegisterHandler(handlers.NewTextHandler(deps))
	b.RegisterHandler(handlers.NewCallbackHandler(deps))

	return b
}

// RegisterHandler replaces the handler of the same kind
func (b *Bot) RegisterHandler(h handlers.Handler) {
	b.handlers[h.GetKind()] = h
}

// HandlerCount returns the number of registered handlers
func (b *Bot) HandlerCount() int {
	return len(b.handlers)
}

// Start starts polling for updates
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot is not connected to the Telegram API")
	}

	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops polling and waits for in-flight updates
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		if b.api != nil {
			b.api.StopReceivingUpdates()
		}
		b.rateLimitMW.Close()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware runs rate limiting, logging and recovery around the handler
func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(ctx, u3)
			})
		})
	})
}

// handleUpdate routes update to appropriate handler
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		query := update.CallbackQuery
		b.route(ctx, handlers.KindCallback, &handlers.Message{
			ChatID:       query.Message.Chat.ID,
			UserID:       query.From.ID,
			MessageID:    query.Message.MessageID,
			CallbackData: query.Data,
			CallbackID:   query.ID,
		})
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	msg := &handlers.Message{
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		Text:      message.Text,
		Document:  message.Document,
	}
	if message.From != nil {
		msg.UserID = message.From.ID
	}

	switch {
	case message.Document != nil:
		b.route(ctx, handlers.KindDocument, msg)
	case message.Text != "":
		b.route(ctx, handlers.KindText, msg)
	default:
		_ = b.sender.Send(ctx, msg.ChatID, render.ErrUnsupportedMessage, nil)
	}
}

func (b *Bot) route(ctx context.Context, kind string, msg *handlers.Message) {
	ctx = pkglogger.WithChat(ctx, msg.ChatID)

	handler, exists := b.handlers[kind]
	if !exists {
		ctxzap.Warn(ctx, "no handler for update kind", zap.String("kind", kind))
		_ = b.sender.Send(ctx, msg.ChatID, render.ErrUnsupportedMessage, nil)
		return
	}

	if err := handler.Handle(ctx, msg); err != nil {
		handlers.ReportError(ctx, b.sender, msg.ChatID, err)
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	chatID := message.Chat.ID

	ctxzap.Info(ctx, "command received",
		zap.String("command", command),
		zap.Int64("chat_id", chatID),
	)

	switch command {
	case "start":
		m := b.model(b.session(chatID))
		var markup any
		if actions, ok := b.keyboard.Actions(m); ok {
			markup = actions
		}
		_ = b.sender.Send(ctx, chatID, render.MsgWelcome, markup)
	case "help":
		_ = b.sender.Send(ctx, chatID, render.MsgHelp, nil)
	case "activity":
		m := b.model(b.session(chatID))
		_ = b.sender.Send(ctx, chatID, render.RenderActivity(m.Activity), nil)
	default:
		_ = b.sender.Send(ctx, chatID, render.ErrUnknownCommand, nil)
	}
}

func (b *Bot) session(chatID int64) *session.Session {
	s := b.sessions.GetOrCreate(handlers.SessionKey(chatID))
	b.watcher.Watch(chatID, s)
	return s
}

func (b *Bot) model(s *session.Session) view.Model {
	return view.Project(s.Snapshot(), b.location)
}
