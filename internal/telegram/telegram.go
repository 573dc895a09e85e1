package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/telegram/bot"
	"github.com/futig/rag-assistant/internal/telegram/handlers"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(cfg *config.TelegramConfig, sessions handlers.SessionStore, loc *time.Location, logger *zap.Logger) (Bot, error) {
	b, err := bot.New(cfg, sessions, loc, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully",
		zap.Int("handler_count", b.HandlerCount()),
	)

	return b, nil
}
