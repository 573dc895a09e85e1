package handlers

import (
	"context"

	pkgretry "github.com/futig/rag-assistant/internal/pkg/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MessageSender provides centralized message sending functionality.
// Failed sends are retried with backoff.
type MessageSender struct {
	api      API
	retryCfg pkgretry.RetryConfig
}

// NewMessageSender creates a new MessageSender
func NewMessageSender(api API, retryCfg pkgretry.RetryConfig) *MessageSender {
	return &MessageSender{
		api:      api,
		retryCfg: retryCfg,
	}
}

// Send sends a message to the specified chat
func (s *MessageSender) Send(ctx context.Context, chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	err := s.retryCfg.Do(ctx, "telegram send", func() error {
		_, err := s.api.Send(msg)
		return err
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		return err
	}

	return nil
}

// AnswerCallback stops the loading indicator of a pressed button, optionally with a toast
func (s *MessageSender) AnswerCallback(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}

	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		ctxzap.Warn(ctx, "failed to answer callback",
			zap.Error(err),
			zap.String("callback_id", callbackID),
		)
	}
}
