package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Telegram typing action expires after 5 seconds
const typingInterval = 4 * time.Second

// TypingNotifier sends periodic "typing" actions while a request is running.
// It can be started again after Stop.
type TypingNotifier struct {
	api      API
	chatID   int64
	interval time.Duration

	mu   sync.Mutex
	done chan struct{}
}

// NewTypingNotifier creates a new typing indicator
func NewTypingNotifier(api API, chatID int64) *TypingNotifier {
	return &TypingNotifier{
		api:      api,
		chatID:   chatID,
		interval: typingInterval,
	}
}

// Start begins sending typing indicators. Calling it while running is a no-op.
func (t *TypingNotifier) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		return
	}
	done := make(chan struct{})
	t.done = done

	t.send(ctx)

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.send(ctx)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops sending typing indicators
func (t *TypingNotifier) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done == nil {
		return
	}
	close(t.done)
	t.done = nil
}

// Running reports whether indicators are being sent
func (t *TypingNotifier) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done != nil
}

func (t *TypingNotifier) send(ctx context.Context) {
	action := tgbotapi.NewChatAction(t.chatID, tgbotapi.ChatTyping)
	if _, err := t.api.Request(action); err != nil {
		ctxzap.Warn(ctx, "failed to send typing action",
			zap.Error(err),
			zap.Int64("chat_id", t.chatID),
		)
	}
}
