package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/rag-assistant/internal/session"
	"github.com/futig/rag-assistant/internal/telegram/keyboard"
	"github.com/futig/rag-assistant/internal/view"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler kinds, one per supported update shape
const (
	KindDocument = "DOCUMENT"
	KindText     = "TEXT"
	KindCallback = "CALLBACK"
)

// Message represents a normalized Telegram message
type Message struct {
	ChatID       int64
	UserID       int64
	MessageID    int
	Text         string
	Document     *tgbotapi.Document
	CallbackData string
	CallbackID   string
}

// Handler processes one kind of update
type Handler interface {
	Handle(ctx context.Context, msg *Message) error

	// GetKind returns the update kind this handler manages
	GetKind() string
}

// SessionKey maps a chat to its session. A chat keeps one session until it expires.
func SessionKey(chatID int64) string {
	return fmt.Sprintf("tg-%d", chatID)
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	kind          string
	messageSender *MessageSender
	sessions      SessionStore
	watcher       SessionWatcher
	keyboard      *keyboard.Builder
	location      *time.Location
}

// Deps are shared by every handler
type Deps struct {
	Sender   *MessageSender
	Sessions SessionStore
	Watcher  SessionWatcher
	Keyboard *keyboard.Builder
	Location *time.Location
}

func newBaseHandler(kind string, deps Deps) BaseHandler {
	return BaseHandler{
		kind:          kind,
		messageSender: deps.Sender,
		sessions:      deps.Sessions,
		watcher:       deps.Watcher,
		keyboard:      deps.Keyboard,
		location:      deps.Location,
	}
}

// GetKind implements Handler
func (h *BaseHandler) GetKind() string {
	return h.kind
}

// session returns the chat session and makes sure its results reach the chat
func (h *BaseHandler) session(chatID int64) *session.Session {
	s := h.sessions.GetOrCreate(SessionKey(chatID))
	h.watcher.Watch(chatID, s)
	return s
}

func (h *BaseHandler) model(s *session.Session) view.Model {
	return view.Project(s.Snapshot(), h.location)
}

// reply sends text with the buttons of every action currently enabled
func (h *BaseHandler) reply(ctx context.Context, chatID int64, text string, m view.Model) error {
	var markup any
	if actions, ok := h.keyboard.Actions(m); ok {
		markup = actions
	}
	return h.messageSender.Send(ctx, chatID, text, markup)
}
