package handlers

import (
	"context"

	"github.com/futig/rag-assistant/internal/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI used to talk to chats
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SessionStore resolves the in-memory session of a chat
type SessionStore interface {
	GetOrCreate(id string) *session.Session
}

// FileDownloader fetches the content of a document sent to the bot
type FileDownloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// SessionWatcher delivers finished uploads and answers to the chat
type SessionWatcher interface {
	Watch(chatID int64, s *session.Session)
}
