package testutil

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrSendFailed is returned by TelegramAPI for sends set up to fail
var ErrSendFailed = errors.New("telegram: send failed")

// TelegramAPI records what a bot sends instead of calling Telegram
type TelegramAPI struct {
	mu        sync.Mutex
	messages  []tgbotapi.MessageConfig
	callbacks []tgbotapi.CallbackConfig
	actions   int
	failSends int
	attempts  int
}

func NewTelegramAPI() *TelegramAPI {
	return &TelegramAPI{}
}

func (a *TelegramAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.attempts++
	if a.failSends > 0 {
		a.failSends--
		return tgbotapi.Message{}, ErrSendFailed
	}

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		a.messages = append(a.messages, msg)
	}
	return tgbotapi.Message{MessageID: len(a.messages)}, nil
}

func (a *TelegramAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch v := c.(type) {
	case tgbotapi.CallbackConfig:
		a.callbacks = append(a.callbacks, v)
	case tgbotapi.ChatActionConfig:
		a.actions++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// FailNextSends makes the next n sends fail
func (a *TelegramAPI) FailNextSends(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failSends = n
}

// SendAttempts counts every call to Send, failed ones included
func (a *TelegramAPI) SendAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts
}

func (a *TelegramAPI) Messages() []tgbotapi.MessageConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), a.messages...)
}

func (a *TelegramAPI) Texts() []string {
	var texts []string
	for _, msg := range a.Messages() {
		texts = append(texts, msg.Text)
	}
	return texts
}

// LastText returns the text of the newest message, empty when nothing was sent
func (a *TelegramAPI) LastText() string {
	texts := a.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (a *TelegramAPI) Callbacks() []tgbotapi.CallbackConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]tgbotapi.CallbackConfig(nil), a.callbacks...)
}

// ChatActions counts typing indicators
func (a *TelegramAPI) ChatActions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.actions
}
