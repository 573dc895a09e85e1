package keyboard

import (
	"errors"
	"strings"

	"github.com/futig/rag-assistant/internal/entity"
)

const (
	ActionIntent = "intent"
	ActionShow   = "show"
)

const ShowActivity = "activity"

// Telegram rejects buttons whose callback data is longer than this
const maxCallbackLen = 64

var ErrInvalidCallback = errors.New("invalid callback data")

// CallbackData is the decoded "action:value" payload of an inline button
type CallbackData struct {
	Action string
	Value  string
}

// Intent reports the submit intent carried by the button, if any
func (d *CallbackData) Intent() (entity.IntentType, bool) {
	if d.Action != ActionIntent {
		return "", false
	}

	switch intent := entity.IntentType(d.Value); intent {
	case entity.IntentSubmitUpload, entity.IntentSubmitQuery:
		return intent, true
	default:
		return "", false
	}
}

func ParseCallback(data string) (*CallbackData, error) {
	if len(data) > maxCallbackLen {
		return nil, ErrInvalidCallback
	}

	action, value, ok := strings.Cut(data, ":")
	if !ok || action == "" {
		return nil, ErrInvalidCallback
	}

	return &CallbackData{Action: action, Value: value}, nil
}

func EncodeCallback(action, value string) string {
	return action + ":" + value
}

func IntentCallback(intent entity.IntentType) string {
	return EncodeCallback(ActionIntent, string(intent))
}
