package keyboard

import (
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/view"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const activityButton = "🕑 Recent activity"

// Builder creates inline keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Actions offers only the actions that are enabled in the model.
// ok is false when there is nothing to offer.
func (b *Builder) Actions(m view.Model) (markup tgbotapi.InlineKeyboardMarkup, ok bool) {
	rows := [][]tgbotapi.InlineKeyboardButton{}

	if m.Upload.CanUpload {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 "+view.UploadButton,
				IntentCallback(entity.IntentSubmitUpload)),
		))
	}

	if m.Query.CanQuery {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔎 "+view.QueryButton,
				IntentCallback(entity.IntentSubmitQuery)),
		))
	}

	if m.Activity.Visible {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(activityButton, EncodeCallback(ActionShow, ShowActivity)),
		))
	}

	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}, true
}
