package handlers

import (
	"context"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/telegram/render"
)

// TextHandler stores a plain text message as the current question
type TextHandler struct {
	BaseHandler
}

func NewTextHandler(deps Deps) *TextHandler {
	return &TextHandler{BaseHandler: newBaseHandler(KindText, deps)}
}

func (h *TextHandler) Handle(ctx context.Context, msg *Message) error {
	s := h.session(msg.ChatID)
	if err := s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: msg.Text}); err != nil {
		return err
	}

	m := h.model(s)
	return h.reply(ctx, msg.ChatID, render.RenderQuestionSaved(m), m)
}
