package handlers

import (
	"context"
	"fmt"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/telegram/keyboard"
	"github.com/futig/rag-assistant/internal/telegram/render"
	"github.com/futig/rag-assistant/internal/view"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// CallbackHandler handles inline keyboard button presses
type CallbackHandler struct {
	BaseHandler
}

func NewCallbackHandler(deps Deps) *CallbackHandler {
	return &CallbackHandler{BaseHandler: newBaseHandler(KindCallback, deps)}
}

func (h *CallbackHandler) Handle(ctx context.Context, msg *Message) error {
	data, err := keyboard.ParseCallback(msg.CallbackData)
	if err != nil {
		h.messageSender.AnswerCallback(ctx, msg.CallbackID, render.MsgInvalidButton)
		return nil
	}

	ctxzap.Debug(ctx, "callback query received",
		zap.String("action", data.Action),
		zap.String("value", data.Value),
	)

	switch data.Action {
	case keyboard.ActionIntent:
		return h.submit(ctx, msg, data)
	case keyboard.ActionShow:
		return h.show(ctx, msg, data.Value)
	default:
		h.messageSender.AnswerCallback(ctx, msg.CallbackID, render.MsgInvalidButton)
		return nil
	}
}

// submit only accepts the two submit intents, everything else needs input from the user
func (h *CallbackHandler) submit(ctx context.Context, msg *Message, data *keyboard.CallbackData) error {
	intent, ok := data.Intent()
	if !ok {
		h.messageSender.AnswerCallback(ctx, msg.CallbackID, render.MsgInvalidButton)
		return nil
	}

	started, err := h.session(msg.ChatID).Perform(ctx, entity.Intent{Type: intent})
	if err != nil {
		h.messageSender.AnswerCallback(ctx, msg.CallbackID, "")
		return err
	}

	h.messageSender.AnswerCallback(ctx, msg.CallbackID, submitToast(intent, started))
	return nil
}

// submitToast depends on whether the press started a request, the request itself may be over already
func submitToast(intent entity.IntentType, started bool) string {
	switch {
	case !started:
		return render.MsgNothingToSubmit
	case intent == entity.IntentSubmitUpload:
		return view.UploadingButton
	default:
		return view.QueryingButton
	}
}

func (h *CallbackHandler) show(ctx context.Context, msg *Message, screen string) error {
	h.messageSender.AnswerCallback(ctx, msg.CallbackID, "")

	if screen != keyboard.ShowActivity {
		return fmt.Errorf("unknown screen %q", screen)
	}

	m := h.model(h.session(msg.ChatID))
	return h.messageSender.Send(ctx, msg.ChatID, render.RenderActivity(m.Activity), nil)
}
