package handlers

import (
	"context"
	"errors"
	"net"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrDownload wraps failures to fetch a document from Telegram
var ErrDownload = errors.New("download telegram file")

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// String returns string representation of error severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

// ClassifyError analyzes an error and returns a HandlerError with appropriate severity and messages
func ClassifyError(err error) *HandlerError {
	if err == nil {
		return &HandlerError{
			UserMessage: render.ErrGeneric,
			LogMessage:  "unknown error",
			Severity:    SeverityWarning,
		}
	}

	switch {
	case errors.Is(err, entity.ErrNotPDF):
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrNotPDF,
			LogMessage:  "file rejected",
			Severity:    SeverityWarning,
		}
	case errors.Is(err, entity.ErrUploadInProgress):
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrUploadBusy,
			LogMessage:  "selection during upload",
			Severity:    SeverityWarning,
		}
	case errors.Is(err, entity.ErrSessionClosed), errors.Is(err, entity.ErrSessionNotFound):
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrSessionClosed,
			LogMessage:  "session closed",
			Severity:    SeverityWarning,
		}
	case errors.Is(err, entity.ErrUnknownIntent):
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrUnknownCommand,
			LogMessage:  "unknown intent",
			Severity:    SeverityWarning,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrTimeout,
			LogMessage:  "operation timed out",
			Severity:    SeverityError,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &HandlerError{
				Err:         err,
				UserMessage: render.ErrTimeout,
				LogMessage:  "network timeout",
				Severity:    SeverityError,
			}
		}
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrNetworkIssue,
			LogMessage:  "network error",
			Severity:    SeverityError,
		}
	}

	if errors.Is(err, ErrDownload) {
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrDownload,
			LogMessage:  "file download failed",
			Severity:    SeverityError,
		}
	}

	return &HandlerError{
		Err:         err,
		UserMessage: render.ErrGeneric,
		LogMessage:  "handler error",
		Severity:    SeverityError,
	}
}

// ReportError logs the error with its severity and sends a user-friendly message
func ReportError(ctx context.Context, sender *MessageSender, chatID int64, err error) {
	if err == nil {
		return
	}

	handlerErr := ClassifyError(err)

	switch handlerErr.Severity {
	case SeverityError:
		ctxzap.Error(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	default:
		ctxzap.Warn(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	}

	if sender != nil {
		_ = sender.Send(ctx, chatID, handlerErr.UserMessage, nil)
	}
}
