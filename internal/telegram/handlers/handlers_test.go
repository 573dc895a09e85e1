package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/integration/rag"
	pkgretry "github.com/futig/rag-assistant/internal/pkg/retry"
	"github.com/futig/rag-assistant/internal/session"
	"github.com/futig/rag-assistant/internal/telegram/keyboard"
	"github.com/futig/rag-assistant/internal/telegram/render"
	"github.com/futig/rag-assistant/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fastRetry(attempts uint) pkgretry.RetryConfig {
	return pkgretry.RetryConfig{Attempts: attempts, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newWatchedSession(t *testing.T) (*session.Session, *Watcher, *testutil.TelegramAPI, *testutil.Backend) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	backend := testutil.NewBackend(t)
	api := testutil.NewTelegramAPI()

	s := session.New(context.Background(), "tg-1", rag.NewConnector(backend.Config(), logger), logger)
	w := NewWatcher(api, NewMessageSender(api, fastRetry(1)), keyboard.NewBuilder(), time.UTC, logger)
	t.Cleanup(func() {
		s.Close()
		s.Wait()
		w.Wait()
	})

	return s, w, api, backend
}

func waitForText(t *testing.T, api *testutil.TelegramAPI, substr string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		for _, text := range api.Texts() {
			if strings.Contains(text, substr) {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "no message containing %q in %v", substr, api.Texts())
}

func TestWatcher_ReportsUploadAndAnswer(t *testing.T) {
	s, w, api, _ := newWatchedSession(t)
	ctx := context.Background()

	w.Watch(1, s)
	w.Watch(1, s)
	assert.Equal(t, 1, w.Watching())

	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSelectFile, File: testutil.PDFFile(t, "a.pdf", 1)}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitUpload}))
	waitForText(t, api, "✅ PDF processed successfully! Processing started for a.pdf")

	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "why?"}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitQuery}))
	waitForText(t, api, "💡 Answer\n\n42")

	assert.Len(t, api.Texts(), 2, "one message per finished request")
}

func TestWatcher_ReportsConcurrentFailures(t *testing.T) {
	s, w, api, backend := newWatchedSession(t)
	ctx := context.Background()
	backend.SetUploadReply(500, `{"detail":"disk full"}`)
	backend.SetQueryReply(500, `{"detail":"no index"}`)

	w.Watch(1, s)

	backend.Hold()
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSelectFile, File: testutil.PDFFile(t, "a.pdf", 1)}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitUpload}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "why?"}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitQuery}))
	backend.Release()

	waitForText(t, api, "❌ disk full")
	waitForText(t, api, "❌ no index")
}

func TestWatcher_ShowsTypingWhilePending(t *testing.T) {
	s, w, api, backend := newWatchedSession(t)
	ctx := context.Background()

	w.Watch(1, s)

	backend.Hold()
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "why?"}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitQuery}))

	assert.Eventually(t, func() bool { return api.ChatActions() > 0 }, time.Second, 10*time.Millisecond)
	backend.Release()
	waitForText(t, api, "42")
}

func TestWatcher_EndsWithSession(t *testing.T) {
	s, w, _, _ := newWatchedSession(t)

	w.Watch(1, s)
	require.Equal(t, 1, w.Watching())

	s.Close()
	assert.Eventually(t, func() bool { return w.Watching() == 0 }, time.Second, 10*time.Millisecond)

	// a closed session cannot be watched again
	w.Watch(1, s)
	assert.Equal(t, 0, w.Watching())
}

func TestMessageSender_RetriesFailedSends(t *testing.T) {
	api := testutil.NewTelegramAPI()
	api.FailNextSends(2)

	sender := NewMessageSender(api, fastRetry(3))
	require.NoError(t, sender.Send(context.Background(), 1, "hello", nil))

	assert.Equal(t, 3, api.SendAttempts())
	assert.Equal(t, []string{"hello"}, api.Texts())
}

func TestMessageSender_GivesUp(t *testing.T) {
	api := testutil.NewTelegramAPI()
	api.FailNextSends(5)

	sender := NewMessageSender(api, fastRetry(2))
	err := sender.Send(context.Background(), 1, "hello", nil)

	assert.ErrorIs(t, err, testutil.ErrSendFailed)
	assert.Equal(t, 2, api.SendAttempts())
	assert.Empty(t, api.Texts())
}

func TestMessageSender_AnswerCallback(t *testing.T) {
	api := testutil.NewTelegramAPI()
	sender := NewMessageSender(api, fastRetry(1))

	sender.AnswerCallback(context.Background(), "", "ignored")
	sender.AnswerCallback(context.Background(), "cb-1", "done")

	callbacks := api.Callbacks()
	require.Len(t, callbacks, 1)
	assert.Equal(t, "cb-1", callbacks[0].CallbackQueryID)
	assert.Equal(t, "done", callbacks[0].Text)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		sev     ErrorSeverity
	}{
		{"not pdf", fmt.Errorf("select: %w", entity.ErrNotPDF), render.ErrNotPDF, SeverityWarning},
		{"upload running", entity.ErrUploadInProgress, render.ErrUploadBusy, SeverityWarning},
		{"closed", entity.ErrSessionClosed, render.ErrSessionClosed, SeverityWarning},
		{"unknown intent", entity.ErrUnknownIntent, render.ErrUnknownCommand, SeverityWarning},
		{"deadline", context.DeadlineExceeded, render.ErrTimeout, SeverityError},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, render.ErrTimeout, SeverityError},
		{"download", fmt.Errorf("%w: %w", ErrDownload, errors.New("boom")), render.ErrDownload, SeverityError},
		{"other", errors.New("boom"), render.ErrGeneric, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.Equal(t, tt.message, got.UserMessage)
			assert.Equal(t, tt.sev, got.Severity)
		})
	}
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "tg-42", SessionKey(42))
	assert.Equal(t, "tg--100123", SessionKey(-100123))
}
