package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/session"
	"github.com/futig/rag-assistant/internal/telegram/keyboard"
	"github.com/futig/rag-assistant/internal/telegram/render"
	"github.com/futig/rag-assistant/internal/view"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Watcher follows chat sessions and reports every finished upload and
// question back to the chat. One watch runs per chat and ends when its
// session is closed.
type Watcher struct {
	api      API
	sender   *MessageSender
	keyboard *keyboard.Builder
	location *time.Location
	logger   *zap.Logger

	mu       sync.Mutex
	watching map[int64]*session.Session
	wg       sync.WaitGroup
}

func NewWatcher(api API, sender *MessageSender, kb *keyboard.Builder, loc *time.Location, logger *zap.Logger) *Watcher {
	return &Watcher{
		api:      api,
		sender:   sender,
		keyboard: kb,
		location: loc,
		logger:   logger,
		watching: make(map[int64]*session.Session),
	}
}

// Watch starts following s unless the chat is already followed on the same session
func (w *Watcher) Watch(chatID int64, s *session.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if current, ok := w.watching[chatID]; ok && current == s {
		return
	}
	w.watching[chatID] = s

	updates, cancel := s.Subscribe()

	// the subscription starts with the current snapshot, take it as the baseline
	base, ok := <-updates
	if !ok {
		cancel()
		delete(w.watching, chatID)
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		w.follow(chatID, s, base, updates)
	}()
}

// Watching reports the number of chats currently followed
func (w *Watcher) Watching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watching)
}

// Wait blocks until every watch has ended
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) follow(chatID int64, s *session.Session, base entity.Snapshot, updates <-chan entity.Snapshot) {
	ctx := ctxzap.ToContext(context.Background(), w.logger.With(
		zap.Int64("chat_id", chatID),
		zap.String("session_id", s.ID()),
	))
	typing := NewTypingNotifier(w.api, chatID)
	defer typing.Stop()

	prev := base
	for snap := range updates {
		w.report(ctx, chatID, prev, snap)

		if snap.Upload.Status.IsPending() || snap.Query.Status.IsPending() {
			typing.Start(ctx)
		} else {
			typing.Stop()
		}

		prev = snap
	}

	w.mu.Lock()
	if w.watching[chatID] == s {
		delete(w.watching, chatID)
	}
	w.mu.Unlock()

	ctxzap.Debug(ctx, "session watch ended")
}

// report sends a message for each request that finished between two snapshots.
// Snapshots may be coalesced, so completions are found through the activity
// feed: every finished upload or question records exactly one event.
func (w *Watcher) report(ctx context.Context, chatID int64, prev, next entity.Snapshot) {
	var uploadDone, queryDone bool
	for _, ev := range newEvents(prev.Events, next.Events) {
		switch {
		case ev.Kind == entity.EventKindSuccess:
			uploadDone = true
		case ev.Kind == entity.EventKindQuery:
			queryDone = true
		case !uploadDone && next.Upload.Status == entity.UploadStatusError && next.Upload.Message == ev.Message:
			uploadDone = true
		case !queryDone && next.Query.Status == entity.QueryStatusError && next.Query.Error == ev.Message:
			queryDone = true
		}
	}
	if !uploadDone && !queryDone {
		return
	}

	m := view.Project(next, w.location)
	var markup any
	if actions, ok := w.keyboard.Actions(m); ok {
		markup = actions
	}

	if uploadDone {
		if text := render.RenderUploadStatus(m.Upload); text != "" {
			_ = w.sender.Send(ctx, chatID, text, markup)
		}
	}
	if queryDone {
		if text := render.RenderAnswer(m.Query); text != "" {
			_ = w.sender.Send(ctx, chatID, text, markup)
		}
	}
}

// newEvents returns the events of next missing from prev, oldest first
func newEvents(prev, next []entity.ActivityEvent) []entity.ActivityEvent {
	seen := make(map[string]struct{}, len(prev))
	for _, ev := range prev {
		seen[ev.ID] = struct{}{}
	}

	var fresh []entity.ActivityEvent
	for i := len(next) - 1; i >= 0; i-- {
		if _, ok := seen[next[i].ID]; !ok {
			fresh = append(fresh, next[i])
		}
	}
	return fresh
}
