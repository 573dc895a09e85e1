package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/futig/rag-assistant/internal/activity"
	"github.com/futig/rag-assistant/internal/entity"
	pkglogger "github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/usecase/query"
	"github.com/futig/rag-assistant/internal/usecase/upload"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// RagConnector is everything a session needs from the backend
type RagConnector interface {
	upload.RagConnector
	query.RagConnector
}

// Session is the state of one user: one activity log shared by the upload
// and query use cases. Every transition publishes a new Snapshot.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	activity *activity.Log
	upload   *upload.UploadUsecase
	query    *query.QueryUsecase

	mu          sync.Mutex
	version     uint64
	latest      entity.Snapshot
	subscribers map[int]chan entity.Snapshot
	nextSubID   int
	closed      bool
}

// New creates a session whose requests run until parent is cancelled or Close is called
func New(parent context.Context, id string, connector RagConnector, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	ctx = ctxzap.ToContext(ctx, logger.With(zap.String("session_id", id)))

	s := &Session{
		id:          id,
		ctx:         ctx,
		cancel:      cancel,
		activity:    activity.NewLog(),
		subscribers: make(map[int]chan entity.Snapshot),
	}
	s.upload = upload.NewUsecase(ctx, connector, s.activity, s)
	s.query = query.NewUsecase(ctx, connector, s.activity, s)
	s.latest = s.buildSnapshot()

	return s
}

func (s *Session) ID() string {
	return s.id
}

// Context carries the session logger
func (s *Session) Context() context.Context {
	return s.ctx
}

// Dispatch routes a user intent. Intents whose action is currently
// disabled are silently ignored.
func (s *Session) Dispatch(ctx context.Context, intent entity.Intent) error {
	_, err := s.Perform(ctx, intent)
	return err
}

// Perform is Dispatch that also reports whether a backend request was started.
// A submit intent carrying text stores it as the draft first, so the
// request always uses what the user saw when submitting.
func (s *Session) Perform(ctx context.Context, intent entity.Intent) (bool, error) {
	if s.ctx.Err() != nil {
		return false, entity.ErrSessionClosed
	}

	ctx = pkglogger.WithSession(ctx, s.id)

	switch intent.Type {
	case entity.IntentSelectFile:
		return false, s.upload.SelectFile(ctx, intent.File)
	case entity.IntentSubmitUpload:
		started := s.upload.Submit(ctx)
		if !started {
			ctxzap.Debug(ctx, "upload submit ignored")
		}
		return started, nil
	case entity.IntentSetQuestion:
		s.query.SetQuestion(intent.Text)
	case entity.IntentSubmitQuery:
		return s.submitQuery(ctx, intent), nil
	case entity.IntentKeyDown:
		if intent.IsSubmitShortcut() {
			return s.submitQuery(ctx, intent), nil
		}
	default:
		return false, fmt.Errorf("%w: %q", entity.ErrUnknownIntent, intent.Type)
	}

	return false, nil
}

func (s *Session) submitQuery(ctx context.Context, intent entity.Intent) bool {
	if intent.Text != "" {
		s.query.SetQuestion(intent.Text)
	}

	started := s.query.Submit(ctx)
	if !started {
		ctxzap.Debug(ctx, "query submit ignored")
	}
	return started
}

// Busy reports whether an upload or a query is waiting for the backend
func (s *Session) Busy() bool {
	return s.upload.State().Status.IsPending() || s.query.State().Status.IsPending()
}

// Changed publishes a fresh snapshot to every subscriber
func (s *Session) Changed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.version++
	s.latest = s.buildSnapshot()

	for _, ch := range s.subscribers {
		offerLatest(ch, s.latest)
	}
}

// offerLatest replaces an unread snapshot so slow readers only see the newest one
func offerLatest(ch chan entity.Snapshot, snap entity.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- snap:
	default:
	}
}

// buildSnapshot must be called with s.mu held
func (s *Session) buildSnapshot() entity.Snapshot {
	return entity.Snapshot{
		SessionID: s.id,
		Version:   s.version,
		Upload:    s.upload.State(),
		File:      s.upload.File().Info(),
		Question:  s.query.Question(),
		Query:     s.query.State(),
		Events:    s.activity.Events(),
	}
}

// Snapshot returns the most recently published state
func (s *Session) Snapshot() entity.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Subscribe returns a channel that immediately holds the current snapshot
// and then receives newer ones. The channel is closed by the returned
// cancel func or when the session is closed.
func (s *Session) Subscribe() (<-chan entity.Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan entity.Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	ch <- s.latest
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// Wait blocks until no request of this session is in flight
func (s *Session) Wait() {
	s.upload.Wait()
	s.query.Wait()
}

// Close cancels in-flight requests and ends all subscriptions.
// Results of cancelled requests are discarded.
func (s *Session) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}

	ctxzap.Debug(s.ctx, "session closed")
}
