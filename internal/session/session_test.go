package session

import (
	"context"
	"testing"
	"time"

	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/integration/rag"
	"github.com/futig/rag-assistant/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestSession(t *testing.T) (*Session, *testutil.Backend) {
	t.Helper()

	backend := testutil.NewBackend(t)
	logger := zaptest.NewLogger(t)
	s := New(context.Background(), "test-session", rag.NewConnector(backend.Config(), logger), logger)
	t.Cleanup(func() {
		s.Close()
		s.Wait()
	})

	return s, backend
}

func selectPDF(t *testing.T, s *Session, name string) {
	t.Helper()
	require.NoError(t, s.Dispatch(context.Background(), entity.Intent{
		Type: entity.IntentSelectFile,
		File: testutil.PDFFile(t, name, 2),
	}))
}

func TestDispatch_UploadFlow(t *testing.T) {
	s, backend := newTestSession(t)
	ctx := context.Background()

	selectPDF(t, s, "manual.pdf")
	snap := s.Snapshot()
	require.NotNil(t, snap.File)
	assert.Equal(t, "manual.pdf", snap.File.Name)
	assert.Equal(t, 2, snap.File.Pages)

	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitUpload}))
	s.Wait()

	snap = s.Snapshot()
	assert.Equal(t, entity.UploadStatusSuccess, snap.Upload.Status)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "Uploaded: manual.pdf", snap.Events[0].Message)
	assert.Len(t, backend.Uploads(), 1)
}

func TestDispatch_RejectedSelectionKeepsSnapshot(t *testing.T) {
	s, _ := newTestSession(t)
	before := s.Snapshot()

	err := s.Dispatch(context.Background(), entity.Intent{
		Type: entity.IntentSelectFile,
		File: testutil.TextFile("notes.txt"),
	})

	assert.ErrorIs(t, err, entity.ErrNotPDF)
	assert.Equal(t, before, s.Snapshot())
}

func TestDispatch_UploadAndQueryRunConcurrently(t *testing.T) {
	s, backend := newTestSession(t)
	ctx := context.Background()
	backend.Hold()

	selectPDF(t, s, "a.pdf")
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitUpload}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "what?"}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitQuery}))

	snap := s.Snapshot()
	assert.Equal(t, entity.UploadStatusUploading, snap.Upload.Status)
	assert.Equal(t, entity.QueryStatusLoading, snap.Query.Status)

	backend.Release()
	s.Wait()

	snap = s.Snapshot()
	assert.Equal(t, entity.UploadStatusSuccess, snap.Upload.Status)
	assert.Equal(t, entity.QueryStatusSuccess, snap.Query.Status)
	assert.Len(t, snap.Events, 2)
}

func TestDispatch_KeyboardShortcut(t *testing.T) {
	s, backend := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "hello"}))

	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentKeyDown, Key: "Enter", Target: entity.TargetQuestion}))
	s.Wait()
	assert.Empty(t, backend.Queries(), "plain Enter must not submit")

	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentKeyDown, Key: "Enter", Ctrl: true, Target: entity.TargetQuestion}))
	s.Wait()

	queries := backend.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "hello", queries[0].Question)
}

func TestDispatch_SubmitUsesCarriedTextOverStaleDraft(t *testing.T) {
	s, backend := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "What is RAG?"}))
	// an older keystroke delivered late
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "What is RA"}))

	require.NoError(t, s.Dispatch(ctx, entity.Intent{
		Type:   entity.IntentKeyDown,
		Key:    "Enter",
		Ctrl:   true,
		Target: entity.TargetQuestion,
		Text:   "What is RAG?",
	}))
	s.Wait()

	queries := backend.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "What is RAG?", queries[0].Question)

	snap := s.Snapshot()
	assert.Equal(t, "What is RAG?", snap.Question)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, `Query: "What is RAG?"`, snap.Events[0].Message)
}

func TestDispatch_SubmitWithoutTextKeepsDraft(t *testing.T) {
	s, backend := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "draft"}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitQuery}))
	s.Wait()

	queries := backend.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "draft", queries[0].Question)
}

func TestPerform_ReportsStartedRequests(t *testing.T) {
	s, backend := newTestSession(t)
	ctx := context.Background()

	started, err := s.Perform(ctx, entity.Intent{Type: entity.IntentSubmitQuery})
	require.NoError(t, err)
	assert.False(t, started, "blank draft")

	backend.Hold()
	started, err = s.Perform(ctx, entity.Intent{Type: entity.IntentSubmitQuery, Text: "why?"})
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, s.Busy())

	started, err = s.Perform(ctx, entity.Intent{Type: entity.IntentSubmitQuery, Text: "why not?"})
	require.NoError(t, err)
	assert.False(t, started, "query already running")

	backend.Release()
	s.Wait()
	assert.False(t, s.Busy())

	started, err = s.Perform(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "again"})
	require.NoError(t, err)
	assert.False(t, started)
}

func TestDispatch_UnknownIntent(t *testing.T) {
	s, _ := newTestSession(t)

	err := s.Dispatch(context.Background(), entity.Intent{Type: "dance"})

	assert.ErrorIs(t, err, entity.ErrUnknownIntent)
}

func TestSubscribe_ReceivesCurrentThenNewest(t *testing.T) {
	s, _ := newTestSession(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	first := <-ch
	assert.Equal(t, uint64(0), first.Version)

	// an unread subscriber only keeps the newest snapshot
	for _, text := range []string{"a", "ab", "abc"} {
		require.NoError(t, s.Dispatch(context.Background(), entity.Intent{Type: entity.IntentSetQuestion, Text: text}))
	}

	latest := <-ch
	assert.Equal(t, uint64(3), latest.Version)
	assert.Equal(t, "abc", latest.Question)

	select {
	case snap := <-ch:
		t.Fatalf("unexpected extra snapshot %d", snap.Version)
	default:
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	s, _ := newTestSession(t)
	ch, cancel := s.Subscribe()
	<-ch

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestClose_EndsSubscriptionsAndDiscardsResults(t *testing.T) {
	s, backend := newTestSession(t)
	ctx := context.Background()
	backend.Hold()

	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSetQuestion, Text: "q"}))
	require.NoError(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitQuery}))
	ch, _ := s.Subscribe()
	<-ch

	s.Close()
	s.Wait()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Empty(t, s.Snapshot().Events)
	assert.ErrorIs(t, s.Dispatch(ctx, entity.Intent{Type: entity.IntentSubmitQuery}), entity.ErrSessionClosed)

	closedCh, _ := s.Subscribe()
	_, ok = <-closedCh
	assert.False(t, ok)
}

func TestRegistry_GetOrCreate(t *testing.T) {
	backend := testutil.NewBackend(t)
	logger := zaptest.NewLogger(t)
	connector := rag.NewConnector(backend.Config(), logger)

	created := 0
	registry := NewRegistry(context.Background(), config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Minute},
		func(ctx context.Context, id string) *Session {
			created++
			return New(ctx, id, connector, logger)
		}, logger)
	defer registry.Close()

	a := registry.GetOrCreate("a")
	assert.Same(t, a, registry.GetOrCreate("a"))
	assert.NotSame(t, a, registry.GetOrCreate("b"))
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, registry.Count())

	got, err := registry.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = registry.Get("missing")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestRegistry_DeleteClosesSession(t *testing.T) {
	logger := zaptest.NewLogger(t)
	registry := NewRegistry(context.Background(), config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Minute},
		func(ctx context.Context, id string) *Session {
			return New(ctx, id, rag.NewMockConnector(logger, 0), logger)
		}, logger)

	s := registry.GetOrCreate("a")
	ch, _ := s.Subscribe()
	<-ch

	registry.Delete("a")

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, registry.Count())
}

func TestRegistry_IdleSessionsExpire(t *testing.T) {
	logger := zaptest.NewLogger(t)
	registry := NewRegistry(context.Background(), config.SessionConfig{TTL: 50 * time.Millisecond, CleanupInterval: 10 * time.Millisecond},
		func(ctx context.Context, id string) *Session {
			return New(ctx, id, rag.NewMockConnector(logger, 0), logger)
		}, logger)
	defer registry.Close()

	s := registry.GetOrCreate("idle")

	assert.Eventually(t, func() bool {
		return s.Context().Err() != nil
	}, time.Second, 10*time.Millisecond)

	assert.NotSame(t, s, registry.GetOrCreate("idle"))
}

func TestRegistry_BusySessionOutlivesTTL(t *testing.T) {
	backend := testutil.NewBackend(t)
	logger := zaptest.NewLogger(t)
	connector := rag.NewConnector(backend.Config(), logger)
	registry := NewRegistry(context.Background(), config.SessionConfig{TTL: 50 * time.Millisecond, CleanupInterval: 10 * time.Millisecond},
		func(ctx context.Context, id string) *Session {
			return New(ctx, id, connector, logger)
		}, logger)

	s := registry.GetOrCreate("busy")
	t.Cleanup(func() {
		registry.Close()
		s.Wait()
	})

	backend.Hold()
	require.NoError(t, s.Dispatch(context.Background(), entity.Intent{Type: entity.IntentSubmitQuery, Text: "slow?"}))

	assert.Never(t, func() bool {
		return s.Context().Err() != nil
	}, 300*time.Millisecond, 10*time.Millisecond)
	assert.Same(t, s, registry.GetOrCreate("busy"))

	backend.Release()
	s.Wait()
	assert.Equal(t, entity.QueryStatusSuccess, s.Snapshot().Query.Status)

	assert.Eventually(t, func() bool {
		return s.Context().Err() != nil
	}, time.Second, 10*time.Millisecond)
}

func TestRegistry_TouchRestartsIdleTimer(t *testing.T) {
	logger := zaptest.NewLogger(t)
	registry := NewRegistry(context.Background(), config.SessionConfig{TTL: 100 * time.Millisecond, CleanupInterval: 10 * time.Millisecond},
		func(ctx context.Context, id string) *Session {
			return New(ctx, id, rag.NewMockConnector(logger, 0), logger)
		}, logger)
	defer registry.Close()

	s := registry.GetOrCreate("watched")

	for i := 0; i < 10; i++ {
		time.Sleep(30 * time.Millisecond)
		registry.Touch("watched")
	}
	assert.NoError(t, s.Context().Err())

	assert.Eventually(t, func() bool {
		return s.Context().Err() != nil
	}, time.Second, 10*time.Millisecond)
}
