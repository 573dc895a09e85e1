package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/metrics"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	operation = "Query"

	// feedPreviewRunes is how much of the question the activity feed shows
	feedPreviewRunes = 50
)

// QueryUsecase owns the question draft and the query lifecycle
type QueryUsecase struct {
	baseCtx      context.Context
	ragConnector RagConnector
	activity     ActivityRecorder
	notifier     Notifier
	topK         int

	mu       sync.Mutex
	question string
	state    entity.QueryState

	inflight sync.WaitGroup
}

func NewUsecase(
	baseCtx context.Context,
	ragConnector RagConnector,
	activity ActivityRecorder,
	notifier Notifier,
) *QueryUsecase {
	return &QueryUsecase{
		baseCtx:      baseCtx,
		ragConnector: ragConnector,
		activity:     activity,
		notifier:     notifier,
		topK:         entity.DefaultTopK,
		state:        entity.QueryState{Status: entity.QueryStatusIdle},
	}
}

// SetQuestion stores the draft verbatim
func (uc *QueryUsecase) SetQuestion(text string) {
	uc.mu.Lock()
	changed := uc.question != text
	uc.question = text
	uc.mu.Unlock()

	if changed {
		uc.notifier.Changed()
	}
}

func (uc *QueryUsecase) CanSubmit() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.canSubmitLocked()
}

func (uc *QueryUsecase) canSubmitLocked() bool {
	return strings.TrimSpace(uc.question) != "" && !uc.state.Status.IsPending()
}

// Submit sends the current draft and returns at once. It is a no-op
// returning false for a blank draft or while a query is running.
func (uc *QueryUsecase) Submit(ctx context.Context) bool {
	uc.mu.Lock()
	if !uc.canSubmitLocked() {
		uc.mu.Unlock()
		return false
	}

	question := uc.question
	uc.state = entity.QueryState{Status: entity.QueryStatusLoading}
	uc.inflight.Add(1)
	uc.mu.Unlock()

	uc.notifier.Changed()

	runCtx := ctxzap.ToContext(uc.baseCtx, ctxzap.Extract(ctx))
	runCtx = logger.WithAction(runCtx, "query")
	go uc.run(runCtx, question)

	return true
}

func (uc *QueryUsecase) run(ctx context.Context, question string) {
	defer uc.inflight.Done()

	start := time.Now()
	answer, err := uc.ragConnector.Query(ctx, &entity.RAGQueryRequest{
		Question: question,
		TopK:     uc.topK,
	})

	if uc.baseCtx.Err() != nil {
		ctxzap.Info(ctx, "session closed, query result discarded")
		return
	}

	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	metrics.QueryTotal.WithLabelValues(metrics.Outcome(err)).Inc()

	uc.mu.Lock()
	if err != nil {
		msg := entity.FailureMessage(operation, err)
		uc.state = entity.QueryState{Status: entity.QueryStatusError, Error: msg}
		uc.activity.Record(entity.EventKindError, msg)
	} else {
		uc.state = entity.QueryState{Status: entity.QueryStatusSuccess, Answer: answer}
		uc.activity.Record(entity.EventKindQuery, feedEntry(question))
	}
	uc.mu.Unlock()

	if err != nil {
		ctxzap.Warn(ctx, "query failed", zap.Error(err))
	} else {
		ctxzap.Info(ctx, "query answered", zap.Int("source_count", len(answer.Sources)))
	}

	uc.notifier.Changed()
}

// feedEntry quotes the first runes of the question, with "..." only when cut
func feedEntry(question string) string {
	runes := []rune(question)
	if len(runes) <= feedPreviewRunes {
		return fmt.Sprintf(`Query: "%s"`, question)
	}
	return fmt.Sprintf(`Query: "%s..."`, string(runes[:feedPreviewRunes]))
}

func (uc *QueryUsecase) Question() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.question
}

func (uc *QueryUsecase) State() entity.QueryState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// Wait blocks until every started query has finished
func (uc *QueryUsecase) Wait() {
	uc.inflight.Wait()
}
