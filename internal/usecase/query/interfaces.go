package query

import (
	"context"

	"github.com/futig/rag-assistant/internal/entity"
)

type RagConnector interface {
	Query(ctx context.Context, req *entity.RAGQueryRequest) (*entity.AnswerResult, error)
}

type ActivityRecorder interface {
	Record(kind entity.EventKind, message string) entity.ActivityEvent
}

// Notifier is told about every state transition, after the lock is released
type Notifier interface {
	Changed()
}
