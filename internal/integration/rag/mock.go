package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers locally, for running the client without a backend
type MockConnector struct {
	logger *zap.Logger
	delay  time.Duration
}

func NewMockConnector(logger *zap.Logger, delay time.Duration) *MockConnector {
	return &MockConnector{
		logger: logger,
		delay:  delay,
	}
}

// UploadPDF accepts every file after the configured delay
func (m *MockConnector) UploadPDF(ctx context.Context, file *entity.SelectedFile) error {
	ctxzap.Info(ctx, "[MOCK] uploading PDF",
		zap.String("filename", file.Name),
		zap.Int64("size", file.Size),
	)

	return m.wait(ctx)
}

// Query returns a canned answer that echoes the question
func (m *MockConnector) Query(ctx context.Context, req *entity.RAGQueryRequest) (*entity.AnswerResult, error) {
	ctxzap.Info(ctx, "[MOCK] querying RAG",
		zap.Int("question_length", len(req.Question)),
		zap.Int("top_k", req.TopK),
	)

	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	contexts := 1
	return &entity.AnswerResult{
		AnswerText:  fmt.Sprintf("Mock answer to: %s", req.Question),
		Sources:     []string{"mock.pdf"},
		NumContexts: &contexts,
	}, nil
}

// Ping always succeeds
func (m *MockConnector) Ping(ctx context.Context) error {
	return nil
}

func (m *MockConnector) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return nil
	}

	select {
	case <-time.After(m.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
