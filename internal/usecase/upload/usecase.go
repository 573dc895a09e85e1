package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/metrics"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/pkg/pdfinfo"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	operation       = "Upload"
	uploadingMsg    = "Uploading and processing PDF..."
	successMsgFmt   = "PDF processed successfully! Processing started for %s"
	uploadedFeedFmt = "Uploaded: %s"
)

// UploadUsecase owns the selected file and the upload lifecycle.
// At most one upload is in flight at a time.
type UploadUsecase struct {
	baseCtx      context.Context
	ragConnector RagConnector
	activity     ActivityRecorder
	notifier     Notifier

	mu    sync.Mutex
	file  *entity.SelectedFile
	state entity.UploadState

	inflight sync.WaitGroup
}

// NewUsecase creates an upload use case. Requests run on baseCtx, so they
// outlive the caller's request and stop only when baseCtx is cancelled.
func NewUsecase(
	baseCtx context.Context,
	ragConnector RagConnector,
	activity ActivityRecorder,
	notifier Notifier,
) *UploadUsecase {
	return &UploadUsecase{
		baseCtx:      baseCtx,
		ragConnector: ragConnector,
		activity:     activity,
		notifier:     notifier,
		state:        entity.UploadState{Status: entity.UploadStatusIdle},
	}
}

// SelectFile stores a PDF candidate and resets the upload state to Idle.
// Anything else is rejected with entity.ErrNotPDF, a selection made while
// an upload is running with entity.ErrUploadInProgress; both leave the
// state untouched.
func (uc *UploadUsecase) SelectFile(ctx context.Context, candidate *entity.SelectedFile) error {
	if !candidate.IsPDF() {
		metrics.RejectedSelections.Inc()
		ctxzap.Info(ctx, "rejected non-PDF selection")
		return entity.ErrNotPDF
	}

	if uc.State().Status.IsPending() {
		ctxzap.Info(ctx, "rejected selection during upload")
		return entity.ErrUploadInProgress
	}

	file := *candidate
	if file.Size == 0 {
		file.Size = int64(len(file.Content))
	}

	pages, err := pdfinfo.PageCount(file.Content)
	if err != nil {
		ctxzap.Debug(ctx, "could not read page count", zap.Error(err))
	}
	file.Pages = pages

	uc.mu.Lock()
	// an upload may have started while the page count was read
	if uc.state.Status.IsPending() {
		uc.mu.Unlock()
		return entity.ErrUploadInProgress
	}
	uc.file = &file
	uc.state = entity.UploadState{Status: entity.UploadStatusIdle}
	uc.mu.Unlock()

	ctxzap.Info(ctx, "file selected",
		zap.String("filename", file.Name),
		zap.Int64("size", file.Size),
		zap.Int("pages", file.Pages),
	)

	uc.notifier.Changed()
	return nil
}

// CanSubmit reports whether Submit would start a request
func (uc *UploadUsecase) CanSubmit() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.canSubmitLocked()
}

func (uc *UploadUsecase) canSubmitLocked() bool {
	return uc.file != nil && !uc.state.Status.IsPending()
}

// Submit starts the upload of the selected file and returns at once.
// It is a no-op returning false when no file is selected or an upload is running.
func (uc *UploadUsecase) Submit(ctx context.Context) bool {
	uc.mu.Lock()
	if !uc.canSubmitLocked() {
		uc.mu.Unlock()
		return false
	}

	file := uc.file
	uc.state = entity.UploadState{
		Status:  entity.UploadStatusUploading,
		Message: uploadingMsg,
	}
	uc.inflight.Add(1)
	uc.mu.Unlock()

	uc.notifier.Changed()

	runCtx := ctxzap.ToContext(uc.baseCtx, ctxzap.Extract(ctx))
	runCtx = logger.WithAction(runCtx, "upload_pdf")
	go uc.run(runCtx, file)

	return true
}

func (uc *UploadUsecase) run(ctx context.Context, file *entity.SelectedFile) {
	defer uc.inflight.Done()

	start := time.Now()
	metrics.UploadBytes.Observe(float64(file.Size))

	err := uc.ragConnector.UploadPDF(ctx, file)

	if uc.baseCtx.Err() != nil {
		ctxzap.Info(ctx, "session closed, upload result discarded", zap.String("filename", file.Name))
		return
	}

	metrics.UploadDuration.Observe(time.Since(start).Seconds())
	metrics.UploadTotal.WithLabelValues(metrics.Outcome(err)).Inc()

	uc.mu.Lock()
	if err != nil {
		msg := entity.FailureMessage(operation, err)
		uc.state = entity.UploadState{Status: entity.UploadStatusError, Message: msg}
		uc.activity.Record(entity.EventKindError, msg)
	} else {
		uc.state = entity.UploadState{
			Status:  entity.UploadStatusSuccess,
			Message: fmt.Sprintf(successMsgFmt, file.Name),
		}
		uc.activity.Record(entity.EventKindSuccess, fmt.Sprintf(uploadedFeedFmt, file.Name))
	}
	uc.mu.Unlock()

	if err != nil {
		ctxzap.Warn(ctx, "upload failed", zap.String("filename", file.Name), zap.Error(err))
	} else {
		ctxzap.Info(ctx, "upload finished", zap.String("filename", file.Name))
	}

	uc.notifier.Changed()
}

func (uc *UploadUsecase) State() entity.UploadState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// File returns the current selection; it is never mutated after being stored
func (uc *UploadUsecase) File() *entity.SelectedFile {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.file
}

// Wait blocks until every started upload has finished
func (uc *UploadUsecase) Wait() {
	uc.inflight.Wait()
}
