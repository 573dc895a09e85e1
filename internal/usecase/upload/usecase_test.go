package upload

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/futig/rag-assistant/internal/activity"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	mu      sync.Mutex
	files   []*entity.SelectedFile
	err     error
	release chan struct{}
}

func (f *fakeConnector) UploadPDF(ctx context.Context, file *entity.SelectedFile) error {
	f.mu.Lock()
	f.files = append(f.files, file)
	release, err := f.release, f.err
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeConnector) calls() []*entity.SelectedFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.SelectedFile(nil), f.files...)
}

type countingNotifier struct {
	n atomic.Int32
}

func (c *countingNotifier) Changed() {
	c.n.Add(1)
}

type fixture struct {
	uc        *UploadUsecase
	conn      *fakeConnector
	log       *activity.Log
	notifier  *countingNotifier
	cancelCtx context.CancelFunc
}

func newFixture(t *testing.T) *fixture {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &fixture{
		conn:      &fakeConnector{},
		log:       activity.NewLog(),
		notifier:  &countingNotifier{},
		cancelCtx: cancel,
	}
	f.uc = NewUsecase(ctx, f.conn, f.log, f.notifier)
	return f
}

func TestSelectFile_RejectsNonPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "a.pdf", 1)))
	notified := f.notifier.n.Load()

	err := f.uc.SelectFile(ctx, testutil.TextFile("notes.txt"))

	assert.ErrorIs(t, err, entity.ErrNotPDF)
	assert.Equal(t, "a.pdf", f.uc.File().Name)
	assert.Equal(t, entity.UploadStatusIdle, f.uc.State().Status)
	assert.Zero(t, f.log.Len())
	assert.Equal(t, notified, f.notifier.n.Load())
}

func TestSelectFile_NilCandidate(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.uc.SelectFile(context.Background(), nil), entity.ErrNotPDF)
	assert.Nil(t, f.uc.File())
}

func TestSelectFile_ReadsPageCount(t *testing.T) {
	f := newFixture(t)
	candidate := testutil.PDFFile(t, "three.pdf", 3)

	require.NoError(t, f.uc.SelectFile(context.Background(), candidate))

	assert.Equal(t, 3, f.uc.File().Pages)
	assert.Zero(t, candidate.Pages, "caller's value must not be modified")
}

func TestSelectFile_BrokenPDFIsStillAccepted(t *testing.T) {
	f := newFixture(t)

	err := f.uc.SelectFile(context.Background(), &entity.SelectedFile{
		Name:        "broken.pdf",
		ContentType: entity.PDFContentType,
		Content:     []byte("%PDF-1.4 truncated"),
	})

	require.NoError(t, err)
	assert.Zero(t, f.uc.File().Pages)
	assert.True(t, f.uc.CanSubmit())
}

func TestSubmit_WithoutFileIsNoop(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.uc.CanSubmit())
	assert.False(t, f.uc.Submit(context.Background()))
	f.uc.Wait()

	assert.Empty(t, f.conn.calls())
	assert.Equal(t, entity.UploadStatusIdle, f.uc.State().Status)
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t)
	f.conn.release = make(chan struct{})
	ctx := context.Background()
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "report.pdf", 1)))

	require.True(t, f.uc.Submit(ctx))

	state := f.uc.State()
	assert.Equal(t, entity.UploadStatusUploading, state.Status)
	assert.Equal(t, "Uploading and processing PDF...", state.Message)
	assert.False(t, f.uc.CanSubmit())

	close(f.conn.release)
	f.uc.Wait()

	state = f.uc.State()
	assert.Equal(t, entity.UploadStatusSuccess, state.Status)
	assert.Equal(t, "PDF processed successfully! Processing started for report.pdf", state.Message)

	events := f.log.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventKindSuccess, events[0].Kind)
	assert.Equal(t, "Uploaded: report.pdf", events[0].Message)

	// the file stays selected and can be sent again
	assert.Equal(t, "report.pdf", f.uc.File().Name)
	assert.True(t, f.uc.CanSubmit())
}

func TestSubmit_OnlyOneRequestInFlight(t *testing.T) {
	f := newFixture(t)
	f.conn.release = make(chan struct{})
	ctx := context.Background()
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "a.pdf", 1)))

	require.True(t, f.uc.Submit(ctx))
	assert.False(t, f.uc.Submit(ctx))
	assert.False(t, f.uc.Submit(ctx))

	close(f.conn.release)
	f.uc.Wait()

	assert.Len(t, f.conn.calls(), 1)
	assert.Equal(t, 1, f.log.Len())
}

func TestSubmit_BackendDetail(t *testing.T) {
	f := newFixture(t)
	f.conn.err = &entity.BackendError{StatusCode: http.StatusBadRequest, Status: "Bad Request", Detail: "Only PDF files are allowed"}
	ctx := context.Background()
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "a.pdf", 1)))

	require.True(t, f.uc.Submit(ctx))
	f.uc.Wait()

	state := f.uc.State()
	assert.Equal(t, entity.UploadStatusError, state.Status)
	assert.Equal(t, "Only PDF files are allowed", state.Message)

	events := f.log.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventKindError, events[0].Kind)
	assert.Equal(t, "Only PDF files are allowed", events[0].Message)
}

func TestSubmit_StatusWithoutDetail(t *testing.T) {
	f := newFixture(t)
	f.conn.err = &entity.BackendError{StatusCode: http.StatusInternalServerError, Status: "Internal Server Error"}
	ctx := context.Background()
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "a.pdf", 1)))

	f.uc.Submit(ctx)
	f.uc.Wait()

	assert.Equal(t, "Upload failed: Internal Server Error", f.uc.State().Message)
}

func TestSubmit_TransportError(t *testing.T) {
	f := newFixture(t)
	f.conn.err = errors.New("connection refused")
	ctx := context.Background()
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "a.pdf", 1)))

	f.uc.Submit(ctx)
	f.uc.Wait()

	assert.Equal(t, entity.UploadStatusError, f.uc.State().Status)
	assert.Equal(t, "Upload failed: connection refused", f.uc.State().Message)
}

func TestSelectFile_AfterErrorResetsToIdle(t *testing.T) {
	f := newFixture(t)
	f.conn.err = errors.New("boom")
	ctx := context.Background()
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "a.pdf", 1)))
	f.uc.Submit(ctx)
	f.uc.Wait()
	require.Equal(t, entity.UploadStatusError, f.uc.State().Status)

	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "b.pdf", 1)))

	assert.Equal(t, entity.UploadState{Status: entity.UploadStatusIdle}, f.uc.State())
}

func TestSelectFile_RejectedWhileUploading(t *testing.T) {
	f := newFixture(t)
	f.conn.release = make(chan struct{})
	ctx := context.Background()
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "first.pdf", 1)))
	require.True(t, f.uc.Submit(ctx))
	notified := f.notifier.n.Load()

	err := f.uc.SelectFile(ctx, testutil.PDFFile(t, "second.pdf", 1))

	assert.ErrorIs(t, err, entity.ErrUploadInProgress)
	assert.Equal(t, entity.UploadStatusUploading, f.uc.State().Status)
	assert.Equal(t, "first.pdf", f.uc.File().Name)
	assert.Equal(t, notified, f.notifier.n.Load())

	close(f.conn.release)
	f.uc.Wait()

	// once the upload is over every accepted selection starts from Idle again
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "second.pdf", 1)))
	assert.Equal(t, entity.UploadState{Status: entity.UploadStatusIdle}, f.uc.State())
	assert.Equal(t, "second.pdf", f.uc.File().Name)

	calls := f.conn.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "first.pdf", calls[0].Name)
}

func TestSubmit_ResultDiscardedAfterClose(t *testing.T) {
	f := newFixture(t)
	f.conn.release = make(chan struct{})
	ctx := context.Background()
	require.NoError(t, f.uc.SelectFile(ctx, testutil.PDFFile(t, "a.pdf", 1)))
	require.True(t, f.uc.Submit(ctx))
	notified := f.notifier.n.Load()

	f.cancelCtx()
	f.uc.Wait()

	assert.Equal(t, entity.UploadStatusUploading, f.uc.State().Status)
	assert.Zero(t, f.log.Len())
	assert.Equal(t, notified, f.notifier.n.Load())
}

func TestSubmit_CallerCancellationDoesNotStopUpload(t *testing.T) {
	f := newFixture(t)
	f.conn.release = make(chan struct{})
	require.NoError(t, f.uc.SelectFile(context.Background(), testutil.PDFFile(t, "a.pdf", 1)))

	reqCtx, cancel := context.WithCancel(context.Background())
	require.True(t, f.uc.Submit(reqCtx))
	cancel()

	close(f.conn.release)
	f.uc.Wait()

	assert.Equal(t, entity.UploadStatusSuccess, f.uc.State().Status)
}
