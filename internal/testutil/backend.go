package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/entity"
)

// Upload is one multipart upload received by the fake backend
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

type reply struct {
	status int
	body   string
}

// Backend is an in-process stand-in for the RAG service.
// By default it accepts every upload and answers every question.
type Backend struct {
	server *httptest.Server

	mu      sync.Mutex
	uploads []Upload
	queries []entity.RAGQueryRequest
	upload  reply
	query   reply
	gate    chan struct{}
}

func NewBackend(t testing.TB) *Backend {
	t.Helper()

	answer, _ := json.Marshal(entity.RAGQueryResponse{
		Answer:  "42",
		Sources: []string{"doc.pdf"},
	})

	b := &Backend{
		upload: reply{status: http.StatusOK, body: `{"message":"PDF uploaded successfully","filename":"doc.pdf","event_id":"evt-1"}`},
		query:  reply{status: http.StatusOK, body: string(answer)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"message":"RAG API is running"}`)
	})
	mux.HandleFunc("POST /upload", b.handleUpload)
	mux.HandleFunc("POST /query", b.handleQuery)

	b.server = httptest.NewServer(mux)
	t.Cleanup(func() {
		b.Release()
		b.server.Close()
	})

	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

// Config points a RAG connector at this backend
func (b *Backend) Config() config.RAGConnectorConfig {
	return config.RAGConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{Url: b.server.URL},
		UploadEndpoint:   "/upload",
		QueryEndpoint:    "/query",
		HealthEndpoint:   "/",
	}
}

// Hold makes every following request block until Release is called.
// The request is recorded before it blocks.
func (b *Backend) Hold() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gate == nil {
		b.gate = make(chan struct{})
	}
}

// Release unblocks held requests
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gate != nil {
		close(b.gate)
		b.gate = nil
	}
}

func (b *Backend) SetUploadReply(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upload = reply{status: status, body: body}
}

func (b *Backend) SetQueryReply(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = reply{status: status, body: body}
}

func (b *Backend) Uploads() []Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Upload(nil), b.uploads...)
}

func (b *Backend) Queries() []entity.RAGQueryRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]entity.RAGQueryRequest(nil), b.queries...)
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":"file part is missing"}`)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, `{"detail":"unreadable file"}`)
		return
	}

	b.mu.Lock()
	b.uploads = append(b.uploads, Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	resp, gate := b.upload, b.gate
	b.mu.Unlock()

	if !wait(r, gate) {
		return
	}
	writeJSON(w, resp.status, resp.body)
}

func (b *Backend) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req entity.RAGQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":[{"msg":"invalid body"}]}`)
		return
	}

	b.mu.Lock()
	b.queries = append(b.queries, req)
	resp, gate := b.query, b.gate
	b.mu.Unlock()

	if !wait(r, gate) {
		return
	}
	writeJSON(w, resp.status, resp.body)
}

func wait(r *http.Request, gate chan struct{}) bool {
	if gate == nil {
		return true
	}

	select {
	case <-gate:
		return true
	case <-r.Context().Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
