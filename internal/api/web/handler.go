package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/pkg/response"
	"github.com/futig/rag-assistant/internal/session"
	"github.com/futig/rag-assistant/internal/view"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	sessionCookie = "rag_session"
	fileField     = "file"

	notPDFNotice = "Please select a valid PDF file"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Options struct {
	MaxUploadSize int64
	CookieSecure  bool
	CookieMaxAge  time.Duration
	Location      *time.Location
}

type Handler struct {
	sessions SessionStore
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(sessions SessionStore, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	return &Handler{
		sessions: sessions,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// Page handles GET / - the full application page
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Page")
	s := h.session(w, r)

	body, err := h.render("page", view.Project(s.Snapshot(), h.opts.Location))
	if err != nil {
		ctxzap.Error(ctx, "failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

// State handles GET /api/state - the current view model as JSON
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	response.Success(w, view.Project(s.Snapshot(), h.opts.Location))
}

// SelectFile handles POST /intents/file - multipart form with a "file" part
func (h *Handler) SelectFile(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SelectFile")
	s := h.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize)
	file, header, err := r.FormFile(fileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		ctxzap.Info(ctx, "file part is missing", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "file part is missing")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		ctxzap.Error(ctx, "failed to read uploaded file", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	h.dispatch(ctx, w, s, entity.Intent{
		Type: entity.IntentSelectFile,
		File: &entity.SelectedFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
			Size:        int64(len(content)),
		},
	})
}

// Intent handles POST /intents - every intent except file selection
func (h *Handler) Intent(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Intent")
	s := h.session(w, r)

	var intent entity.Intent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		ctxzap.Info(ctx, "failed to decode intent", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if intent.Type == entity.IntentSelectFile {
		response.Error(w, http.StatusBadRequest, "file selection must be sent to /intents/file")
		return
	}

	h.dispatch(logger.AddFields(ctx, zap.String("intent", string(intent.Type))), w, s, intent)
}

func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, s *session.Session, intent entity.Intent) {
	err := s.Dispatch(ctx, intent)
	switch {
	case err == nil:
		response.JSON(w, http.StatusAccepted, view.Project(s.Snapshot(), h.opts.Location))
	case errors.Is(err, entity.ErrNotPDF):
		response.Error(w, http.StatusUnprocessableEntity, notPDFNotice)
	case errors.Is(err, entity.ErrUploadInProgress):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrUnknownIntent):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrSessionClosed):
		response.Error(w, http.StatusGone, err.Error())
	default:
		ctxzap.Error(ctx, "failed to dispatch intent", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// session returns the session of the request cookie and refreshes the cookie
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := sessionID(r)
	http.SetCookie(w, h.cookie(id))
	return h.sessions.GetOrCreate(id)
}

// sessionID reads the cookie, or makes up a new id when it is missing or malformed
func sessionID(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if parsed, err := uuid.Parse(cookie.Value); err == nil {
			return parsed.String()
		}
	}
	return uuid.NewString()
}

func (h *Handler) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.opts.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) render(name string, model view.Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, model); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
