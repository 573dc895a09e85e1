package web

import (
	"net/http"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/view"
	"github.com/gorilla/websocket"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	MsgTypeRender = "render"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WSMessage is pushed to the browser after every state change
type WSMessage struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
	HTML    string `json:"html"`
}

// Live handles GET /ws - pushes the re-rendered app fragment after each snapshot
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Live")

	id := sessionID(r)
	header := http.Header{}
	header.Add("Set-Cookie", h.cookie(id).String())

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		ctxzap.Warn(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s := h.sessions.GetOrCreate(id)
	snapshots, unsubscribe := s.Subscribe()
	defer unsubscribe()

	ctxzap.Debug(ctx, "live view connected", zap.String("session_id", id))

	// the browser never sends anything; reading only serves close and pong frames
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.push(conn, snap); err != nil {
				ctxzap.Debug(ctx, "live view write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			h.sessions.Touch(id)
		case <-closed:
			ctxzap.Debug(ctx, "live view disconnected", zap.String("session_id", id))
			return
		}
	}
}

func (h *Handler) push(conn *websocket.Conn, snap entity.Snapshot) error {
	fragment, err := h.render("app", view.Project(snap, h.opts.Location))
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(WSMessage{
		Type:    MsgTypeRender,
		Version: snap.Version,
		HTML:    string(fragment),
	})
}
