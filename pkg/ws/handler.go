package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// inbound is the only message shape clients send: binding the
// connection to a UI session.
type inbound struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// wsConn adapts a coder/websocket connection to the hub's Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.conn.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}

// Handler upgrades HTTP requests to websocket connections and feeds
// them into the hub.
type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewHandler creates the websocket endpoint handler.
func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The UI is served from arbitrary dev hosts; auth happens at
		// the HTTP layer before the upgrade.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}

	c := h.hub.register(&wsConn{conn: conn})
	defer h.hub.unregister(c)

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("ignoring malformed websocket message", slog.String("error", err.Error()))
			continue
		}
		if msg.Type == "associate" && msg.SessionID != "" {
			h.hub.associate(ctx, c, msg.SessionID)
		}
	}
}
