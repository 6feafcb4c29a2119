package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mtlprog/walletboard/internal/tokens"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamEvent is one message on the token stream.
type streamEvent struct {
	Snapshot    tokens.Snapshot `json:"snapshot"`
	Changes     tokens.Changes  `json:"changes"`
	SummaryText balanceText     `json:"summaryText"`
}

// StreamTokens handles GET /api/v1/tokens/stream. The first message carries
// the whole list as inserts; each later one carries the changes since the
// previous message. The socket is closed if the client falls behind.
func (h *Handler) StreamTokens(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.tokens.Subscribe()
	defer cancel()

	h.metrics.StreamConnected(1)
	defer h.metrics.StreamConnected(-1)

	// Client messages are ignored; reading is needed to process control frames.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case u, ok := <-updates:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteJSON(streamEvent{
				Snapshot:    u.Snapshot,
				Changes:     u.Changes,
				SummaryText: textOf(u.Snapshot.Summary),
			})
			if err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
