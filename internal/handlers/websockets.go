package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

const chatGreeting = "Hi! Send /start to sign in, /create_note to create a note, /search_notes to search by tag."

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// wsChat is the chat-bot gateway: each text frame is one user message, each
// reply is one text frame. A connection is one chat; its session lives in
// the session store under a fresh chat id.
func (h *Handler) wsChat(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	chatID := uuid.NewString()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine feeds user messages and detects disconnects. done lets
	// it bail out of a pending send once this handler returns.
	incoming := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go h.readChat(conn, incoming, done)

	if err := h.writeChat(conn, chatGreeting); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-incoming:
			if !ok {
				return
			}
			reply := h.chat.HandleMessage(c.Request.Context(), chatID, msg)
			if err := h.writeChat(conn, reply); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		}
	}
}

// Helper: readChat forwards text frames and closes the channel on disconnect.
func (h *Handler) readChat(conn *websocket.Conn, incoming chan<- string, done <-chan struct{}) {
	defer close(incoming)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		select {
		case incoming <- string(msg):
		case <-done:
			return
		}
	}
}

// Helper: writeChat writes one text frame with a write deadline.
func (h *Handler) writeChat(conn *websocket.Conn, text string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}
