package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/message"
	"github.com/nadzzz/nova/internal/transport"
)

const (
	wsReadLimit    = 1 << 20
	wsWriteTimeout = 10 * time.Second
)

// Client frame types.
const (
	frameChat          = "chat"
	frameDetectEmotion = "detect_emotion"
)

// clientFrame is a request sent over the WebSocket.
type clientFrame struct {
	Type    string                 `json:"type"`
	Text    string                 `json:"text"`
	History []message.HistoryEntry `json:"conversation_history,omitempty"`
	Short   []message.HistoryEntry `json:"history,omitempty"`
	Speak   bool                   `json:"speak,omitempty"`
}

func (f *clientFrame) history() []message.HistoryEntry {
	if len(f.History) > 0 {
		return f.History
	}
	return f.Short
}

// serverFrame is a reply sent over the WebSocket. Exactly one payload field
// is set, matching Type.
type serverFrame struct {
	Type      string                   `json:"type"`
	SessionID string                   `json:"session_id,omitempty"`
	Turn      *message.TurnResult      `json:"turn,omitempty"`
	Emotion   *message.EmotionResponse `json:"emotion,omitempty"`
	Error     *message.ErrorBody       `json:"error,omitempty"`
}

// wsConn serialises writes to one connection.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(f serverFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(f)
}

func (c *wsConn) sendError(err error) error {
	code, msg := apperr.Public(err)
	return c.send(serverFrame{Type: "error", Error: &message.ErrorBody{Code: code, Message: msg}})
}

// socketSet tracks open connections so shutdown can close them.
type socketSet struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newSocketSet() *socketSet {
	return &socketSet{conns: make(map[*websocket.Conn]struct{})}
}

func (s *socketSet) add(c *websocket.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *socketSet) remove(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *socketSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = c.Close()
	}
}

// serveWS upgrades the request and runs frames against svc until the client
// disconnects. The session comes from the session_id query parameter or is
// freshly opened.
func (t *Transport) serveWS(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || t.originAllowed(origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	t.sockets.add(conn)
	defer func() {
		t.sockets.remove(conn)
		conn.Close()
	}()
	conn.SetReadLimit(wsReadLimit)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = svc.OpenSession()
	}
	logger := slog.With("session_id", sessionID, "remote", r.RemoteAddr)
	logger.Info("websocket connected")

	c := &wsConn{conn: conn}
	if err := c.send(serverFrame{Type: "session", SessionID: sessionID}); err != nil {
		return
	}

	// Turns outlive the upgrade request's context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", "error", err)
			}
			logger.Info("websocket disconnected")
			return
		}

		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			if c.sendError(apperr.Input("invalid frame: %v", err)) != nil {
				return
			}
			continue
		}
		if err := handleFrame(ctx, c, svc, sessionID, &f); err != nil {
			logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

// handleFrame answers one client frame. The returned error is a write
// failure; request errors are reported to the client as error frames.
func handleFrame(ctx context.Context, c *wsConn, svc transport.Service, sessionID string, f *clientFrame) error {
	switch f.Type {
	case frameChat:
		res, err := svc.RunTurn(ctx, &message.ChatRequest{
			SessionID: sessionID,
			Text:      f.Text,
			History:   f.history(),
			Speak:     f.Speak,
		})
		if err != nil {
			return c.sendError(err)
		}
		return c.send(serverFrame{Type: "turn", Turn: res})

	case frameDetectEmotion:
		res, err := svc.DetectEmotion(ctx, &message.EmotionRequest{SessionID: sessionID, Text: f.Text})
		if err != nil {
			return c.sendError(err)
		}
		return c.send(serverFrame{Type: "emotion", Emotion: res})

	default:
		return c.sendError(apperr.Input("unknown frame type %q", f.Type))
	}
}
