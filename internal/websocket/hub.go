package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"prisma-backend/internal/handlers"
	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
	"prisma-backend/internal/stream"
)

const (
	writeWait    = 10 * time.Second
	requestWait  = 30 * time.Second
	maxFrameSize = 8 << 20
)

type streamGenerator interface {
	Essay(ctx context.Context, req models.EssayRequest) (*stream.TextStream, error)
	Chat(ctx context.Context, req models.ChatRequest) (*stream.TextStream, error)
}

// Hub serves streamed kinds over a websocket. Each connection carries one
// request: the client sends a WSRequest, the server answers with chunk frames
// followed by a single done or error frame and closes.
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]context.CancelFunc
	gen         streamGenerator
	upgrader    websocket.Upgrader
	log         *logger.Logger
}

// NewHub accepts connections from origins (comma separated). An empty list
// accepts any origin.
func NewHub(gen streamGenerator, origins string, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	allowed := map[string]bool{}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return &Hub{
		connections: make(map[*websocket.Conn]context.CancelFunc),
		gen:         gen,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	conn.SetReadLimit(maxFrameSize)

	// The request context ends when the handler returns, so the stream gets
	// its own.
	ctx, cancel := context.WithCancel(context.Background())
	h.registerConnection(conn, cancel)
	defer h.unregisterConnection(conn)

	conn.SetReadDeadline(time.Now().Add(requestWait))
	var req models.WSRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeFrame(conn, models.WSFrame{Type: models.FrameError, Status: http.StatusBadRequest, Error: "Invalid request frame"})
		return
	}
	conn.SetReadDeadline(time.Time{})

	s, err := h.open(ctx, req)
	if err != nil {
		status, body := handlers.StatusFor(err)
		h.writeFrame(conn, models.WSFrame{Type: models.FrameError, Status: status, Error: body.Error, Details: body.Details})
		return
	}
	defer s.Close()

	// Any read after the request frame means the peer closed or misbehaved.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				s.Close()
				return
			}
		}
	}()

	for s.Next() {
		if err := h.writeFrame(conn, models.WSFrame{Type: models.FrameChunk, Text: s.Text()}); err != nil {
			return
		}
	}
	if err := s.Err(); err != nil {
		status, body := handlers.StatusFor(err)
		h.log.Error("websocket stream failed", "kind", string(req.Kind), "error", err.Error())
		h.writeFrame(conn, models.WSFrame{Type: models.FrameError, Status: status, Error: body.Error, Details: body.Details})
		return
	}
	if ctx.Err() == nil {
		h.writeFrame(conn, models.WSFrame{Type: models.FrameDone})
	}
}

func (h *Hub) open(ctx context.Context, req models.WSRequest) (*stream.TextStream, error) {
	switch req.Kind {
	case models.KindChat:
		var p models.ChatRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return nil, errInvalidPayload
		}
		return h.gen.Chat(ctx, p)
	case models.KindEssay:
		var p models.EssayRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return nil, errInvalidPayload
		}
		return h.gen.Essay(ctx, p)
	default:
		return nil, errUnsupportedKind
	}
}

func (h *Hub) writeFrame(conn *websocket.Conn, f models.WSFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

func (h *Hub) registerConnection(conn *websocket.Conn, cancel context.CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn] = cancel
	h.log.Debug("websocket connected", "total", len(h.connections))
}

func (h *Hub) unregisterConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cancel, ok := h.connections[conn]; ok {
		cancel()
		delete(h.connections, conn)
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	conn.Close()
	h.log.Debug("websocket disconnected", "total", len(h.connections))
}

// Active returns the number of open connections.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Shutdown cancels every in-flight stream. Handlers then close their
// connections.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cancel := range h.connections {
		cancel()
	}
}
