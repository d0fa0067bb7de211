// Package ws bridges the sandbox message channel over WebSocket.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tabnote/tabnote/internal/infrastructure/logging"
	"github.com/tabnote/tabnote/internal/infrastructure/monitoring"
	"github.com/tabnote/tabnote/internal/render"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Handler manages WebSocket connections. The browser side forwards
// raw sandbox postMessage frames (sandbox-resize, tab-action) up the
// socket; the manager filters them by session id, and the resulting
// host events stream back down the same connection.
type Handler struct {
	manager *render.Manager
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a WebSocket handler.
func NewHandler(manager *render.Manager, logger *logging.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Handler{
		manager: manager,
		logger:  logger,
		metrics: metrics,
	}
}

// client serializes writes; the event pump and the reader loop's
// error replies share the connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(data)
}

func (c *client) sendError(msg string) error {
	return c.send(map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}

// HandleConnection upgrades the request and pumps messages both ways.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	cl := &client{conn: conn}
	cl.send(map[string]interface{}{
		"type":    "system",
		"message": "Connected to Tabnote stream",
	})

	events, cancel := h.manager.Subscribe()
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go h.writeEvents(cl, events, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		msg, err := render.Decode(data)
		if err != nil {
			cl.sendError(err.Error())
			continue
		}
		if h.metrics != nil {
			h.metrics.WSMessages.WithLabelValues(msg.MessageType(), "in").Inc()
		}

		// A stale message is the protocol working as intended, not a
		// client fault; drop it without a reply.
		if err := h.manager.Deliver(msg); err != nil && err != render.ErrUnknownSession {
			cl.sendError(err.Error())
		}
	}
}

// writeEvents forwards manager events down the socket until the
// reader loop exits.
func (h *Handler) writeEvents(cl *client, events <-chan render.Event, done <-chan struct{}) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if h.metrics != nil {
				h.metrics.WSMessages.WithLabelValues(event.Type, "out").Inc()
			}
			if err := cl.send(event); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
