package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Wikid82/chimera/backend/internal/api/middleware"
	"github.com/Wikid82/chimera/backend/internal/cerberus"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPingPeriod = 30 * time.Second
	streamPongWait   = streamPingPeriod + 10*time.Second
	// DefaultStreamBuffer is the per-client queue length before messages are dropped.
	DefaultStreamBuffer = 64
)

// StreamMessage is pushed to live-stream clients for every processed event.
type StreamMessage struct {
	Timestamp   time.Time            `json:"timestamp"`
	Source      string               `json:"source"`
	Outcome     cerberus.Outcome     `json:"outcome"`
	Health      int                  `json:"health"`
	ThreatLevel cerberus.ThreatLevel `json:"threat_level"`
}

type streamClient struct {
	send chan []byte
}

// Hub fans engine events out to websocket clients. Slow clients lose messages
// instead of stalling the engine.
type Hub struct {
	buffer int

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	closed  chan struct{}
	once    sync.Once

	dropped atomic.Uint64
}

// NewHub returns a Hub with a per-client queue of buffer messages.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultStreamBuffer
	}
	return &Hub{
		buffer:  buffer,
		clients: make(map[*streamClient]struct{}),
		closed:  make(chan struct{}),
	}
}

// Observe implements cerberus.Sink.
func (h *Hub) Observe(_ context.Context, ev cerberus.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return nil
	}

	b, err := json.Marshal(StreamMessage{
		Timestamp:   ev.Time,
		Source:      ev.Source,
		Outcome:     ev.Outcome,
		Health:      ev.Health,
		ThreatLevel: ev.ThreatLevel,
	})
	if err != nil {
		return err
	}
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded for slow clients.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close disconnects every client. Hijacked connections are not covered by
// http.Server.Shutdown, so the server calls this on the way down.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.closed) })
}

func (h *Hub) register() *streamClient {
	c := &streamClient{send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

type StreamHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewStreamHandler accepts upgrades from the given browser origins. Requests
// without an Origin header, such as CLI clients, are always accepted.
func NewStreamHandler(hub *Hub, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	_, wildcard := allowed["*"]
	return &StreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || wildcard {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Stream upgrades the connection and relays engine events until the client
// goes away.
func (h *StreamHandler) Stream(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade required"})
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		middleware.GetRequestLogger(c).WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	client := h.hub.register()
	defer h.hub.unregister(client)
	log := middleware.GetRequestLogger(c)
	log.Info("live stream client connected")

	// The read side only services control frames and notices disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.WithError(err).Debug("live stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-gone:
			log.Info("live stream client disconnected")
			return
		case <-h.hub.closed:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}
