package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/coal/linkguard/internal/pipeline"
	"github.com/coal/linkguard/internal/ruleset"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const writeTimeout = 5 * time.Second

// Hub manages WebSocket clients, event broadcasting, and stats.
type Hub struct {
	events  *RingBuffer[*FeedEvent]
	stats   *Stats
	ruleset *ruleset.Ruleset
	logger  zerolog.Logger
	seq     atomic.Uint64

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a new feed hub for the given ruleset.
func NewHub(rs *ruleset.Ruleset, logger zerolog.Logger) *Hub {
	return &Hub{
		events:  NewRingBuffer[*FeedEvent](defaultBufferSize),
		stats:   NewStats(),
		ruleset: rs,
		logger:  logger.With().Str("component", "dashboard").Logger(),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// OnEvent is the observer callback to register with the pipeline.
func (h *Hub) OnEvent(e pipeline.EvaluationEvent) {
	event := &FeedEvent{
		ID:              fmt.Sprintf("evt-%d", h.seq.Add(1)),
		EvaluationEvent: e,
	}

	h.events.Add(event)
	h.stats.Record(event)

	h.broadcast(WSMessage{Type: "event", Payload: event})
}

// Register adds a WebSocket client and sends it the initial state.
func (h *Hub) Register(ctx context.Context, conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	initial := WSMessage{
		Type: "initial_state",
		Payload: InitialState{
			Events:  h.events.All(),
			Stats:   h.stats.Snapshot(),
			Ruleset: h.ruleset,
		},
	}

	data, err := json.Marshal(initial)
	if err != nil {
		h.logger.Error().Err(err).Msg("encoding initial state")
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, websocket.MessageText, data); err != nil {
		h.Unregister(conn)
	}
}

// Unregister removes a WebSocket client.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends a message to all connected clients.
func (h *Hub) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("encoding message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.logger.Debug().Err(err).Msg("dropping client")
			h.Unregister(c)
		}
	}
}

// StartStatsBroadcast pushes stats snapshots to all clients every interval.
func (h *Hub) StartStatsBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(WSMessage{
				Type:    "stats_update",
				Payload: h.stats.Snapshot(),
			})
		}
	}
}

// Events returns the ring buffer (for API handlers).
func (h *Hub) Events() *RingBuffer[*FeedEvent] {
	return h.events
}

// StatsSnapshot returns a snapshot of accumulated stats.
func (h *Hub) StatsSnapshot() *StatsSnapshot {
	return h.stats.Snapshot()
}

// Ruleset returns the ruleset the heuristics run with.
func (h *Hub) Ruleset() *ruleset.Ruleset {
	return h.ruleset
}
