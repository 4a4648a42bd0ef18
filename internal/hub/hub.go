package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/gogs85/real-time-trading-dashboard/internal/protocol"
	"github.com/gogs85/real-time-trading-dashboard/pkg/models"
)

// ErrClosed is returned when a connection is admitted after Close.
var ErrClosed = errors.New("hub closed")

// Client is a live connection the hub can push to.
type Client interface {
	ID() string
	SendJSON(v interface{})
	SendBytes(b []byte)
	Close()
}

// Snapshotter provides the current full ticker snapshot.
type Snapshotter interface {
	All() []models.Ticker
}

// Stopper is the simulator lifecycle surface the hub drives on Close.
type Stopper interface {
	Stop()
}

// session tracks per-connection state. The subscription set is recorded
// but does not filter broadcasts: every live connection receives every
// batch.
type session struct {
	subs map[string]bool
}

// Hub bridges the simulator's batch output to all live connections.
// It never mutates business state, only reads snapshots.
type Hub struct {
	mu      sync.RWMutex
	clients map[Client]*session
	closed  bool

	snapshots Snapshotter
	simulator Stopper
	logger    *zap.Logger
}

func New(snapshots Snapshotter, simulator Stopper, logger *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[Client]*session),
		snapshots: snapshots,
		simulator: simulator,
		logger:    logger,
	}
}

// Register admits an authenticated connection and immediately sends it
// the current full ticker snapshot.
func (h *Hub) Register(c Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.clients[c] = &session{subs: make(map[string]bool)}
	h.mu.Unlock()

	c.SendJSON(protocol.PriceUpdate{
		Type: protocol.EventPriceUpdate,
		Data: h.snapshots.All(),
	})

	h.logger.Info("Client connected", zap.String("client", c.ID()))
	return nil
}

// Unregister drops a connection and closes it.
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.Close()
		h.logger.Info("Client disconnected", zap.String("client", c.ID()))
	}
}

// Broadcast relays a tick's batch to every live connection. It is wired
// as the simulator's batch listener.
func (h *Hub) Broadcast(batch []models.Ticker) {
	msg, err := json.Marshal(protocol.PriceUpdate{
		Type: protocol.EventPriceUpdate,
		Data: batch,
	})
	if err != nil {
		h.logger.Error("Failed to encode price update", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.SendBytes(msg)
	}
}

// HandleMessage processes one client message. Subscribe and unsubscribe
// are acknowledged with the submitted payload echoed back; the broadcast
// set is unaffected.
func (h *Hub) HandleMessage(c Client, msg protocol.ClientMessage) {
	switch msg.Type {
	case protocol.EventSubscribe:
		h.trackSubscriptions(c, msg.Data, true)
		c.SendJSON(protocol.Ack{Type: protocol.EventSubscribed, Success: true, Data: msg.Data})
	case protocol.EventUnsubscribe:
		h.trackSubscriptions(c, msg.Data, false)
		c.SendJSON(protocol.Ack{Type: protocol.EventUnsubscribed, Success: true, Data: msg.Data})
	default:
		c.SendJSON(protocol.ErrorMessage{Type: protocol.EventError, Message: "Unknown event: " + msg.Type})
	}
}

// trackSubscriptions records the conventional {"symbols":[...]} payload
// shape when present. Arbitrary payloads are acknowledged regardless.
func (h *Hub) trackSubscriptions(c Client, payload json.RawMessage, add bool) {
	var p protocol.SymbolsPayload
	if err := json.Unmarshal(payload, &p); err != nil || len(p.Symbols) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.clients[c]
	if !ok {
		return
	}
	for _, sym := range p.Symbols {
		if add {
			sess.subs[sym] = true
		} else {
			delete(sess.subs, sym)
		}
	}
}

// Closed reports whether the hub has stopped admitting connections.
func (h *Hub) Closed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the simulator, terminates all live connections and rejects
// any further admissions. It is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[Client]*session)
	h.mu.Unlock()

	h.simulator.Stop()
	for _, c := range clients {
		c.Close()
	}

	h.logger.Info("Hub closed", zap.Int("clients_dropped", len(clients)))
}
