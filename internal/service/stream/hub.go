package stream

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
)

// ==============================================================================
// Hub - subscriber membership and fan-out for price updates
// ==============================================================================

// Hub tracks connected stream subscribers and fans price update
// batches out to them. Delivery is non-blocking: a subscriber whose
// send buffer is full misses the frame instead of stalling the rest.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	// Metrics
	published int64
	delivered int64
	dropped   int64
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// Register adds a client to the membership set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	log.Debug().
		Str("client_id", c.ID).
		Int("total_clients", total).
		Msg("Hub: client registered")
}

// Unregister removes a client. Safe to call more than once for the
// same client; only the first call closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	c.closeSend()

	log.Debug().
		Str("client_id", c.ID).
		Int("total_clients", total).
		Msg("Hub: client unregistered")
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastDeltas pushes one price update batch to every subscriber.
// The unfiltered frame is serialized exactly once; subscribers with a
// symbol filter get their own reduced frame.
func (h *Hub) BroadcastDeltas(deltas []quote.Delta) {
	if len(deltas) == 0 {
		return
	}

	full, err := marshalEnvelope(TypePriceUpdate, deltas)
	if err != nil {
		log.Error().Err(err).Msg("Hub: marshal price update failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.published++
	for c := range h.clients {
		payload := full
		if c.hasFilter() {
			subset := filterDeltas(deltas, c.filterSnapshot())
			if len(subset) == 0 {
				continue
			}
			payload, err = marshalEnvelope(TypePriceUpdate, subset)
			if err != nil {
				continue
			}
		}
		h.sendToClient(c, payload)
	}
}

// sendToClient enqueues a frame without blocking (slow subscriber drops)
func (h *Hub) sendToClient(c *Client, payload []byte) {
	if c.Enqueue(payload) {
		h.delivered++
	} else {
		h.dropped++
	}
}

// Stats returns hub delivery counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		Clients:   len(h.clients),
		Published: h.published,
		Delivered: h.delivered,
		Dropped:   h.dropped,
	}
}

// HubStats holds hub statistics
type HubStats struct {
	Clients   int
	Published int64
	Delivered int64
	Dropped   int64
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		c.closeSend()
	}

	log.Info().Msg("Hub closed")
}
