package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/service/stream"
)

// StreamHandler upgrades HTTP connections to the price stream.
type StreamHandler struct {
	hub         *stream.Hub
	broadcaster *stream.Broadcaster
	clientCfg   stream.ClientConfig
	upgrader    websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(hub *stream.Hub, b *stream.Broadcaster, cfg stream.ClientConfig) *StreamHandler {
	return &StreamHandler{
		hub:         hub,
		broadcaster: b,
		clientCfg:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary origins; access
			// control happens at the API gateway.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. Every accepted connection immediately gets an
// INITIAL_DATA frame with the current universe snapshot, then receives
// PRICE_UPDATE frames as ticks complete.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := stream.NewClient(h.hub, conn, h.clientCfg)
	h.hub.Register(client)

	client.EnqueueMessage(stream.TypeInitialData, h.broadcaster.Snapshot(r.Context()))

	go client.WritePump()
	go client.ReadPump()

	log.Debug().
		Str("client_id", client.ID).
		Int("clients", h.hub.ClientCount()).
		Msg("Stream client connected")
}
