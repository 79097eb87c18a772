package stream

import (
	"encoding/json"
	"time"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
)

// MessageType identifies a stream protocol frame
type MessageType string

const (
	TypeInitialData MessageType = "INITIAL_DATA"
	TypePriceUpdate MessageType = "PRICE_UPDATE"
	TypePing        MessageType = "PING"
	TypePong        MessageType = "PONG"
	TypeSubscribe   MessageType = "SUBSCRIBE"
	TypeError       MessageType = "ERROR"
)

// Envelope is the wire frame for all server-to-client messages
type Envelope struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ClientMessage is the wire frame for client-to-server messages
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Symbols []string    `json:"symbols,omitempty"` // SUBSCRIBE only
}

// marshalEnvelope serializes a frame, stamping the send time.
func marshalEnvelope(t MessageType, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// filterDeltas returns the subset of deltas a symbol filter admits.
func filterDeltas(deltas []quote.Delta, filter map[string]bool) []quote.Delta {
	if len(filter) == 0 {
		return deltas
	}
	out := make([]quote.Delta, 0, len(deltas))
	for _, d := range deltas {
		if filter[d.Symbol] {
			out = append(out, d)
		}
	}
	return out
}
