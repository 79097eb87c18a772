package stream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
)

func testClient(t *testing.T, h *Hub, bufSize int) *Client {
	t.Helper()
	return NewClient(h, nil, ClientConfig{
		WriteWait:      0,
		PongWait:       0,
		SendBufferSize: bufSize,
	})
}

func drainOne(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case payload := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		return env
	default:
		t.Fatal("expected a frame in the send buffer")
		return Envelope{}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub()
	c := testClient(t, h, 4)

	h.Register(c)
	assert.Equal(t, 1, h.ClientCount())

	h.Unregister(c)
	assert.Equal(t, 0, h.ClientCount())

	// a second unregister of the same client must be a no-op,
	// not a double close
	h.Unregister(c)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	h := NewHub()
	c1 := testClient(t, h, 4)
	c2 := testClient(t, h, 4)
	h.Register(c1)
	h.Register(c2)

	deltas := []quote.Delta{
		{Symbol: "AAPL", Price: 178.5},
		{Symbol: "TSLA", Price: 251.3},
	}
	h.BroadcastDeltas(deltas)

	for _, c := range []*Client{c1, c2} {
		env := drainOne(t, c)
		assert.Equal(t, TypePriceUpdate, env.Type)

		raw, err := json.Marshal(env.Data)
		require.NoError(t, err)
		var got []quote.Delta
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Len(t, got, 2, "the whole batch arrives as one frame")
	}
}

func TestHub_EmptyBatchNotSent(t *testing.T) {
	h := NewHub()
	c := testClient(t, h, 4)
	h.Register(c)

	h.BroadcastDeltas(nil)

	select {
	case <-c.send:
		t.Fatal("empty batch must not produce a frame")
	default:
	}
}

func TestHub_SlowClientDropsFrame(t *testing.T) {
	h := NewHub()
	slow := testClient(t, h, 1)
	fast := testClient(t, h, 4)
	h.Register(slow)
	h.Register(fast)

	deltas := []quote.Delta{{Symbol: "AAPL", Price: 1}}
	h.BroadcastDeltas(deltas)
	h.BroadcastDeltas(deltas) // slow buffer already full

	assert.Len(t, slow.send, 1)
	assert.Len(t, fast.send, 2)
	assert.Equal(t, int64(1), h.Stats().Dropped)
}

func TestHub_FilteredClientGetsSubset(t *testing.T) {
	h := NewHub()
	filtered := testClient(t, h, 4)
	filtered.setFilter([]string{"TSLA"})
	plain := testClient(t, h, 4)
	h.Register(filtered)
	h.Register(plain)

	h.BroadcastDeltas([]quote.Delta{
		{Symbol: "AAPL", Price: 178.5},
		{Symbol: "TSLA", Price: 251.3},
	})

	env := drainOne(t, filtered)
	raw, _ := json.Marshal(env.Data)
	var got []quote.Delta
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "TSLA", got[0].Symbol)

	env = drainOne(t, plain)
	raw, _ = json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Len(t, got, 2)
}

func TestHub_CloseWhileClientEnqueues(t *testing.T) {
	h := NewHub()
	clients := make([]*Client, 8)
	for i := range clients {
		clients[i] = testClient(t, h, 2)
		h.Register(clients[i])
	}

	// pong replies keep arriving while the hub shuts down; none of
	// them may hit a closed send channel
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			for _, c := range clients {
				c.EnqueueMessage(TypePong, nil)
			}
		}
	}()

	h.Close()
	<-done

	assert.Equal(t, 0, h.ClientCount())
	for _, c := range clients {
		assert.False(t, c.Enqueue([]byte(`{}`)), "enqueue after disconnect must be rejected")
	}
}

func TestHub_FilterWithNoMatchesSkipsClient(t *testing.T) {
	h := NewHub()
	c := testClient(t, h, 4)
	c.setFilter([]string{"GOOG"})
	h.Register(c)

	h.BroadcastDeltas([]quote.Delta{{Symbol: "AAPL", Price: 178.5}})

	assert.Len(t, c.send, 0)
}
