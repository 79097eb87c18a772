package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client), mr
}

func TestCache_SetGetJSON(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}

	c.SetJSON(ctx, "quote:iexcloud:AAPL", payload{Symbol: "AAPL", Price: 178.5}, time.Minute)

	var got payload
	require.True(t, c.GetJSON(ctx, "quote:iexcloud:AAPL", &got))
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, 178.5, got.Price)
}

func TestCache_MissReturnsFalse(t *testing.T) {
	c, _ := newTestCache(t)

	var got map[string]interface{}
	assert.False(t, c.GetJSON(context.Background(), "quote:iexcloud:MISSING", &got))
}

func TestCache_CorruptEntryDropped(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("quote:iexcloud:BAD", "{not json"))

	var got map[string]interface{}
	assert.False(t, c.GetJSON(ctx, "quote:iexcloud:BAD", &got))

	// corrupt entry must be gone so the next resolve refills it
	assert.False(t, mr.Exists("quote:iexcloud:BAD"))
}

func TestCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "quote:iexcloud:TSLA", map[string]string{"symbol": "TSLA"}, 15*time.Second)

	var got map[string]string
	require.True(t, c.GetJSON(ctx, "quote:iexcloud:TSLA", &got))

	mr.FastForward(16 * time.Second)

	assert.False(t, c.GetJSON(ctx, "quote:iexcloud:TSLA", &got))
}

func TestCache_DeletePattern(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "watchlists:user1", []int{1, 2}, time.Minute)
	c.SetJSON(ctx, "watchlists:user2", []int{3}, time.Minute)
	c.SetJSON(ctx, "quote:iexcloud:AAPL", map[string]string{}, time.Minute)

	c.DeletePattern(ctx, "watchlists:*")

	assert.False(t, mr.Exists("watchlists:user1"))
	assert.False(t, mr.Exists("watchlists:user2"))
	assert.True(t, mr.Exists("quote:iexcloud:AAPL"))
}
