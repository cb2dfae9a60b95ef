package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	var missing []string
	assert.False(t, c.Get(ctx, "k", &missing))

	c.Set(ctx, "k", []string{"a", "b"})
	var got []string
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestMemoryExpires(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)
	ctx := context.Background()
	c.Set(ctx, "k", 1)
	time.Sleep(30 * time.Millisecond)

	var v int
	assert.False(t, c.Get(ctx, "k", &v))
}
