package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackManagerDeliversInPriorityOrder(t *testing.T) {
	c := NewCallbackManager()
	obj := "owner"
	var order []string
	c.Register(obj, "slot", func(object any, key string, data any) {
		order = append(order, key)
	})

	c.Enqueue(5, obj, "low-priority", nil, "slot")
	c.Enqueue(1, obj, "high-priority", nil, "slot")
	c.Enqueue(5, obj, "low-priority-2", nil, "slot")

	c.Drain()

	require.Equal(t, []string{"high-priority", "low-priority", "low-priority-2"}, order)
}

func TestCallbackManagerEnqueueOnUnregisteredSlotPanics(t *testing.T) {
	c := NewCallbackManager()
	assert.Panics(t, func() {
		c.Enqueue(0, "owner", "k", nil, "slot")
	})
}

func TestCallbackManagerStopAllPausesDrain(t *testing.T) {
	c := NewCallbackManager()
	obj := "owner"
	delivered := false
	c.Register(obj, "slot", func(object any, key string, data any) { delivered = true })
	c.Enqueue(0, obj, "k", nil, "slot")

	c.StopAll()
	c.Drain()
	assert.False(t, delivered)
	assert.Equal(t, 1, c.Len(), "queued entries survive a paused drain")

	c.StartAll()
	c.Drain()
	assert.True(t, delivered)
}

func TestCallbackManagerUnregisteredEntryDroppedSilently(t *testing.T) {
	c := NewCallbackManager()
	obj := "owner"
	c.Register(obj, "slot", func(object any, key string, data any) {})
	c.Enqueue(0, obj, "k", nil, "slot")
	c.Unregister(obj, "slot")

	assert.NotPanics(t, func() { c.Drain() })
}
