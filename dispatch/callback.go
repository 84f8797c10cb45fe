package dispatch

import "fmt"

// CallbackSlot identifies the handler a queued callback should invoke.
// Kept as a string (rather than a func value) so a CallbackManager can
// be copied, logged, and compared without reflecting into function
// identity.
type CallbackSlot string

// CallbackHandler is what a registered (object, slot) pair resolves to.
type CallbackHandler func(object any, key string, data any)

// callbackEntry is one queued delivery.
type callbackEntry struct {
	priority int
	object   any
	key      string
	data     any
	slot     CallbackSlot
}

// CallbackManager is a priority-ordered, pausable queue of (object, key,
// data, slot) deliveries. A handler must be registered for (object,
// slot) before Enqueue accepts work for it — enqueuing against an
// unregistered slot is a programming error and panics, the same way an
// out-of-range slice index would. This instance is owned by whichever
// component needs pausable fan-out (e.g. one per Model); nothing here
// is process-global.
type CallbackManager struct {
	handlers map[registrationKey]CallbackHandler
	queue    []callbackEntry
	stopped  bool
}

type registrationKey struct {
	object any
	slot   CallbackSlot
}

// NewCallbackManager returns an empty, running CallbackManager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{handlers: make(map[registrationKey]CallbackHandler)}
}

// Register associates handler with (object, slot). Must be called
// before Enqueue targets that pair.
func (c *CallbackManager) Register(object any, slot CallbackSlot, handler CallbackHandler) {
	c.handlers[registrationKey{object, slot}] = handler
}

// Unregister removes any handler registered for (object, slot).
func (c *CallbackManager) Unregister(object any, slot CallbackSlot) {
	delete(c.handlers, registrationKey{object, slot})
}

// Enqueue queues a callback delivery for (object, slot), ordered by
// priority (lower value delivers first; ties preserve submission
// order). Panics if no handler is registered for (object, slot) — per
// spec.md §4.8 this indicates a programming error, not a runtime
// condition callers should need to guard against.
func (c *CallbackManager) Enqueue(priority int, object any, key string, data any, slot CallbackSlot) {
	if _, ok := c.handlers[registrationKey{object, slot}]; !ok {
		panic(fmt.Sprintf("dispatch: callback enqueued for unregistered slot %q", slot))
	}

	entry := callbackEntry{priority: priority, object: object, key: key, data: data, slot: slot}
	i := 0
	for i < len(c.queue) && c.queue[i].priority <= priority {
		i++
	}
	c.queue = append(c.queue, callbackEntry{})
	copy(c.queue[i+1:], c.queue[i:])
	c.queue[i] = entry
}

// StopAll pauses delivery: Drain becomes a no-op until StartAll.
// Already-queued entries are preserved.
func (c *CallbackManager) StopAll() { c.stopped = true }

// StartAll resumes delivery paused by StopAll.
func (c *CallbackManager) StartAll() { c.stopped = false }

// IsRunning reports whether the manager is currently accepting
// Drain calls.
func (c *CallbackManager) IsRunning() bool { return !c.stopped }

// Drain delivers every queued callback, in priority order, by invoking
// each one's registered handler. A no-op while stopped. Handlers
// registered or unregistered mid-drain do not affect entries already
// dequeued in this call.
func (c *CallbackManager) Drain() {
	if c.stopped {
		return
	}
	pending := c.queue
	c.queue = nil
	handlers := make([]CallbackHandler, len(pending))
	for i, entry := range pending {
		handlers[i] = c.handlers[registrationKey{entry.object, entry.slot}]
	}
	for i, entry := range pending {
		if handlers[i] == nil {
			continue // unregistered since enqueue; drop silently.
		}
		handlers[i](entry.object, entry.key, entry.data)
	}
}

// Len reports the number of callbacks currently queued.
func (c *CallbackManager) Len() int { return len(c.queue) }
