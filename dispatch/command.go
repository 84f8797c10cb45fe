// Package dispatch implements the keyed command/message plumbing an
// entity's persistence state machine is built on: a single-consumer FIFO
// of merge-able commands, a keyed request/response message processor,
// and a priority-ordered, pausable callback queue.
package dispatch

import "fmt"

// CommandKey identifies one logical unit of queued work — e.g. "load
// entity X" — so a second request for the same work can be merged into
// the first instead of queued separately.
type CommandKey struct {
	Key        string
	CustomData string
}

// Command is one entry of a CommandProcessor's queue.
type Command struct {
	Key     CommandKey
	Payload any
}

// MergeFunc combines a newly-submitted command's payload into an
// already-queued command with the same key, returning the merged
// payload. Called only when both commands share a CommandKey.
type MergeFunc func(existing, incoming any) any

// CommandProcessor is a single-consumer FIFO keyed by (command-key,
// custom-data). Submitting a command whose key matches one already
// queued merges the two via the caller-supplied MergeFunc instead of
// queuing a second entry; the command currently being executed (the
// front of the queue, after Next has been called and before
// FinishCommand) is never merged into or removed.
type CommandProcessor struct {
	queue      []*Command
	executing  *Command
	mergeFuncs map[string]MergeFunc
}

// NewCommandProcessor returns an empty CommandProcessor. mergeFuncs maps
// a command-key's Key field to the merge function used for that kind of
// command (e.g. "load" -> union-of-properties, "remove" -> first-wins).
func NewCommandProcessor(mergeFuncs map[string]MergeFunc) *CommandProcessor {
	return &CommandProcessor{mergeFuncs: mergeFuncs}
}

// Submit adds payload under key, merging into an already-queued (but not
// yet executing) command with the same key if one exists and a
// MergeFunc is registered for key.Key. Returns whether the command was
// merged into an existing entry rather than queued fresh.
func (c *CommandProcessor) Submit(key CommandKey, payload any) (merged bool) {
	for _, cmd := range c.queue {
		if cmd == c.executing {
			continue
		}
		if cmd.Key == key {
			if fn, ok := c.mergeFuncs[key.Key]; ok {
				cmd.Payload = fn(cmd.Payload, payload)
				return true
			}
		}
	}
	c.queue = append(c.queue, &Command{Key: key, Payload: payload})
	return false
}

// Next returns the command at the front of the queue without removing
// it, marking it as executing so RemoveCommandRequests cannot discard
// it out from under its in-flight work. Returns nil if the queue is
// empty or a command is already executing.
func (c *CommandProcessor) Next() *Command {
	if c.executing != nil || len(c.queue) == 0 {
		return nil
	}
	c.executing = c.queue[0]
	return c.executing
}

// FinishCommand removes the currently-executing command from the queue
// and advances it, allowing Next to return the following entry.
func (c *CommandProcessor) FinishCommand() {
	if c.executing == nil {
		return
	}
	c.queue = c.queue[1:]
	c.executing = nil
}

// RemoveCommandRequests removes every queued (not currently executing)
// command matching key. If data is non-empty it also must match
// CustomData; an empty data matches any CustomData for that Key.
func (c *CommandProcessor) RemoveCommandRequests(key string, data string) {
	out := c.queue[:0:0]
	for _, cmd := range c.queue {
		if cmd == c.executing {
			out = append(out, cmd)
			continue
		}
		if cmd.Key.Key == key && (data == "" || cmd.Key.CustomData == data) {
			continue
		}
		out = append(out, cmd)
	}
	c.queue = out
}

// Len reports the current queue length, including the executing command
// if any.
func (c *CommandProcessor) Len() int { return len(c.queue) }

func (k CommandKey) String() string {
	if k.CustomData == "" {
		return k.Key
	}
	return fmt.Sprintf("%s:%s", k.Key, k.CustomData)
}
