package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordingSender() (Sender, *[]uint64) {
	var sent []uint64
	return func(id uint64, key MessageKey, data any, message any) {
		sent = append(sent, id)
	}, &sent
}

func TestAddMessageRequestSendsImmediatelyWithNoQueueKeys(t *testing.T) {
	send, sent := newRecordingSender()
	p := NewMessageProcessor(send)

	id := p.AddMessageRequest("k1", nil, nil, "hello", nil)

	require.Len(t, *sent, 1)
	assert.Equal(t, id, (*sent)[0])
	assert.True(t, p.IsOutstanding("k1"))
}

func TestAddMessageRequestDefersOnQueueKeys(t *testing.T) {
	send, sent := newRecordingSender()
	p := NewMessageProcessor(send)

	p.AddMessageRequest("a", nil, nil, "first", nil)
	p.AddMessageRequest("b", nil, nil, "second", []MessageKey{"a"})

	require.Len(t, *sent, 1, "the b request must wait for a to complete")

	p.HandleResponse(1, "response-a")

	require.Len(t, *sent, 2, "completing a's request releases b")
}

func TestNewRequestSupersedesPendingOneWithSameKey(t *testing.T) {
	send, sent := newRecordingSender()
	p := NewMessageProcessor(send)

	firstID := p.AddMessageRequest("k", nil, nil, "v1", nil)
	secondID := p.AddMessageRequest("k", nil, nil, "v2", nil)

	require.Len(t, *sent, 2)

	var delivered []any
	p.byID[secondID].receiver = func(resp any) { delivered = append(delivered, resp) }

	p.HandleResponse(firstID, "stale")
	assert.Empty(t, delivered, "a response for a superseded request is dropped")

	p.HandleResponse(secondID, "fresh")
	assert.Equal(t, []any{"fresh"}, delivered)
}

func TestHandleResponseInvokesReceiverOnce(t *testing.T) {
	send, _ := newRecordingSender()
	p := NewMessageProcessor(send)

	var got any
	id := p.AddMessageRequest("k", nil, func(resp any) { got = resp }, "msg", nil)

	p.HandleResponse(id, "ok")
	assert.Equal(t, "ok", got)
	assert.False(t, p.IsOutstanding("k"))
}

func TestUnknownResponseIDIsIgnored(t *testing.T) {
	send, _ := newRecordingSender()
	p := NewMessageProcessor(send)

	assert.NotPanics(t, func() { p.HandleResponse(999, "anything") })
}
