package entity

import (
	"github.com/n-r-w/zfcore/dataobject"
	"github.com/n-r-w/zfcore/dispatch"
	"github.com/n-r-w/zfcore/schema"
)

// FeedbackHandler is invoked once a posted message/command's response
// arrives, unless the request was superseded by a later one with the
// same key first.
type FeedbackHandler func(key string, response any)

// EntityObject is a ModuleDataObject (C6) plus a persistent identity, a
// MessageProcessor and a CommandProcessor (C8): it is the unit that
// knows how to address itself to a database collaborator, but not yet
// how to run a load/save/remove lifecycle — that is Model, built on top.
type EntityObject struct {
	*dataobject.ModuleDataObject

	uid      Uid
	messages *dispatch.MessageProcessor
	commands *dispatch.CommandProcessor
}

// newEntityObject wires a ModuleDataObject over ds to uid, sending
// outgoing messages through send and merging queued commands through
// mergeFuncs.
func newEntityObject(ds *schema.DataStructure, uid Uid, send dispatch.Sender, mergeFuncs map[string]dispatch.MergeFunc) *EntityObject {
	return &EntityObject{
		ModuleDataObject: dataobject.New(ds),
		uid:              uid,
		messages:         dispatch.NewMessageProcessor(send),
		commands:         dispatch.NewCommandProcessor(mergeFuncs),
	}
}

// Uid returns the object's current identity.
func (e *EntityObject) Uid() Uid { return e.uid }

// setUid reassigns the object's identity, used by Model when a temporary
// entity receives its persistent id on first successful save.
func (e *EntityObject) setUid(u Uid) { e.uid = u }

// Commands exposes the underlying command queue so Model can drive it.
func (e *EntityObject) Commands() *dispatch.CommandProcessor { return e.commands }

// Messages exposes the underlying message processor so Model can drive it.
func (e *EntityObject) Messages() *dispatch.MessageProcessor { return e.messages }

// PostMessageCommand stamps message with a fresh outgoing id, remembers
// the id -> key mapping, and awaits a response whose feedback-id equals
// that outgoing id: on arrival feedback(key, response) runs. Re-issuing
// with the same key before a response arrives supersedes the pending
// request — its eventual response, if any, is dropped.
func (e *EntityObject) PostMessageCommand(key string, message any, feedback FeedbackHandler) uint64 {
	receiver := func(response any) {
		if feedback != nil {
			feedback(key, response)
		}
	}
	return e.messages.AddMessageRequest(dispatch.MessageKey(key), nil, receiver, message, nil)
}

// HandleMessageFeedback routes an inbound response carrying feedbackID
// back to whichever PostMessageCommand call produced it.
func (e *EntityObject) HandleMessageFeedback(feedbackID uint64, response any) {
	e.messages.HandleResponse(feedbackID, response)
}
