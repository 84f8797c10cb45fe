package dispatch

// MessageKey identifies one logical request slot: at most one request
// per key may be outstanding at a time.
type MessageKey string

// Receiver is invoked with a request's response payload once it arrives
// and has not been superseded.
type Receiver func(response any)

// Sender actually ships a stamped message, e.g. onto the messaging
// dispatcher described in spec.md §4.8. id is the feedback-id a later
// response must echo back for HandleResponse to match it up.
type Sender func(id uint64, key MessageKey, data any, message any)

type pendingRequest struct {
	id       uint64
	key      MessageKey
	data     any
	receiver Receiver
	message  any
	waitsOn  []MessageKey
}

// MessageProcessor implements keyed request/response messaging: only one
// request per MessageKey may be outstanding, a new request for the same
// key replaces (supersedes) the pending one, and a request may be
// deferred until every request named in queueKeys has completed.
type MessageProcessor struct {
	send Sender

	nextID  uint64
	pending map[MessageKey]*pendingRequest // key -> currently outstanding (or waiting) request
	byID    map[uint64]*pendingRequest
	waiting []*pendingRequest
}

// NewMessageProcessor returns a MessageProcessor that ships messages
// through send.
func NewMessageProcessor(send Sender) *MessageProcessor {
	return &MessageProcessor{
		send:    send,
		pending: make(map[MessageKey]*pendingRequest),
		byID:    make(map[uint64]*pendingRequest),
	}
}

// AddMessageRequest stamps message with a fresh id and queues it under
// key. If key already has an outstanding or waiting request, that
// request is superseded — its eventual response, if it ever arrives,
// is dropped. The new request is sent immediately unless queueKeys
// names any key that currently has an outstanding or waiting request,
// in which case it is held until every one of those completes. Returns
// the new request's id.
func (p *MessageProcessor) AddMessageRequest(key MessageKey, data any, receiver Receiver, message any, queueKeys []MessageKey) uint64 {
	p.supersede(key)

	p.nextID++
	id := p.nextID
	req := &pendingRequest{id: id, key: key, data: data, receiver: receiver, message: message, waitsOn: queueKeys}

	p.pending[key] = req
	p.byID[id] = req

	if p.blocked(req) {
		p.waiting = append(p.waiting, req)
		return id
	}

	p.send(id, key, data, message)
	return id
}

func (p *MessageProcessor) blocked(req *pendingRequest) bool {
	for _, k := range req.waitsOn {
		if k == req.key {
			continue
		}
		if _, busy := p.pending[k]; busy {
			return true
		}
	}
	return false
}

// supersede discards whatever request currently occupies key, if any:
// its id is forgotten so a late response is dropped by HandleResponse.
func (p *MessageProcessor) supersede(key MessageKey) {
	old, ok := p.pending[key]
	if !ok {
		return
	}
	delete(p.pending, key)
	delete(p.byID, old.id)
	for i, w := range p.waiting {
		if w == old {
			p.waiting = append(p.waiting[:i:i], p.waiting[i+1:]...)
			break
		}
	}
}

// HandleResponse delivers response to the request whose feedback-id
// equals id, if that request has not since been superseded. After
// delivery, any waiting request whose queueKeys are now all clear is
// sent.
func (p *MessageProcessor) HandleResponse(id uint64, response any) {
	req, ok := p.byID[id]
	if !ok {
		return // superseded or unknown; response dropped per spec.
	}
	delete(p.byID, id)
	if p.pending[req.key] == req {
		delete(p.pending, req.key)
	}

	if req.receiver != nil {
		req.receiver(response)
	}

	p.promoteWaiting()
}

// promoteWaiting sends every waiting request no longer blocked by an
// outstanding key. A request sent here becomes outstanding itself, so
// requests queued behind its key keep waiting.
func (p *MessageProcessor) promoteWaiting() {
	for {
		progressed := false
		remaining := p.waiting[:0:0]
		for _, req := range p.waiting {
			if p.blocked(req) {
				remaining = append(remaining, req)
				continue
			}
			p.pending[req.key] = req
			p.send(req.id, req.key, req.data, req.message)
			progressed = true
		}
		p.waiting = remaining
		if !progressed {
			return
		}
	}
}

// IsOutstanding reports whether key currently has a request in flight
// or waiting to be sent.
func (p *MessageProcessor) IsOutstanding(key MessageKey) bool {
	_, ok := p.pending[key]
	return ok
}
