package mocks

import (
	"sync"

	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/protocol"
)

// MockOutbox records delivered frames and can simulate a closed connection
type MockOutbox struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

// Ensure MockOutbox implements Outbox
var _ model.Outbox = (*MockOutbox)(nil)

// NewMockOutbox creates an open MockOutbox
func NewMockOutbox() *MockOutbox {
	return &MockOutbox{}
}

// Deliver records payload, or fails once the outbox is closed
func (o *MockOutbox) Deliver(payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return model.ErrDeliveryFailed
	}
	o.frames = append(o.frames, append([]byte(nil), payload...))
	return nil
}

// Close makes every subsequent delivery fail
func (o *MockOutbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

// Frames returns the raw frames delivered so far
func (o *MockOutbox) Frames() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([][]byte(nil), o.frames...)
}

// Messages returns the delivered frames decoded; undecodable frames are skipped
func (o *MockOutbox) Messages() []protocol.Message {
	var msgs []protocol.Message
	for _, frame := range o.Frames() {
		if msg, err := protocol.DecodeMessage(frame); err == nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// Kinds returns the tag of every delivered message in order
func (o *MockOutbox) Kinds() []string {
	msgs := o.Messages()
	kinds := make([]string, len(msgs))
	for i, msg := range msgs {
		kinds[i] = msg.Kind
	}
	return kinds
}

// Last returns the most recent message of the given kind
func (o *MockOutbox) Last(kind string) (protocol.Message, bool) {
	msgs := o.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind == kind {
			return msgs[i], true
		}
	}
	return protocol.Message{}, false
}

// Reset forgets every recorded frame
func (o *MockOutbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frames = nil
}
