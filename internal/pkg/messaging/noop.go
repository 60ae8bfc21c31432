package messaging

import (
	"context"
	"sync"
	"time"
)

// Noop discards every message.
type Noop struct{}

// NewNoop returns a publisher that accepts and drops messages.
func NewNoop() *Noop { return &Noop{} }

// Publish drops msg.
func (*Noop) Publish(ctx context.Context, destination string, _ OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Close is a no-op.
func (*Noop) Close() error { return nil }

// Published is a message captured by Memory.
type Published struct {
	Destination string
	Message     OutgoingMessage
}

// Memory keeps published messages in memory. It backs tests and local runs.
type Memory struct {
	mu   sync.Mutex
	msgs []Published
}

// NewMemory returns an empty in-memory publisher.
func NewMemory() *Memory { return &Memory{} }

// Publish records msg.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	m.mu.Lock()
	m.msgs = append(m.msgs, Published{Destination: destination, Message: msg})
	m.mu.Unlock()

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Messages returns a copy of everything published so far.
func (m *Memory) Messages() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.msgs...)
}

// Close is a no-op.
func (*Memory) Close() error { return nil }
