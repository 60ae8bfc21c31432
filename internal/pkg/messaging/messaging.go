package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// ErrDestinationRequired is returned when Publish is called without a destination.
var ErrDestinationRequired = errors.New("messaging: destination is required")

// Publisher publishes messages to a destination (topic or subject).
type Publisher interface {
	io.Closer

	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is used by Kafka for partitioning.
	Key []byte

	// Headers support arbitrary binary values and duplicate keys. Pub/Sub
	// receives them as attributes; NSQ has no headers and drops them.
	Headers []Header

	// Delay is used for deferred delivery where the broker supports it (NSQ).
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID (Pub/Sub).
	MessageID string
	// Topic is the destination the message was written to.
	Topic string
	// Timestamp is when the message was handed to the broker.
	Timestamp time.Time
}
