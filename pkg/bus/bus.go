// Package bus defines the pub/sub transport the ingestion loop (C4)
// consumes, plus a Redis implementation grounded on go-redis/v9.
package bus

import (
	"context"
	"fmt"
)

// Message is one notification off a subscribed channel.
type Message struct {
	Channel string
	Payload []byte
}

// Subscription is a live subscribe handle. Receive blocks until the next
// message, ctx cancellation, or a transport failure.
type Subscription interface {
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// Bus is the pub/sub transport abstraction. The ingestion loop depends
// only on this interface, not on Redis directly, so it can be driven by a
// fake in tests.
type Bus interface {
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
}

// BusError wraps a transport-level pub/sub failure (spec.md §7). The
// ingestion loop treats any BusError as a signal to reconnect.
type BusError struct {
	Err error
}

func (e *BusError) Error() string { return fmt.Sprintf("bus: %v", e.Err) }
func (e *BusError) Unwrap() error { return e.Err }

func busErr(err error) error {
	if err == nil {
		return nil
	}
	return &BusError{Err: err}
}
