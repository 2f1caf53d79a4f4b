package domain

import "context"

type Event interface {
	Type() string
	// AggregateID identifies the entity the event belongs to; used as the message key.
	AggregateID() string
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}
