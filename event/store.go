package event

import "context"

// Store persists the bounded event log.
type Store interface {
	// Append stores e and discards the oldest events so that at most
	// capacity remain.
	Append(ctx context.Context, e *Event, capacity int) error

	// List returns the retained events in emission order.
	List(ctx context.Context, opts ListOpts) ([]*Event, error)
}

type ListOpts struct {
	Type       Type
	ContractID uint64
	Limit      int
	Offset     int
}
