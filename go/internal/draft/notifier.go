package draft

import (
	"context"
	"errors"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
)

// Notifier receives events after the transaction that produced them has
// committed. Delivery is best effort and never acknowledged.
type Notifier interface {
	Notify(ctx context.Context, evs []events.Envelope) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, evs []events.Envelope) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, evs []events.Envelope) error {
	return f(ctx, evs)
}

// Notifiers fans events out to every member, joining their errors.
type Notifiers []Notifier

// Notify implements Notifier.
func (ns Notifiers) Notify(ctx context.Context, evs []events.Envelope) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, evs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
