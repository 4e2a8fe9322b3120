package sfm

import "context"

// Event identifies a registration milestone reported by the mapping engine.
type Event string

const (
	// EventInitialPairRegistered fires once per model when the seed image
	// pair has been registered.
	EventInitialPairRegistered Event = "initial_pair_registered"
	// EventImageRegistered fires after each additional image registration.
	EventImageRegistered Event = "image_registered"
	// EventLastImageRegistered fires when no further image can be added to
	// the current model.
	EventLastImageRegistered Event = "last_image_registered"
)

// Observer consumes mapping events. Handling is synchronous: the engine
// blocks until HandleEvent returns, and a non-nil error aborts the run.
type Observer interface {
	HandleEvent(ctx context.Context, event Event) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Event) error

// HandleEvent calls f.
func (f ObserverFunc) HandleEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Mapper is the incremental mapping engine. It carries at most one observer;
// SetObserver replaces any previous registration and must be called before
// Run.
type Mapper interface {
	Run(ctx context.Context) error
	SetObserver(Observer)
}
