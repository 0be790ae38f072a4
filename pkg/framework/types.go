package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is a request delivered to controllers in the foreground loop.
type Message interface{}

// Controller defines the work done in one loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// ControlContext provides the context of current iteration.
type ControlContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Time is when this iteration started.
	Time() time.Time
	// Messages retrieves all messages collected when this iteration
	// starts.
	Messages() MessageStore

	LoopControl
}

// LoopControl exposes access to the loop from other goroutines.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration to run immediately
	// instead of waiting for the interval.
	TriggerNext()
}

// MessageStore provides access to the messages of an iteration.
type MessageStore interface {
	// ProcessMessages calls fn for every message. Messages for which fn
	// returns true are taken and removed; the others are kept for
	// controllers later in the same iteration and then dropped.
	ProcessMessages(fn func(Message) bool)
}

// Priorities of controllers. Lower runs first.
const (
	PrLvHigh   int = 0
	PrLvNormal int = 1
	PrLvIdle   int = 2

	// PriorityLevels is the total levels of priorities.
	PriorityLevels int = 3
)

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}
