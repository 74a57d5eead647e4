package connection

import "time"

// EventKind identifies a connection lifecycle transition.
type EventKind string

const (
	EventConnect    EventKind = "connect"
	EventDisconnect EventKind = "disconnect"
)

// Event is emitted after a store mutation has been applied.
type Event struct {
	Kind   EventKind `json:"kind"`
	Record Record    `json:"record"`
	At     time.Time `json:"at"`
}

// Notifier receives store events.
// Publish is called while the store lock is held, so it must only enqueue and never block.
type Notifier interface {
	Publish(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Publish calls f(ev).
func (f NotifierFunc) Publish(ev Event) { f(ev) }

type noopNotifier struct{}

func (noopNotifier) Publish(Event) {}
