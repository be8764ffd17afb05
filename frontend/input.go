package frontend

// EventKind enumerates the input event taxonomy (spec.md §6 "Input
// frontend").
type EventKind int

const (
	EventKeyboard EventKind = iota
	EventButtonDown
	EventButtonUp
	EventQuit
)

// InputEvent is a single dispatched input event. Key and ButtonID are
// only meaningful for the EventKind they correspond to.
type InputEvent struct {
	Kind     EventKind
	Key      string
	ButtonID int
}

// Listener receives dispatched events a registered InputConfig opted
// into.
type Listener func(ev InputEvent)

// InputConfig registers a listener for a subset of the event taxonomy.
type InputConfig struct {
	Events   []EventKind
	Callback Listener
	UserData any
}

// InputBackend is the input frontend contract (spec.md §6 "Input
// frontend"): Init binds to a host window handle, Update polls pending
// events and dispatches them to every registered listener whose Events
// set includes that event's kind.
type InputBackend interface {
	Init(window any) error
	Update()
	Register(cfg InputConfig)
}
