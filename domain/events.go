package domain

// EventKind represents a simulated system call
type EventKind int

const (
	EventCreate EventKind = iota
	EventAllocate
	EventSetState
	EventTerminate
	EventDeallocate
	EventStarvation
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventAllocate:
		return "allocate"
	case EventSetState:
		return "set_state"
	case EventTerminate:
		return "terminate"
	case EventDeallocate:
		return "deallocate"
	case EventStarvation:
		return "starvation"
	default:
		return "unknown"
	}
}

// Event represents a lifecycle side effect emitted by the core
type Event struct {
	Kind   EventKind
	PID    int
	State  ProcessState
	Memory int
	// Clock is the simulated time of the event, -1 during admission.
	Clock int
}

// EventSink receives events synchronously from the core
type EventSink interface {
	Emit(event Event)
}

// EventSinkFunc adapts a function to EventSink
type EventSinkFunc func(event Event)

// Emit calls f(event)
func (f EventSinkFunc) Emit(event Event) { f(event) }

// NopSink discards every event
var NopSink EventSink = EventSinkFunc(func(Event) {})
