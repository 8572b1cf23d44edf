package analyzer

// EventType distinguishes journal entries.
type EventType int

const (
	EventLog EventType = iota + 1
	EventWarning
)

func (t EventType) String() string {
	switch t {
	case EventLog:
		return "log"
	case EventWarning:
		return "warning"
	}
	return "unknown"
}

// Event is one journal entry as it is recorded.
type Event struct {
	Type    EventType
	Message string
}

// Observer receives journal entries while a run is in progress.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type noopObserver struct{}

func (noopObserver) Observe(Event) {}

// ChannelObserver forwards events to Ch without blocking; events are dropped
// when the channel is full.
type ChannelObserver struct {
	Ch chan<- Event
}

func (o ChannelObserver) Observe(e Event) {
	select {
	case o.Ch <- e:
	default:
	}
}
