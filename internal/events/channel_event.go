package events

// ChannelEvent fans values out to channels. Sends never block: a listener
// whose channel is full misses that value.
type ChannelEvent[T any] struct {
	reg registry[T, chan<- T]
}

// NewChannelEvent creates a ChannelEvent. With replayLast the most recent
// value is sent to every new listener.
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{reg: newRegistry[T, chan<- T](replayLast)}
}

// Listen registers ch and returns its deregistration function
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}
	id, replay, ok := e.reg.add(ch)
	if ok {
		trySend(ch, replay)
	}
	return e.reg.remover(id)
}

// Notify delivers value to every registered channel
func (e *ChannelEvent[T]) Notify(value T) {
	for _, ch := range e.reg.record(value) {
		trySend(ch, value)
	}
}

// Last returns the most recent value, false before the first Notify
func (e *ChannelEvent[T]) Last() (T, bool) {
	return e.reg.lastValue()
}

func (e *ChannelEvent[T]) ListenerCount() int {
	return e.reg.count()
}

func trySend[T any](ch chan<- T, value T) {
	select {
	case ch <- value:
	default:
	}
}
