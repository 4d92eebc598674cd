package events

// CallbackEvent calls listener functions synchronously on the notifying goroutine
type CallbackEvent[T any] struct {
	reg registry[T, func(T)]
}

// NewCallbackEvent creates a CallbackEvent. With replayLast a new listener
// is called right away with the most recent value.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{reg: newRegistry[T, func(T)](replayLast)}
}

// Listen registers callback and returns its deregistration function
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}
	id, replay, ok := e.reg.add(callback)
	if ok {
		callback(replay)
	}
	return e.reg.remover(id)
}

// Notify calls every listener with value, outside the lock
func (e *CallbackEvent[T]) Notify(value T) {
	for _, callback := range e.reg.record(value) {
		callback(value)
	}
}

func (e *CallbackEvent[T]) Last() (T, bool) {
	return e.reg.lastValue()
}

func (e *CallbackEvent[T]) ListenerCount() int {
	return e.reg.count()
}
