package trainer

import (
	"log"
	"strings"
	"time"
)

// LocationProvider streams location samples until stop is called.
// Callbacks may arrive on any goroutine.
type LocationProvider interface {
	Watch(onSample func(Coordinate), onError func(error)) (stop func(), err error)
}

// Dispatcher runs fn on the goroutine that owns the session state
type Dispatcher func(fn func())

// InlineDispatcher runs fn immediately on the caller's goroutine
func InlineDispatcher(fn func()) { fn() }

// LocationStatus is the human readable trace state
type LocationStatus string

const (
	LocationStatusIdle       LocationStatus = ""
	LocationStatusRequesting LocationStatus = "requesting"
	LocationStatusActive     LocationStatus = "active"
	LocationStatusStopped    LocationStatus = "stopped"
)

const locationErrorPrefix = "error:"

func locationErrorStatus(reason string) LocationStatus {
	return LocationStatus(locationErrorPrefix + reason)
}

// IsError reports whether the trace failed
func (s LocationStatus) IsError() bool {
	return strings.HasPrefix(string(s), locationErrorPrefix)
}

// Reason is the failure reason of an error status
func (s LocationStatus) Reason() string {
	return strings.TrimPrefix(string(s), locationErrorPrefix)
}

// LocationTrace records the trail of one trackable exercise at a time.
// Every stream is tagged with a generation so samples from a stream that
// was already stopped are dropped.
type LocationTrace struct {
	provider   LocationProvider
	dispatch   Dispatcher
	clock      Clock
	logger     *log.Logger
	fixTimeout time.Duration

	generation  uint64
	active      bool
	index       int
	buffer      []Coordinate
	stop        func()
	status      LocationStatus
	requestedAt time.Time
	gotFix      bool

	routes RouteMap
}

// NewLocationTrace creates a trace. A nil provider makes every Start fail
// with error:unavailable.
func NewLocationTrace(provider LocationProvider, dispatch Dispatcher, clock Clock, logger *log.Logger, fixTimeout time.Duration) *LocationTrace {
	if dispatch == nil {
		panic("LocationTrace: dispatch cannot be nil")
	}
	if clock == nil {
		panic("LocationTrace: clock cannot be nil")
	}
	if logger == nil {
		panic("LocationTrace: logger cannot be nil")
	}
	return &LocationTrace{
		provider:   provider,
		dispatch:   dispatch,
		clock:      clock,
		logger:     logger,
		fixTimeout: fixTimeout,
		routes:     make(RouteMap),
	}
}

// Start stops any running stream and begins recording for index
func (t *LocationTrace) Start(index int) {
	t.Stop()

	if t.provider == nil {
		t.status = locationErrorStatus(locationErrorReason(ErrLocationUnavailable))
		t.logger.Printf("LocationTrace: No location provider, not tracking exercise %d", index)
		return
	}

	t.generation++
	gen := t.generation
	t.active = true
	t.index = index
	t.buffer = nil
	t.status = LocationStatusRequesting
	t.requestedAt = t.clock.Now()
	t.gotFix = false
	t.logger.Printf("LocationTrace: Requesting location for exercise %d", index)

	stop, err := t.provider.Watch(
		func(c Coordinate) { t.dispatch(func() { t.accept(gen, c) }) },
		func(err error) { t.dispatch(func() { t.fail(gen, err) }) },
	)
	if err != nil {
		t.fail(gen, err)
	}
	if !t.active || t.generation != gen {
		// Failed before Watch returned
		if stop != nil {
			stop()
		}
		return
	}
	t.stop = stop
}

// Stop ends the stream and flushes the buffer into the route of its index
func (t *LocationTrace) Stop() {
	if !t.active {
		return
	}
	t.deactivate(true)
	t.status = LocationStatusStopped
	t.logger.Printf("LocationTrace: Stopped tracking exercise %d", t.index)
}

// Abandon ends the stream and drops the buffer
func (t *LocationTrace) Abandon() {
	if !t.active {
		return
	}
	t.deactivate(false)
	t.status = LocationStatusStopped
	t.logger.Printf("LocationTrace: Abandoned trace of exercise %d", t.index)
}

// CheckTimeout fails the trace when no fix arrived in time
func (t *LocationTrace) CheckTimeout() {
	if !t.active || t.gotFix || t.fixTimeout <= 0 {
		return
	}
	if t.clock.Now().Sub(t.requestedAt) >= t.fixTimeout {
		t.fail(t.generation, ErrLocationTimeout)
	}
}

func (t *LocationTrace) accept(gen uint64, c Coordinate) {
	if !t.active || gen != t.generation {
		return
	}
	t.buffer = append(t.buffer, c)
	if !t.gotFix {
		t.gotFix = true
		t.status = LocationStatusActive
		t.logger.Printf("LocationTrace: First fix for exercise %d", t.index)
	}
}

func (t *LocationTrace) fail(gen uint64, err error) {
	if !t.active || gen != t.generation {
		return
	}
	t.deactivate(true)
	t.status = locationErrorStatus(locationErrorReason(err))
	t.logger.Printf("LocationTrace: Tracking exercise %d failed: %v", t.index, err)
}

func (t *LocationTrace) deactivate(flush bool) {
	t.active = false
	t.generation++
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	if flush && len(t.buffer) > 0 {
		t.routes[t.index] = append(t.routes[t.index], t.buffer...)
	}
	t.buffer = nil
}

func (t *LocationTrace) Status() LocationStatus { return t.status }
func (t *LocationTrace) Active() bool           { return t.active }

// BufferDistanceMeters is the length of the trail recorded so far for the running stream
func (t *LocationTrace) BufferDistanceMeters() float64 {
	if !t.active {
		return 0
	}
	return DistanceMeters(t.buffer)
}

// Routes returns a copy of the flushed routes
func (t *LocationTrace) Routes() RouteMap {
	return t.routes.Clone()
}

// Merge appends previously recorded routes
func (t *LocationTrace) Merge(m RouteMap) {
	for index, trail := range m {
		if len(trail) == 0 {
			continue
		}
		t.routes[index] = append(t.routes[index], trail...)
	}
}

// Clear forgets all flushed routes
func (t *LocationTrace) Clear() {
	t.routes = make(RouteMap)
}
