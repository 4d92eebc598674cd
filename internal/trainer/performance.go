package trainer

import "time"

// PerformanceMap holds seconds spent per exercise index
type PerformanceMap map[int]float64

// Clone returns an independent copy
func (m PerformanceMap) Clone() PerformanceMap {
	out := make(PerformanceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// exerciseVisit is one uninterrupted stay in an EXERCISE phase.
// Timed visits measure countdown consumed since baseline, unbounded
// visits measure wall time while the clock runs.
type exerciseVisit struct {
	index     int
	timed     bool
	baseline  int
	startedAt time.Time
	running   bool
	carried   float64
}

// PerformanceRecorder accumulates elapsed exercise time across visits.
// Each visit commits at most once; later commits add to earlier ones.
type PerformanceRecorder struct {
	clock  Clock
	totals PerformanceMap
	open   *exerciseVisit
}

func NewPerformanceRecorder(clock Clock) *PerformanceRecorder {
	if clock == nil {
		panic("PerformanceRecorder: clock cannot be nil")
	}
	return &PerformanceRecorder{
		clock:  clock,
		totals: make(PerformanceMap),
	}
}

// Begin opens a visit for an exercise. The index gets an entry even if
// nothing is ever committed. Any still open visit is discarded.
func (r *PerformanceRecorder) Begin(index, initialDuration, timeLeft int) {
	r.totals[index] += 0
	r.open = &exerciseVisit{
		index:     index,
		timed:     initialDuration > 0,
		baseline:  timeLeft,
		startedAt: r.clock.Now(),
		running:   true,
	}
}

// Pause stops the wall clock of an unbounded visit
func (r *PerformanceRecorder) Pause() {
	v := r.open
	if v == nil || v.timed || !v.running {
		return
	}
	v.carried += r.clock.Now().Sub(v.startedAt).Seconds()
	v.running = false
}

// Resume re-arms the wall clock baseline of an unbounded visit
func (r *PerformanceRecorder) Resume() {
	v := r.open
	if v == nil || v.timed || v.running {
		return
	}
	v.startedAt = r.clock.Now()
	v.running = true
}

// Restart drops the visit's partial time and measures again from timeLeft
func (r *PerformanceRecorder) Restart(timeLeft int) {
	v := r.open
	if v == nil {
		return
	}
	v.baseline = timeLeft
	v.carried = 0
	v.startedAt = r.clock.Now()
	v.running = true
}

// Elapsed is the open visit's time so far
func (r *PerformanceRecorder) Elapsed(timeLeft int) float64 {
	v := r.open
	if v == nil {
		return 0
	}
	if v.timed {
		return float64(nonNegative(v.baseline - timeLeft))
	}
	elapsed := v.carried
	if v.running {
		elapsed += r.clock.Now().Sub(v.startedAt).Seconds()
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Commit closes the open visit and adds its time to the index total.
// Returns the committed seconds, 0 when no visit was open.
func (r *PerformanceRecorder) Commit(timeLeft int) float64 {
	v := r.open
	if v == nil {
		return 0
	}
	elapsed := r.Elapsed(timeLeft)
	r.totals[v.index] += elapsed
	r.open = nil
	return elapsed
}

// Discard closes the open visit without recording its time
func (r *PerformanceRecorder) Discard() {
	r.open = nil
}

// Clear forgets every total and any open visit
func (r *PerformanceRecorder) Clear() {
	r.totals = make(PerformanceMap)
	r.open = nil
}

// Merge adds previously accumulated totals
func (r *PerformanceRecorder) Merge(m PerformanceMap) {
	for index, seconds := range m {
		if seconds < 0 {
			seconds = 0
		}
		r.totals[index] += seconds
	}
}

// Totals returns a copy of the committed totals
func (r *PerformanceRecorder) Totals() PerformanceMap {
	return r.totals.Clone()
}

// Open reports whether a visit is in progress
func (r *PerformanceRecorder) Open() bool {
	return r.open != nil
}
