package trainer

// PhaseTimer is the countdown for the active phase.
// With an initial duration of 0 it never counts; the phase is timed by the
// PerformanceRecorder's wall clock instead.
type PhaseTimer struct {
	initial int
	left    int
	running bool
}

// Start arms the timer with a full duration and starts it
func (t *PhaseTimer) Start(duration int) {
	t.Restore(duration, duration)
}

// Restore arms the timer mid countdown and starts it.
// left is clamped into [0, initial].
func (t *PhaseTimer) Restore(initial, left int) {
	initial = nonNegative(initial)
	left = nonNegative(left)
	if left > initial {
		left = initial
	}
	t.initial = initial
	t.left = left
	t.running = true
}

// Tick decrements by one second and reports whether the countdown expired on this tick
func (t *PhaseTimer) Tick() bool {
	if !t.running || t.initial == 0 {
		return false
	}
	if t.left > 0 {
		t.left--
	}
	return t.left == 0
}

func (t *PhaseTimer) Pause() {
	t.running = false
}

func (t *PhaseTimer) Resume() {
	t.running = true
}

// Reset refills the countdown to its initial duration and starts it
func (t *PhaseTimer) Reset() {
	t.left = t.initial
	t.running = true
}

func (t *PhaseTimer) Remaining() int { return t.left }
func (t *PhaseTimer) Initial() int   { return t.initial }
func (t *PhaseTimer) Running() bool  { return t.running }

// Bounded reports whether the phase counts down
func (t *PhaseTimer) Bounded() bool { return t.initial > 0 }
