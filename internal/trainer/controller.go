package trainer

import (
	"log"
	"sort"
	"time"
)

// SessionListener receives the terminal results of a session.
// Exactly one of the two methods is called, once.
type SessionListener interface {
	OnClose(outcome Outcome)
	OnPauseAndExit(snapshot Snapshot, progress Progress)
}

// ControllerConfig describes the session to run
type ControllerConfig struct {
	Steps              []Step
	WeekNumber         int
	DayName            string
	Trackable          ExerciseSet
	CountdownCues      ExerciseSet
	Phrasebook         Phrasebook
	LocationFixTimeout time.Duration
}

// Capabilities are the optional platform services. Nil Location, Speaker
// and HeartRate degrade to no tracking, silence and no heart rate.
type Capabilities struct {
	Clock     Clock
	Dispatch  Dispatcher
	Location  LocationProvider
	Speaker   Speaker
	HeartRate HeartRateSource
	OnCue     func(string)
}

// SessionController owns the session position and every accumulator.
// It is not safe for concurrent use: all calls, including sensor callbacks
// routed through Dispatch, must come from one goroutine.
type SessionController struct {
	cfg      ControllerConfig
	logger   *log.Logger
	listener SessionListener
	seq      StepSequencer

	timer     PhaseTimer
	recorder  *PerformanceRecorder
	trace     *LocationTrace
	announcer *AnnouncementChannel
	heartRate *HeartRateRecorder

	status  SessionStatus
	pos     Position
	visited map[int]struct{}
	// set when the visited mark of pos.Index was added on the way into the current rest
	restMarkedVisit bool
	// entries counts phase entries and resets, so the owner can realign its ticker
	entries uint64

	onChange func()
}

func NewSessionController(cfg ControllerConfig, caps Capabilities, listener SessionListener, logger *log.Logger) *SessionController {
	if listener == nil {
		panic("SessionController: listener cannot be nil")
	}
	if logger == nil {
		panic("SessionController: logger cannot be nil")
	}
	if caps.Clock == nil {
		caps.Clock = SystemClock{}
	}
	if caps.Dispatch == nil {
		caps.Dispatch = InlineDispatcher
	}
	if cfg.Phrasebook == nil {
		cfg.Phrasebook = PhrasebookFor("es")
	}
	if cfg.Trackable == nil {
		cfg.Trackable = NewExerciseSet(DefaultTrackableExercises...)
	}
	if cfg.CountdownCues == nil {
		cfg.CountdownCues = NewExerciseSet(DefaultCountdownCueExercises...)
	}
	if cfg.LocationFixTimeout == 0 {
		cfg.LocationFixTimeout = DefaultLocationFixTimeout
	}

	return &SessionController{
		cfg:       cfg,
		logger:    logger,
		listener:  listener,
		seq:       NewStepSequencer(cfg.Steps),
		recorder:  NewPerformanceRecorder(caps.Clock),
		trace:     NewLocationTrace(caps.Location, caps.Dispatch, caps.Clock, logger, cfg.LocationFixTimeout),
		announcer: NewAnnouncementChannel(caps.Speaker, caps.Dispatch, logger, caps.OnCue),
		heartRate: NewHeartRateRecorder(caps.HeartRate, caps.Dispatch, logger),
		status:    SessionStatusIdle,
		visited:   make(map[int]struct{}),
	}
}

// SetChangeHandler registers fn to run after every state change
func (c *SessionController) SetChangeHandler(fn func()) {
	c.onChange = fn
}

// Start begins at the first exercise
func (c *SessionController) Start() {
	if c.status != SessionStatusIdle {
		c.logger.Printf("SessionController: Cannot start, session is %s", c.status)
		return
	}
	defer c.changed()

	if c.seq.Len() == 0 {
		c.logger.Printf("SessionController: No steps, closing")
		c.status = SessionStatusClosed
		c.finish(CloseReasonClosedManually)
		return
	}

	c.logger.Printf("SessionController: Starting session with %d steps", c.seq.Len())
	c.status = SessionStatusRunning
	c.heartRate.Start()
	first := Position{Index: 0, Phase: PhaseExercise}
	d := c.seq.PhaseDuration(first)
	c.enter(first, d, d)
}

// Resume restores a session from a snapshot
func (c *SessionController) Resume(snap Snapshot) {
	if c.status != SessionStatusIdle {
		c.logger.Printf("SessionController: Cannot resume, session is %s", c.status)
		return
	}
	if c.seq.Len() == 0 {
		c.Start()
		return
	}
	defer c.changed()

	snap = c.sanitize(snap)
	c.logger.Printf("SessionController: Resuming at %s(%d) with %d/%ds left",
		snap.Phase, snap.ExerciseIndex, snap.TimeLeftInSeconds, snap.InitialDurationInSeconds)

	c.recorder.Merge(snap.AccumulatedDurations)
	c.trace.Merge(snap.AccumulatedRoutes)
	c.heartRate.Merge(snap.AccumulatedHeartRate)

	c.status = SessionStatusRunning
	c.heartRate.Start()
	pos := snap.Position()
	if pos.Phase == PhaseRest {
		_, already := c.visited[pos.Index]
		c.visited[pos.Index] = struct{}{}
		c.restMarkedVisit = !already
	}
	c.enter(pos, snap.InitialDurationInSeconds, snap.TimeLeftInSeconds)
}

// Tick advances the countdown by one second
func (c *SessionController) Tick() {
	if c.status != SessionStatusRunning {
		return
	}
	defer c.changed()

	c.trace.CheckTimeout()
	if !c.timer.Running() || !c.timer.Bounded() {
		return
	}

	if c.timer.Tick() {
		c.logger.Printf("SessionController: %s(%d) finished", c.pos.Phase, c.pos.Index)
		c.advance()
		return
	}
	step := c.seq.Step(c.pos.Index)
	c.announcer.Announce(tickCue(c.cfg.Phrasebook, step, c.pos.Phase, true, c.timer.Remaining(), c.cfg.CountdownCues))
}

// Next skips to the following phase regardless of the time left
func (c *SessionController) Next() {
	if c.status != SessionStatusRunning {
		return
	}
	defer c.changed()
	c.logger.Printf("SessionController: Skipping %s(%d)", c.pos.Phase, c.pos.Index)
	c.advance()
}

// Previous goes back one phase with a fresh timer. From the first exercise it does nothing.
func (c *SessionController) Previous() {
	if c.status != SessionStatusRunning {
		return
	}
	prev, ok := c.seq.Previous(c.pos)
	if !ok {
		c.logger.Printf("SessionController: Already at the first exercise")
		return
	}
	defer c.changed()

	if c.pos.Phase == PhaseRest {
		c.leave(false)
		if c.restMarkedVisit {
			delete(c.visited, c.pos.Index)
		}
	} else {
		c.leave(true)
	}
	c.restMarkedVisit = false

	c.logger.Printf("SessionController: Back to %s(%d)", prev.Phase, prev.Index)
	d := c.seq.PhaseDuration(prev)
	c.enter(prev, d, d)
}

// TogglePause stops or restarts the clock without leaving the phase
func (c *SessionController) TogglePause() {
	if c.status != SessionStatusRunning {
		return
	}
	defer c.changed()

	if c.timer.Running() {
		c.timer.Pause()
		c.recorder.Pause()
		c.announcer.Cancel()
		c.logger.Printf("SessionController: Clock paused at %s(%d)", c.pos.Phase, c.pos.Index)
		return
	}
	c.timer.Resume()
	c.recorder.Resume()
	c.logger.Printf("SessionController: Clock resumed at %s(%d)", c.pos.Phase, c.pos.Index)
}

// ResetPhase refills the current phase and counts it from scratch.
// Time already spent in this visit is dropped.
func (c *SessionController) ResetPhase() {
	if c.status != SessionStatusRunning {
		return
	}
	defer c.changed()

	c.announcer.Cancel()
	c.timer.Reset()
	c.entries++
	if c.pos.Phase == PhaseExercise {
		c.recorder.Restart(c.timer.Remaining())
		// a trace that failed gets another try
		if c.cfg.Trackable.Contains(c.seq.Step(c.pos.Index).Name) && !c.trace.Active() {
			c.trace.Start(c.pos.Index)
		}
	}
	c.logger.Printf("SessionController: Reset %s(%d) to %ds", c.pos.Phase, c.pos.Index, c.timer.Initial())
}

// Restart goes back to the first exercise and forgets everything recorded
func (c *SessionController) Restart() {
	if c.status != SessionStatusRunning {
		return
	}
	defer c.changed()

	c.announcer.Cancel()
	if c.pos.Phase == PhaseExercise {
		c.recorder.Discard()
		c.trace.Abandon()
	}
	c.recorder.Clear()
	c.trace.Clear()
	c.heartRate.Clear()
	c.visited = make(map[int]struct{})
	c.restMarkedVisit = false

	c.logger.Printf("SessionController: Restarting session")
	first := Position{Index: 0, Phase: PhaseExercise}
	d := c.seq.PhaseDuration(first)
	c.enter(first, d, d)
}

// PauseAndExit commits the current visit and hands a snapshot to the listener
func (c *SessionController) PauseAndExit() {
	if c.status != SessionStatusRunning {
		return
	}
	defer c.changed()

	c.announcer.Cancel()
	c.timer.Pause()
	if c.pos.Phase == PhaseExercise {
		c.recorder.Commit(c.timer.Remaining())
		c.trace.Stop()
	}
	c.heartRate.Stop()
	c.status = SessionStatusExited

	snap := Snapshot{
		WeekNumber:               c.cfg.WeekNumber,
		DayName:                  c.cfg.DayName,
		ExerciseIndex:            c.pos.Index,
		Phase:                    c.pos.Phase,
		TimeLeftInSeconds:        c.timer.Remaining(),
		InitialDurationInSeconds: c.timer.Initial(),
		AccumulatedDurations:     c.recorder.Totals(),
		AccumulatedRoutes:        c.trace.Routes(),
		AccumulatedHeartRate:     c.heartRate.Summaries(),
	}
	progress := Progress{
		VisitedIndices: c.visitedIndices(),
		Performance:    c.recorder.Totals(),
		Routes:         c.trace.Routes(),
		HeartRate:      c.heartRate.Summaries(),
	}
	c.logger.Printf("SessionController: Paused and exited at %s(%d)", snap.Phase, snap.ExerciseIndex)
	c.listener.OnPauseAndExit(snap, progress)
}

// Close ends the session. The running visit is not committed.
func (c *SessionController) Close() {
	if c.status != SessionStatusRunning {
		return
	}
	defer c.changed()

	c.announcer.Cancel()
	c.timer.Pause()
	if c.pos.Phase == PhaseExercise {
		c.recorder.Discard()
		c.trace.Abandon()
	}
	c.heartRate.Stop()
	c.status = SessionStatusClosed
	c.logger.Printf("SessionController: Closed at %s(%d)", c.pos.Phase, c.pos.Index)
	c.finish(CloseReasonClosedManually)
}

func (c *SessionController) Status() SessionStatus { return c.status }

// PhaseEntries grows every time a phase is entered or reset
func (c *SessionController) PhaseEntries() uint64 { return c.entries }

// ClockRunning reports whether ticks currently have any effect
func (c *SessionController) ClockRunning() bool {
	return c.status == SessionStatusRunning && c.timer.Running()
}

// State builds the render read model
func (c *SessionController) State() SessionState {
	st := SessionState{
		Status:          c.status,
		Index:           c.pos.Index,
		Total:           c.seq.Len(),
		Phase:           c.pos.Phase,
		TimeLeft:        c.timer.Remaining(),
		InitialDuration: c.timer.Initial(),
		Timed:           c.timer.Bounded(),
		Running:         c.ClockRunning(),
		HeartRateBPM:    c.heartRate.Current(),
		LastCue:         c.announcer.LastCue(),
		VisitedCount:    len(c.visited),
	}
	if c.seq.Len() == 0 {
		st.NextAction = NextActionFinish
		return st
	}

	step := c.seq.Step(c.pos.Index)
	st.StepName = step.Name
	st.Quantity = step.QuantitySpec
	switch {
	case st.Timed:
		st.Display = FormatClock(st.TimeLeft)
	case c.pos.Phase == PhaseExercise:
		st.Display = step.QuantitySpec
		st.ElapsedSeconds = int(c.recorder.Elapsed(0))
	}
	st.Trackable = c.pos.Phase == PhaseExercise && c.cfg.Trackable.Contains(step.Name)
	if st.Trackable {
		st.LocationStatus = c.trace.Status()
		st.RouteDistanceMeters = c.trace.BufferDistanceMeters()
	}
	st.NextAction = c.seq.NextAction(c.pos)
	return st
}

// advance leaves the current phase through its normal end and enters the next one
func (c *SessionController) advance() {
	c.leave(true)

	markedNow := false
	if c.pos.Phase == PhaseExercise {
		if _, ok := c.visited[c.pos.Index]; !ok {
			markedNow = true
		}
		c.visited[c.pos.Index] = struct{}{}
	}

	next, ok := c.seq.Next(c.pos)
	if !ok {
		c.complete()
		return
	}
	c.restMarkedVisit = next.Phase == PhaseRest && markedNow
	d := c.seq.PhaseDuration(next)
	c.enter(next, d, d)
}

// leave runs before any phase entry: speech and location of the old phase end here
func (c *SessionController) leave(commit bool) {
	c.announcer.Cancel()
	if c.pos.Phase == PhaseExercise {
		if commit {
			c.recorder.Commit(c.timer.Remaining())
		} else {
			c.recorder.Discard()
		}
		c.trace.Stop()
	}
	c.heartRate.Attribute(-1)
}

func (c *SessionController) enter(pos Position, initial, timeLeft int) {
	c.pos = pos
	c.entries++
	c.timer.Restore(initial, timeLeft)
	step := c.seq.Step(pos.Index)

	if pos.Phase == PhaseExercise {
		c.recorder.Begin(pos.Index, c.timer.Initial(), c.timer.Remaining())
		c.heartRate.Attribute(pos.Index)
		if c.cfg.Trackable.Contains(step.Name) {
			c.trace.Start(pos.Index)
		}
	}

	c.logger.Printf("SessionController: Entering %s(%d) %q for %ds", pos.Phase, pos.Index, step.Name, c.timer.Remaining())
	c.announcer.Announce(entryCue(c.cfg.Phrasebook, step, pos.Phase, c.timer.Initial()))
}

func (c *SessionController) complete() {
	c.timer.Pause()
	c.heartRate.Stop()
	c.status = SessionStatusCompleted
	c.logger.Printf("SessionController: Session completed, %d exercises visited", len(c.visited))
	c.finish(CloseReasonCompleted)
}

func (c *SessionController) finish(reason CloseReason) {
	c.listener.OnClose(Outcome{
		Reason:         reason,
		VisitedIndices: c.visitedIndices(),
		Performance:    c.recorder.Totals(),
		Routes:         c.trace.Routes(),
		HeartRate:      c.heartRate.Summaries(),
	})
}

// sanitize keeps a resumed position inside the step list and timeLeft inside its duration
func (c *SessionController) sanitize(snap Snapshot) Snapshot {
	last := c.seq.Len() - 1
	if snap.ExerciseIndex < 0 || snap.ExerciseIndex > last {
		c.logger.Printf("SessionController: Snapshot index %d out of range, clamping", snap.ExerciseIndex)
		if snap.ExerciseIndex < 0 {
			snap.ExerciseIndex = 0
		} else {
			snap.ExerciseIndex = last
		}
	}
	if snap.Phase != PhaseExercise && snap.Phase != PhaseRest {
		snap.Phase = PhaseExercise
	}
	if snap.InitialDurationInSeconds < 0 {
		snap.InitialDurationInSeconds = 0
	}
	if snap.TimeLeftInSeconds < 0 || snap.TimeLeftInSeconds > snap.InitialDurationInSeconds {
		c.logger.Printf("SessionController: Snapshot timeLeft %d outside [0,%d], clamping",
			snap.TimeLeftInSeconds, snap.InitialDurationInSeconds)
		if snap.TimeLeftInSeconds < 0 {
			snap.TimeLeftInSeconds = 0
		} else {
			snap.TimeLeftInSeconds = snap.InitialDurationInSeconds
		}
	}
	return snap
}

func (c *SessionController) visitedIndices() []int {
	out := make([]int, 0, len(c.visited))
	for i := range c.visited {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (c *SessionController) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
