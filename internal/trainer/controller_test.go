package trainer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	ctrl     *SessionController
	listener *recordingListener
	clock    *ManualClock
	speaker  *fakeSpeaker
	location *fakeLocationProvider
	hr       *fakeHeartRateSource
}

func newFixture(t *testing.T, steps []Step) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		listener: &recordingListener{},
		clock:    NewManualClock(testEpoch),
		speaker:  &fakeSpeaker{},
		location: &fakeLocationProvider{},
		hr:       &fakeHeartRateSource{},
	}
	f.ctrl = NewSessionController(
		ControllerConfig{Steps: steps, WeekNumber: 2, DayName: "Lunes"},
		Capabilities{
			Clock:     f.clock,
			Dispatch:  InlineDispatcher,
			Location:  f.location,
			Speaker:   f.speaker,
			HeartRate: f.hr,
		},
		f.listener,
		testLogger(),
	)
	return f
}

// tick advances the manual clock and the controller in lockstep
func (f *controllerFixture) tick(n int) {
	for i := 0; i < n; i++ {
		f.clock.Advance(time.Second)
		f.ctrl.Tick()
	}
}

func (f *controllerFixture) position() Position {
	st := f.ctrl.State()
	return Position{Index: st.Index, Phase: st.Phase}
}

func TestSessionController_ThreeStepTraversal(t *testing.T) {
	f := newFixture(t, threeStepDay())

	var path []Position
	f.ctrl.SetChangeHandler(func() {
		if f.ctrl.Status() != SessionStatusRunning {
			return
		}
		pos := f.position()
		if len(path) == 0 || path[len(path)-1] != pos {
			path = append(path, pos)
		}
	})

	f.ctrl.Start()
	for i := 0; i < 1000 && !f.ctrl.Status().Terminal(); i++ {
		f.tick(1)
	}

	assert.Equal(t, []Position{
		{0, PhaseExercise},
		{0, PhaseRest},
		{1, PhaseExercise},
		{1, PhaseRest},
		{2, PhaseExercise},
	}, path)
	assert.Equal(t, SessionStatusCompleted, f.ctrl.Status())

	require.Len(t, f.listener.outcomes, 1)
	outcome := f.listener.outcomes[0]
	assert.Equal(t, CloseReasonCompleted, outcome.Reason)
	assert.Equal(t, []int{0, 1, 2}, outcome.VisitedIndices)
	// Exercise time only, rest never counted
	assert.Equal(t, PerformanceMap{0: 45, 1: 60, 2: 20}, outcome.Performance)
	assert.Empty(t, f.listener.snapshots)
}

func TestSessionController_CompletesExactlyOnce(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()

	for i := 0; i < 5; i++ {
		f.ctrl.Next()
	}
	f.ctrl.Close()
	f.ctrl.PauseAndExit()
	f.tick(10)

	require.Len(t, f.listener.outcomes, 1)
	assert.Equal(t, CloseReasonCompleted, f.listener.outcomes[0].Reason)
	assert.Empty(t, f.listener.snapshots)
}

func TestSessionController_PauseInRestAndResume(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()

	f.ctrl.Next() // REST(0)
	f.ctrl.Next() // EXERCISE(1)
	f.tick(60)    // into REST(1)
	require.Equal(t, Position{1, PhaseRest}, f.position())
	f.tick(18)
	require.Equal(t, 12, f.ctrl.State().TimeLeft)

	f.ctrl.PauseAndExit()
	require.Len(t, f.listener.snapshots, 1)
	snap := f.listener.snapshots[0]
	assert.Equal(t, 2, snap.WeekNumber)
	assert.Equal(t, "Lunes", snap.DayName)
	assert.Equal(t, 1, snap.ExerciseIndex)
	assert.Equal(t, PhaseRest, snap.Phase)
	assert.Equal(t, 12, snap.TimeLeftInSeconds)
	assert.Equal(t, 30, snap.InitialDurationInSeconds)
	assert.Equal(t, PerformanceMap{0: 0, 1: 60}, snap.AccumulatedDurations)
	assert.Equal(t, []int{0, 1}, f.listener.progress[0].VisitedIndices)
	assert.Empty(t, f.listener.outcomes)
	assert.Equal(t, SessionStatusExited, f.ctrl.Status())

	// Through the wire shape and back
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	resumed := newFixture(t, threeStepDay())
	resumed.ctrl.Resume(decoded)
	st := resumed.ctrl.State()
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, PhaseRest, st.Phase)
	assert.Equal(t, 12, st.TimeLeft)
	assert.Equal(t, 30, st.InitialDuration)
	assert.True(t, st.Running)
}

func TestSessionController_SnapshotWireShape(t *testing.T) {
	snap := Snapshot{
		WeekNumber:               1,
		DayName:                  "Martes",
		ExerciseIndex:            0,
		Phase:                    PhaseExercise,
		TimeLeftInSeconds:        10,
		InitialDurationInSeconds: 45,
		AccumulatedDurations:     PerformanceMap{0: 35},
		AccumulatedRoutes:        RouteMap{0: {{Lat: 1.5, Lng: 2.5, TimestampMs: 99}}},
	}
	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "EXERCISE", generic["phase"])
	assert.Equal(t, float64(10), generic["timeLeftInSeconds"])
	assert.Equal(t, map[string]any{"0": float64(35)}, generic["accumulatedDurations"])
	assert.NotContains(t, generic, "accumulatedHeartRate")

	routes := generic["accumulatedRoutes"].(map[string]any)
	point := routes["0"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(99), point["timestamp"])
}

func TestSessionController_ResumeIsIdempotent(t *testing.T) {
	steps := []Step{
		{Name: "Carrera suave", QuantitySpec: "5 min", RestSpec: "1 min"},
		{Name: "Sentadillas", QuantitySpec: "3x12", RestSpec: ""},
	}
	snap := Snapshot{
		WeekNumber:               3,
		DayName:                  "Jueves",
		ExerciseIndex:            0,
		Phase:                    PhaseExercise,
		TimeLeftInSeconds:        100,
		InitialDurationInSeconds: 300,
		AccumulatedDurations:     PerformanceMap{0: 200},
		AccumulatedRoutes:        RouteMap{0: {{Lat: 40.1, Lng: -3.1, TimestampMs: 1}}},
	}

	first := newFixture(t, steps)
	first.ctrl.Resume(snap)
	first.ctrl.PauseAndExit()
	require.Len(t, first.listener.snapshots, 1)
	once := first.listener.snapshots[0]

	second := newFixture(t, steps)
	second.ctrl.Resume(once)
	second.ctrl.PauseAndExit()
	twice := second.listener.snapshots[0]

	once.AccumulatedHeartRate = nil
	twice.AccumulatedHeartRate = nil
	snap.AccumulatedHeartRate = nil
	assert.Equal(t, snap.Position(), once.Position())
	assert.Equal(t, snap.TimeLeftInSeconds, once.TimeLeftInSeconds)
	assert.Equal(t, snap.AccumulatedDurations, once.AccumulatedDurations)
	assert.Equal(t, snap.AccumulatedRoutes, once.AccumulatedRoutes)
	assert.Equal(t, once, twice)
}

func TestSessionController_ResumeUnboundedAtZero(t *testing.T) {
	steps := []Step{{Name: "Sentadillas", QuantitySpec: "20", RestSpec: ""}}
	f := newFixture(t, steps)

	f.ctrl.Resume(Snapshot{
		ExerciseIndex:        0,
		Phase:                PhaseExercise,
		AccumulatedDurations: PerformanceMap{0: 12},
	})
	f.tick(30)
	assert.Equal(t, SessionStatusRunning, f.ctrl.Status(), "rep based steps never auto advance")
	assert.Equal(t, 30, f.ctrl.State().ElapsedSeconds)

	f.ctrl.Next()
	require.Len(t, f.listener.outcomes, 1)
	assert.InDelta(t, 42, f.listener.outcomes[0].Performance[0], 0.001)
}

func TestSessionController_ResumeTimedAtZeroAdvances(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Resume(Snapshot{ExerciseIndex: 0, Phase: PhaseExercise, TimeLeftInSeconds: 0, InitialDurationInSeconds: 45})

	f.tick(1)
	assert.Equal(t, Position{0, PhaseRest}, f.position())
}

func TestSessionController_ResumeSanitizes(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Resume(Snapshot{ExerciseIndex: 9, Phase: PhaseExercise, TimeLeftInSeconds: 90, InitialDurationInSeconds: 20})

	st := f.ctrl.State()
	assert.Equal(t, 2, st.Index)
	assert.Equal(t, 20, st.TimeLeft)

	g := newFixture(t, threeStepDay())
	g.ctrl.Resume(Snapshot{ExerciseIndex: -1, Phase: PhaseExercise, TimeLeftInSeconds: -5, InitialDurationInSeconds: 45})
	assert.Equal(t, 0, g.ctrl.State().Index)
	assert.Equal(t, 0, g.ctrl.State().TimeLeft)
}

func TestSessionController_PreviousFromFirstIsNoop(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()
	f.tick(5)
	spoken := len(f.speaker.spoken)
	before := f.ctrl.State()

	f.ctrl.Previous()

	assert.Equal(t, before, f.ctrl.State())
	assert.Len(t, f.speaker.spoken, spoken)
	f.ctrl.Next()
	f.ctrl.Close()
	assert.Equal(t, 5.0, f.listener.outcomes[0].Performance[0])
}

func TestSessionController_PreviousThenNext(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()
	f.ctrl.Next()
	f.ctrl.Next() // EXERCISE(1)
	f.tick(10)

	f.ctrl.Previous()
	assert.Equal(t, Position{0, PhaseExercise}, f.position())
	assert.Equal(t, 45, f.ctrl.State().TimeLeft, "previous re-enters with a fresh timer")

	f.ctrl.Next()
	assert.Equal(t, Position{0, PhaseRest}, f.position())
	f.ctrl.Next()
	assert.Equal(t, Position{1, PhaseExercise}, f.position())
	f.tick(4)
	f.ctrl.Next()
	f.ctrl.Close()

	// 10 from the first attempt, 4 from the second, never double counted
	assert.Equal(t, 14.0, f.listener.outcomes[0].Performance[1])
}

func TestSessionController_PreviousFromRestRetractsVisit(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()
	f.tick(45) // REST(0), exercise 0 visited
	assert.Equal(t, 1, f.ctrl.State().VisitedCount)

	f.ctrl.Previous()
	assert.Equal(t, Position{0, PhaseExercise}, f.position())
	assert.Equal(t, 0, f.ctrl.State().VisitedCount)

	f.ctrl.Close()
	assert.Empty(t, f.listener.outcomes[0].VisitedIndices)
	assert.Equal(t, 45.0, f.listener.outcomes[0].Performance[0])
}

func TestSessionController_PreviousFromRestKeepsEarlierVisit(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()
	f.ctrl.Next() // REST(0), visited {0}
	f.ctrl.Previous()
	f.ctrl.Next() // REST(0) again
	f.ctrl.Next() // EXERCISE(1)
	f.ctrl.Previous()
	f.ctrl.Next() // REST(0), 0 was already visited before this rest
	f.ctrl.Previous()

	f.ctrl.Close()
	assert.Equal(t, []int{0}, f.listener.outcomes[0].VisitedIndices)
}

func TestSessionController_TogglePause(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()
	f.tick(5)

	f.ctrl.TogglePause()
	assert.False(t, f.ctrl.State().Running)
	assert.False(t, f.ctrl.ClockRunning())
	f.tick(20)
	assert.Equal(t, 40, f.ctrl.State().TimeLeft)

	f.ctrl.TogglePause()
	f.tick(5)
	assert.Equal(t, 35, f.ctrl.State().TimeLeft)
	assert.Equal(t, Position{0, PhaseExercise}, f.position())

	f.ctrl.Next()
	f.ctrl.Close()
	assert.Equal(t, 10.0, f.listener.outcomes[0].Performance[0])
}

func TestSessionController_TogglePauseUnbounded(t *testing.T) {
	f := newFixture(t, []Step{{Name: "Burpees", QuantitySpec: "15"}})
	f.ctrl.Start()
	f.clock.Advance(10 * time.Second)
	f.ctrl.TogglePause()
	f.clock.Advance(time.Minute)
	f.ctrl.TogglePause()
	f.clock.Advance(5 * time.Second)
	f.ctrl.Next()

	assert.InDelta(t, 15, f.listener.outcomes[0].Performance[0], 0.001)
}

func TestSessionController_ResetPhase(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()
	f.tick(20)
	f.ctrl.TogglePause()

	f.ctrl.ResetPhase()
	st := f.ctrl.State()
	assert.Equal(t, 45, st.TimeLeft)
	assert.True(t, st.Running)

	f.tick(10)
	f.ctrl.Next()
	f.ctrl.Close()
	assert.Equal(t, 10.0, f.listener.outcomes[0].Performance[0])
}

func TestSessionController_CloseDiscardsRunningVisit(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()
	f.tick(45)
	f.ctrl.Next() // EXERCISE(1)
	f.tick(25)

	f.ctrl.Close()
	require.Len(t, f.listener.outcomes, 1)
	outcome := f.listener.outcomes[0]
	assert.Equal(t, CloseReasonClosedManually, outcome.Reason)
	assert.Equal(t, []int{0}, outcome.VisitedIndices)
	assert.Equal(t, PerformanceMap{0: 45, 1: 0}, outcome.Performance)
	assert.Equal(t, SessionStatusClosed, f.ctrl.Status())
}

func TestSessionController_EmptyDayCloses(t *testing.T) {
	f := newFixture(t, nil)
	f.ctrl.Start()

	require.Len(t, f.listener.outcomes, 1)
	assert.Equal(t, CloseReasonClosedManually, f.listener.outcomes[0].Reason)
	assert.Empty(t, f.listener.outcomes[0].VisitedIndices)
	assert.Equal(t, NextActionFinish, f.ctrl.State().NextAction)
}

func TestSessionController_Restart(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()
	f.tick(45)
	f.ctrl.Next()
	f.tick(30)

	f.ctrl.Restart()
	assert.Equal(t, Position{0, PhaseExercise}, f.position())
	assert.Equal(t, 0, f.ctrl.State().VisitedCount)

	f.tick(5)
	f.ctrl.Close()
	assert.Equal(t, PerformanceMap{0: 0}, f.listener.outcomes[0].Performance)
}

func TestSessionController_RecordsRouteForTrackableStep(t *testing.T) {
	steps := []Step{
		{Name: "Carrera suave", QuantitySpec: "1 min", RestSpec: "30 seg"},
		{Name: "Sentadillas", QuantitySpec: "30 seg", RestSpec: ""},
	}
	f := newFixture(t, steps)
	f.ctrl.Start()

	st := f.ctrl.State()
	assert.True(t, st.Trackable)
	assert.Equal(t, LocationStatusRequesting, st.LocationStatus)

	f.location.emit(40.0, -3.0, 1000)
	f.tick(30)
	f.location.emit(40.001, -3.0, 31000)
	assert.Equal(t, LocationStatusActive, f.ctrl.State().LocationStatus)
	assert.InDelta(t, 111, f.ctrl.State().RouteDistanceMeters, 1)

	f.tick(30) // REST(0)
	assert.True(t, f.location.stopped)
	assert.False(t, f.ctrl.State().Trackable)

	// Late sample from the stopped stream is not attributed anywhere
	f.location.emit(41, -3, 70000)
	f.tick(30)
	assert.Equal(t, 1, f.location.watches, "non trackable steps do not request location")

	f.ctrl.Next()
	require.Len(t, f.listener.outcomes, 1)
	routes := f.listener.outcomes[0].Routes
	require.Len(t, routes[0], 2)
	assert.NotContains(t, routes, 1)
}

func TestSessionController_LocationFailureIsNonFatal(t *testing.T) {
	steps := []Step{{Name: "Carrera continua", QuantitySpec: "2 min", RestSpec: ""}}
	f := newFixture(t, steps)
	f.location.watchErr = ErrLocationPermissionDenied
	f.ctrl.Start()

	st := f.ctrl.State()
	assert.Equal(t, "permission_denied", st.LocationStatus.Reason())
	assert.True(t, st.Running)

	f.tick(120)
	require.Len(t, f.listener.outcomes, 1)
	assert.Equal(t, CloseReasonCompleted, f.listener.outcomes[0].Reason)
	assert.Empty(t, f.listener.outcomes[0].Routes)
}

func TestSessionController_LocationTimeoutOnTick(t *testing.T) {
	steps := []Step{{Name: "Carrera continua", QuantitySpec: "2 min", RestSpec: ""}}
	f := newFixture(t, steps)
	f.ctrl.Start()

	f.tick(15)
	assert.Equal(t, "timeout", f.ctrl.State().LocationStatus.Reason())
	assert.True(t, f.location.stopped)
	assert.Equal(t, SessionStatusRunning, f.ctrl.Status())
}

func TestSessionController_ResetPhaseRetriesFailedTrace(t *testing.T) {
	steps := []Step{{Name: "Carrera continua", QuantitySpec: "2 min", RestSpec: ""}}
	f := newFixture(t, steps)
	f.ctrl.Start()
	require.Equal(t, 1, f.location.watches)

	f.location.onError(ErrPositionUnavailable)
	assert.Equal(t, "position_unavailable", f.ctrl.State().LocationStatus.Reason())

	f.ctrl.ResetPhase()
	assert.Equal(t, 2, f.location.watches)
	assert.Equal(t, LocationStatusRequesting, f.ctrl.State().LocationStatus)

	f.location.emit(40, -3, 1000)
	assert.Equal(t, LocationStatusActive, f.ctrl.State().LocationStatus)
}

func TestSessionController_ResetPhaseKeepsLiveTrace(t *testing.T) {
	steps := []Step{{Name: "Carrera continua", QuantitySpec: "2 min", RestSpec: ""}}
	f := newFixture(t, steps)
	f.ctrl.Start()
	f.location.emit(40, -3, 1000)

	f.ctrl.ResetPhase()
	assert.Equal(t, 1, f.location.watches)
	assert.Equal(t, LocationStatusActive, f.ctrl.State().LocationStatus)
}

func TestSessionController_ResetPhaseIgnoresNonTrackableStep(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()

	f.ctrl.ResetPhase()
	assert.Equal(t, 0, f.location.watches)
}

func TestSessionController_PhaseEntriesCountEntriesAndResets(t *testing.T) {
	f := newFixture(t, threeStepDay())
	assert.Equal(t, uint64(0), f.ctrl.PhaseEntries())

	f.ctrl.Start()
	assert.Equal(t, uint64(1), f.ctrl.PhaseEntries())
	f.ctrl.ResetPhase()
	assert.Equal(t, uint64(2), f.ctrl.PhaseEntries())
	f.ctrl.Next()
	assert.Equal(t, uint64(3), f.ctrl.PhaseEntries())
	f.ctrl.TogglePause()
	assert.Equal(t, uint64(3), f.ctrl.PhaseEntries(), "pausing is not an entry")
}

func TestSessionController_PauseAndExitFlushesRoute(t *testing.T) {
	steps := []Step{{Name: "Carrera suave", QuantitySpec: "10 min", RestSpec: ""}}
	f := newFixture(t, steps)
	f.ctrl.Start()
	f.location.emit(1, 1, 1)
	f.tick(100)

	f.ctrl.PauseAndExit()
	snap := f.listener.snapshots[0]
	assert.Len(t, snap.AccumulatedRoutes[0], 1)
	assert.Equal(t, PerformanceMap{0: 100}, snap.AccumulatedDurations)
	assert.Equal(t, 500, snap.TimeLeftInSeconds)
	assert.True(t, f.location.stopped)
	assert.Empty(t, f.listener.progress[0].VisitedIndices)
}

func TestSessionController_SpokenCues(t *testing.T) {
	steps := []Step{
		{Name: "Sentadillas", QuantitySpec: "15 seg", RestSpec: "12 seg"},
		{Name: "Plancha", QuantitySpec: "3x10", RestSpec: ""},
	}
	f := newFixture(t, steps)
	f.ctrl.Start()
	assert.Equal(t, "Sentadillas, 15 segundos", f.speaker.last())

	f.tick(15)
	assert.Equal(t, "Descanso de 12 segundos", f.speaker.last())
	cancelledAtRest := f.speaker.cancelled

	f.tick(11)
	assert.Equal(t, "1", f.speaker.last())
	assert.Greater(t, f.speaker.cancelled, cancelledAtRest, "each cue cancels the one before")

	f.tick(1)
	assert.Equal(t, "Plancha, 3 series de 10 repeticiones", f.speaker.last())

	want := []string{"Sentadillas, 15 segundos", "Descanso de 12 segundos",
		"10", "9", "8", "7", "6", "5", "4", "3", "2", "1",
		"Plancha, 3 series de 10 repeticiones"}
	assert.Equal(t, want, f.speaker.spoken)
	assert.Equal(t, "Plancha, 3 series de 10 repeticiones", f.ctrl.State().LastCue)
}

func TestSessionController_NoCapabilities(t *testing.T) {
	listener := &recordingListener{}
	ctrl := NewSessionController(ControllerConfig{Steps: []Step{
		{Name: "Carrera suave", QuantitySpec: "2 seg", RestSpec: ""},
	}}, Capabilities{Clock: NewManualClock(testEpoch)}, listener, testLogger())

	ctrl.Start()
	assert.Equal(t, "unavailable", ctrl.State().LocationStatus.Reason())
	ctrl.Tick()
	ctrl.Tick()

	require.Len(t, listener.outcomes, 1)
	assert.Equal(t, PerformanceMap{0: 2}, listener.outcomes[0].Performance)
}

func TestSessionController_HeartRateAttribution(t *testing.T) {
	f := newFixture(t, threeStepDay())
	f.ctrl.Start()

	f.hr.onSample(120)
	f.hr.onSample(140)
	assert.Equal(t, 140, f.ctrl.State().HeartRateBPM)
	f.ctrl.Next() // REST(0)
	f.hr.onSample(180)
	f.ctrl.Next() // EXERCISE(1)
	f.hr.onSample(150)

	f.ctrl.Close()
	hr := f.listener.outcomes[0].HeartRate
	assert.Equal(t, HeartRateSummary{AvgBPM: 130, MaxBPM: 140, Samples: 2}, hr[0])
	assert.Equal(t, HeartRateSummary{AvgBPM: 150, MaxBPM: 150, Samples: 1}, hr[1])
	assert.True(t, f.hr.stopped)
}

func TestSessionController_DisplayAndNextAction(t *testing.T) {
	steps := []Step{
		{Name: "Burpees", QuantitySpec: "12", RestSpec: "2:05"},
		{Name: "Plancha", QuantitySpec: "30 seg", RestSpec: ""},
	}
	f := newFixture(t, steps)
	f.ctrl.Start()

	st := f.ctrl.State()
	assert.Equal(t, "12", st.Display)
	assert.False(t, st.Timed)
	assert.Equal(t, NextActionRest, st.NextAction)

	f.ctrl.Next()
	st = f.ctrl.State()
	assert.Equal(t, "02:05", st.Display)
	assert.Equal(t, NextActionNextExercise, st.NextAction)

	f.ctrl.Next()
	assert.Equal(t, NextActionFinish, f.ctrl.State().NextAction)
	assert.Equal(t, 2, f.ctrl.State().Total)
}
