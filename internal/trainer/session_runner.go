package trainer

import (
	"log"
	"sync"

	"github.com/lowaak/guided-trainer/internal/events"
	"github.com/lowaak/guided-trainer/internal/go_func_utils"
)

const runnerInboxSize = 64

// SessionRunner owns a SessionController on a single goroutine. Commands,
// ticks, location samples, heart rate samples and speech completions all
// pass through one inbox, so the controller never sees concurrent calls.
type SessionRunner struct {
	ctrl   *SessionController
	clock  Clock
	logger *log.Logger

	stateEvent *events.ChannelEvent[SessionState]
	cueEvent   *events.CallbackEvent[string]

	// dirty is only touched on the loop goroutine
	dirty bool

	inbox        chan func()
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewSessionRunner builds the controller and starts the loop goroutine.
// caps.Dispatch is replaced by the runner's inbox.
func NewSessionRunner(cfg ControllerConfig, caps Capabilities, listener SessionListener, logger *log.Logger) *SessionRunner {
	if logger == nil {
		panic("SessionRunner: logger cannot be nil")
	}
	if caps.Clock == nil {
		caps.Clock = SystemClock{}
	}

	r := &SessionRunner{
		clock:      caps.Clock,
		logger:     logger,
		stateEvent: events.NewChannelEvent[SessionState](true),
		cueEvent:   events.NewCallbackEvent[string](true),
		inbox:      make(chan func(), runnerInboxSize),
		doneChan:   make(chan struct{}),
	}

	onCue := caps.OnCue
	caps.OnCue = func(text string) {
		r.cueEvent.Notify(text)
		if onCue != nil {
			onCue(text)
		}
	}
	caps.Dispatch = r.post

	r.ctrl = NewSessionController(cfg, caps, listener, logger)
	r.ctrl.SetChangeHandler(func() { r.dirty = true })

	r.wg.Add(1)
	go_func_utils.SafeGo(logger, "SessionRunner", r.runLoop)
	return r
}

func (r *SessionRunner) Start()               { r.post(r.ctrl.Start) }
func (r *SessionRunner) Resume(snap Snapshot) { r.post(func() { r.ctrl.Resume(snap) }) }
func (r *SessionRunner) Next()                { r.post(r.ctrl.Next) }
func (r *SessionRunner) Previous()            { r.post(r.ctrl.Previous) }
func (r *SessionRunner) TogglePause()         { r.post(r.ctrl.TogglePause) }
func (r *SessionRunner) ResetPhase()          { r.post(r.ctrl.ResetPhase) }
func (r *SessionRunner) Restart()             { r.post(r.ctrl.Restart) }
func (r *SessionRunner) PauseAndExit()        { r.post(r.ctrl.PauseAndExit) }
func (r *SessionRunner) Close()               { r.post(r.ctrl.Close) }

// ListenToState registers ch for render state; the latest state is sent right away
func (r *SessionRunner) ListenToState(ch chan<- SessionState) func() {
	return r.stateEvent.Listen(ch)
}

// ListenToCues registers fn for every spoken cue, called on the loop goroutine
func (r *SessionRunner) ListenToCues(fn func(string)) func() {
	return r.cueEvent.Listen(fn)
}

// State returns the last published render state
func (r *SessionRunner) State() (SessionState, bool) {
	return r.stateEvent.Last()
}

// Shutdown stops the loop. Safe to call more than once.
func (r *SessionRunner) Shutdown() {
	r.shutdownOnce.Do(func() {
		r.logger.Printf("SessionRunner: Shutting down")
		close(r.doneChan)
		r.wg.Wait()
		r.logger.Printf("SessionRunner: Shutdown complete")
	})
}

// post queues fn for the loop goroutine, dropping it after shutdown
func (r *SessionRunner) post(fn func()) {
	select {
	case r.inbox <- fn:
	case <-r.doneChan:
	}
}

func (r *SessionRunner) runLoop() {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(TickInterval)
	ticker.Stop() // started once the clock runs
	ticking := false
	entries := r.ctrl.PhaseEntries()

	for {
		select {
		case <-r.doneChan:
			ticker.Stop()
			r.logger.Printf("SessionRunner: Goroutine exiting")
			return

		case fn := <-r.inbox:
			fn()

		case <-ticker.C():
			r.ctrl.Tick()
		}

		// a new phase gets a full first second
		running := r.ctrl.ClockRunning()
		entered := r.ctrl.PhaseEntries() != entries
		entries = r.ctrl.PhaseEntries()
		if running && (!ticking || entered) {
			ticker.Reset(TickInterval)
			ticking = true
		} else if !running && ticking {
			ticker.Stop()
			ticking = false
		}

		if r.dirty {
			r.dirty = false
			r.stateEvent.Notify(r.ctrl.State())
		}
	}
}
