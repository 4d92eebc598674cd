// Package tui is the terminal player of a guided session.
package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/guided-trainer/internal/go_func_utils"
	"github.com/lowaak/guided-trainer/internal/trainer"
)

const (
	pageSession = "session"
	pageConfirm = "confirm_close"
)

// Commands is what the player drives; trainer.SessionRunner implements it
type Commands interface {
	Next()
	Previous()
	TogglePause()
	ResetPhase()
	Restart()
	PauseAndExit()
	Close()
	ListenToState(ch chan<- trainer.SessionState) func()
	ListenToCues(fn func(string)) func()
}

type action int

const (
	actionNone action = iota
	actionTogglePause
	actionNext
	actionPrevious
	actionResetPhase
	actionRestart
	actionPauseAndExit
	actionClose
)

// keyAction maps a key press onto a player action
func keyAction(event *tcell.EventKey) action {
	switch event.Key() {
	case tcell.KeyRight:
		return actionNext
	case tcell.KeyLeft:
		return actionPrevious
	case tcell.KeyEscape:
		return actionClose
	case tcell.KeyRune:
		switch event.Rune() {
		case ' ':
			return actionTogglePause
		case 'n':
			return actionNext
		case 'p':
			return actionPrevious
		case 'r':
			return actionResetPhase
		case 'R':
			return actionRestart
		case 'q':
			return actionPauseAndExit
		case 'x':
			return actionClose
		}
	}
	return actionNone
}

// Player renders the session read model and turns keys into commands.
// It stops the application once the session reaches a terminal status.
type Player struct {
	logger   *log.Logger
	app      *tview.Application
	commands Commands
	logTail  *LogTail
	title    string

	pages        *tview.Pages
	sessionPanel *tview.TextView
	cuePanel     *tview.TextView
	helpBar      *tview.TextView
	logView      *tview.TextView

	// confirming is only touched on the UI goroutine
	confirming bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPlayer builds the widgets. logTail may be nil to hide the log panel.
func NewPlayer(app *tview.Application, commands Commands, logTail *LogTail, title string, logger *log.Logger) *Player {
	if app == nil {
		panic("Player: app cannot be nil")
	}
	if commands == nil {
		panic("Player: commands cannot be nil")
	}
	if logger == nil {
		panic("Player: logger cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		logger:   logger,
		app:      app,
		commands: commands,
		logTail:  logTail,
		title:    title,
		ctx:      ctx,
		cancel:   cancel,
	}
	p.initWidgets()
	return p
}

func (p *Player) initWidgets() {
	p.sessionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	p.sessionPanel.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", p.title))
	p.sessionPanel.SetText(FormatSession(trainer.SessionState{}))

	p.cuePanel = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	p.cuePanel.SetBorder(true).SetTitle(" Cue ")

	p.helpBar = tview.NewTextView().
		SetDynamicColors(true)
	p.helpBar.SetText(keyHelp(trainer.SessionState{Running: true}))

	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(p.sessionPanel, 0, 3, true).
		AddItem(p.cuePanel, 5, 0, false)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(left, 0, 1, true)
	if p.logTail != nil {
		p.logView = tview.NewTextView().
			SetDynamicColors(false).
			SetScrollable(false)
		p.logView.SetBorder(true).SetTitle(" Logs ")
		body.AddItem(p.logView, 0, 1, false)
	}

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(p.helpBar, 1, 0, false)

	p.pages = tview.NewPages().
		AddPage(pageSession, root, true, true)
}

// Run starts listening and blocks until the UI exits
func (p *Player) Run() error {
	p.app.SetInputCapture(p.handleKey)
	p.listen()
	// SetRoot must be called before setting focus, otherwise focus may be reset
	p.app.SetRoot(p.pages, true)
	p.app.SetFocus(p.sessionPanel)
	return p.app.Run()
}

// Shutdown stops the listeners and waits for them to finish
func (p *Player) Shutdown() {
	p.logger.Println("Player: Shutting down")
	p.cancel()
	p.wg.Wait()
	p.logger.Println("Player: Shutdown complete")
}

func (p *Player) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if p.confirming {
		// the modal owns the keyboard
		return event
	}
	if event.Key() == tcell.KeyCtrlC {
		p.commands.PauseAndExit()
		return nil
	}

	switch keyAction(event) {
	case actionTogglePause:
		p.commands.TogglePause()
	case actionNext:
		p.commands.Next()
	case actionPrevious:
		p.commands.Previous()
	case actionResetPhase:
		p.commands.ResetPhase()
	case actionRestart:
		p.commands.Restart()
	case actionPauseAndExit:
		p.commands.PauseAndExit()
	case actionClose:
		p.confirmClose()
	default:
		return event
	}
	return nil
}

func (p *Player) confirmClose() {
	p.confirming = true
	modal := tview.NewModal().
		SetText("Close the session? Progress of the current exercise is discarded.").
		AddButtons([]string{"Close", "Keep going"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			p.confirming = false
			p.pages.RemovePage(pageConfirm)
			p.app.SetFocus(p.sessionPanel)
			if buttonLabel == "Close" {
				p.commands.Close()
			}
		})
	p.pages.AddPage(pageConfirm, modal, true, true)
}

func (p *Player) listen() {
	states := make(chan trainer.SessionState, 64)
	stateUnregister := p.commands.ListenToState(states)

	cues := make(chan string, 8)
	cueUnregister := p.commands.ListenToCues(func(text string) {
		select {
		case cues <- text:
		default:
		}
	})

	var logLines chan string
	logUnregister := func() {}
	if p.logTail != nil {
		logLines = make(chan string, 1)
		logUnregister = p.logTail.Listen(logLines)
	}

	p.wg.Add(1)
	go_func_utils.SafeGo(p.logger, "Player", func() {
		defer p.wg.Done()
		defer stateUnregister()
		defer cueUnregister()
		defer logUnregister()

		for {
			select {
			case <-p.ctx.Done():
				return

			case st := <-states:
				st = latest(states, st)
				p.app.QueueUpdateDraw(func() { p.renderState(st) })
				if st.Status.Terminal() {
					p.logger.Printf("Player: Session %s, stopping UI", st.Status)
					p.app.Stop()
					return
				}

			case text := <-cues:
				p.app.QueueUpdateDraw(func() { p.cuePanel.SetText(FormatCue(text)) })

			case <-logLines:
				p.app.QueueUpdateDraw(p.renderLog)
			}
		}
	})
}

// latest drains ch and returns the newest state
func latest(ch <-chan trainer.SessionState, st trainer.SessionState) trainer.SessionState {
	for {
		select {
		case next := <-ch:
			st = next
		default:
			return st
		}
	}
}

func (p *Player) renderState(st trainer.SessionState) {
	p.sessionPanel.SetText(FormatSession(st))
	p.helpBar.SetText(keyHelp(st))
	if st.LastCue != "" {
		p.cuePanel.SetText(FormatCue(st.LastCue))
	}
}

func (p *Player) renderLog() {
	_, _, _, height := p.logView.GetInnerRect()
	if height <= 0 {
		return
	}
	p.logView.SetText(strings.Join(p.logTail.Tail(height), "\n"))
}
