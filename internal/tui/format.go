package tui

import (
	"fmt"
	"strings"

	"github.com/lowaak/guided-trainer/internal/trainer"
)

// FormatSession renders the session panel text
func FormatSession(st trainer.SessionState) string {
	switch st.Status {
	case trainer.SessionStatusIdle:
		return "\n  [gray]Starting session...[white]\n"
	case trainer.SessionStatusCompleted:
		return fmt.Sprintf("\n  [green]Session completed![white]\n\n  [gray]Exercises done:[white] %d/%d\n", st.VisitedCount, st.Total)
	case trainer.SessionStatusClosed:
		return "\n  [yellow]Session closed[white]\n"
	case trainer.SessionStatusExited:
		return "\n  [yellow]Session saved[white], resume it next time\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  [cyan]Exercise %d/%d[white]", st.Index+1, st.Total)
	if !st.Running {
		b.WriteString(" [gray](PAUSED)[white]")
	}
	b.WriteString("\n\n")

	if st.Phase == trainer.PhaseRest {
		fmt.Fprintf(&b, "  [green]Rest[white] [gray]after %s[white]\n\n", st.StepName)
	} else {
		fmt.Fprintf(&b, "  [yellow]%s[white]\n\n", st.StepName)
	}

	switch {
	case st.Timed:
		fmt.Fprintf(&b, "  [gray]Time left:[white] [yellow]%s[white] / %s\n", st.Display, trainer.FormatClock(st.InitialDuration))
	case st.Display != "":
		fmt.Fprintf(&b, "  [gray]Do:[white] [yellow]%s[white]\n", st.Display)
		fmt.Fprintf(&b, "  [gray]Elapsed:[white] %s\n", trainer.FormatClock(st.ElapsedSeconds))
	}

	if st.Trackable {
		fmt.Fprintf(&b, "  [gray]GPS:[white] %s\n", LocationLabel(st.LocationStatus, st.RouteDistanceMeters))
	}
	if st.HeartRateBPM > 0 {
		fmt.Fprintf(&b, "  [red]♥[white] [yellow]%d[white] bpm\n", st.HeartRateBPM)
	}

	fmt.Fprintf(&b, "\n  [gray]Next:[white] %s\n", NextActionLabel(st.NextAction))
	return b.String()
}

// NextActionLabel says what the next command leads to
func NextActionLabel(a trainer.NextAction) string {
	switch a {
	case trainer.NextActionRest:
		return "rest"
	case trainer.NextActionNextExercise:
		return "next exercise"
	case trainer.NextActionFinish:
		return "finish"
	default:
		return string(a)
	}
}

// LocationLabel describes the route trace of a trackable exercise
func LocationLabel(status trainer.LocationStatus, meters float64) string {
	switch {
	case status.IsError():
		return fmt.Sprintf("[red]unavailable[white] (%s)", status.Reason())
	case status == trainer.LocationStatusRequesting:
		return "waiting for a fix..."
	case status == trainer.LocationStatusActive:
		return "[green]recording[white] " + FormatDistance(meters)
	case status == trainer.LocationStatusStopped:
		return "stopped"
	default:
		return "off"
	}
}

// FormatDistance shows meters below a kilometer and km above
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", meters/1000)
	}
	return fmt.Sprintf("%.0f m", meters)
}

// FormatCue renders the caption panel
func FormatCue(text string) string {
	if text == "" {
		return ""
	}
	return fmt.Sprintf("\n  [yellow]»[white] %s\n", text)
}

func keyHelp(st trainer.SessionState) string {
	toggle := "Pause"
	if !st.Running {
		toggle = "Resume"
	}
	return fmt.Sprintf(" [yellow]Space[white] %s  [yellow]n/→[white] Next  [yellow]p/←[white] Previous  [yellow]r[white] Reset  [yellow]R[white] Restart  [yellow]q[white] Save & exit  [yellow]x/Esc[white] Close", toggle)
}
