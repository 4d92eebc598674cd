package tui

import (
	"strings"
	"sync"

	"github.com/lowaak/guided-trainer/internal/events"
)

const maxLogLines = 1000

// LogTail is an io.Writer keeping the most recent log lines for the log panel
type LogTail struct {
	mu      sync.RWMutex
	lines   []string
	partial string
	event   *events.ChannelEvent[string]
}

func NewLogTail() *LogTail {
	return &LogTail{
		lines: make([]string, 0, maxLogLines),
		event: events.NewChannelEvent[string](false),
	}
}

// Write splits p into lines; an unterminated line waits for the next write
func (t *LogTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	text := t.partial + string(p)
	parts := strings.Split(text, "\n")
	t.partial = parts[len(parts)-1]
	added := parts[:len(parts)-1]
	t.lines = append(t.lines, added...)
	if len(t.lines) > maxLogLines {
		// keep the most recent maxLogLines
		t.lines = t.lines[len(t.lines)-maxLogLines:]
	}
	t.mu.Unlock()

	for _, line := range added {
		t.event.Notify(line)
	}
	return len(p), nil
}

// Tail returns the last n complete lines
func (t *LogTail) Tail(n int) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n > len(t.lines) {
		n = len(t.lines)
	}
	result := make([]string, n)
	copy(result, t.lines[len(t.lines)-n:])
	return result
}

// Listen registers ch for every new line
func (t *LogTail) Listen(ch chan<- string) func() {
	return t.event.Listen(ch)
}
