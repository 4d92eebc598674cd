package trainer

import (
	"sync"
	"time"
)

// Clock supplies wall time and the recurring tick
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker mirrors the parts of time.Ticker the runner uses
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// SystemClock is the real clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{ticker: time.NewTicker(d)}
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t *systemTicker) C() <-chan time.Time   { return t.ticker.C }
func (t *systemTicker) Reset(d time.Duration) { t.ticker.Reset(d) }
func (t *systemTicker) Stop()                 { t.ticker.Stop() }

// ManualClock only moves when Advance is called. Tickers created from it
// fire once per whole period crossed.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{
		ch:      make(chan time.Time, 64),
		period:  d,
		running: true,
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves time forward and fires due tickers
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	tickers := make([]*manualTicker, len(c.tickers))
	copy(tickers, c.tickers)
	c.mu.Unlock()

	for _, t := range tickers {
		t.advance(d, now)
	}
}

type manualTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	period  time.Duration
	pending time.Duration
	running bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

// Reset drops undelivered ticks, like time.Ticker since Go 1.23
func (t *manualTicker) Reset(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.period = d
	t.pending = 0
	t.running = true
	for {
		select {
		case <-t.ch:
		default:
			return
		}
	}
}

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

func (t *manualTicker) advance(d time.Duration, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || t.period <= 0 {
		return
	}
	t.pending += d
	for t.pending >= t.period {
		t.pending -= t.period
		select {
		case t.ch <- now:
		default:
		}
	}
}
