package bt

import (
	"strings"
	"time"
)

type candidate struct {
	Address string
	Name    string
	RSSI    int16
}

// deviceSelector picks the strap to connect to from scan results. The
// preferred address wins as soon as it is seen. Without one, the first
// strap found is taken. With one that has not shown up, the strongest
// strap seen is taken once settle has passed since the first sighting.
type deviceSelector struct {
	preferred string
	settle    time.Duration

	firstSeen time.Time
	best      *candidate
}

func newDeviceSelector(preferred string, settle time.Duration) *deviceSelector {
	return &deviceSelector{preferred: strings.TrimSpace(preferred), settle: settle}
}

func (s *deviceSelector) offer(c candidate, now time.Time) (candidate, bool) {
	if s.preferred != "" && strings.EqualFold(c.Address, s.preferred) {
		return c, true
	}
	if s.best == nil {
		s.firstSeen = now
		s.best = &c
	} else if c.RSSI > s.best.RSSI {
		s.best = &c
	}
	if s.preferred == "" {
		return *s.best, true
	}
	return s.due(now)
}

func (s *deviceSelector) due(now time.Time) (candidate, bool) {
	if s.best != nil && now.Sub(s.firstSeen) >= s.settle {
		return *s.best, true
	}
	return candidate{}, false
}
