package trainer

import (
	"io"
	"log"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeLocationProvider struct {
	watchErr error
	watches  int
	stops    int
	onSample func(Coordinate)
	onError  func(error)
	stopped  bool
}

func (p *fakeLocationProvider) Watch(onSample func(Coordinate), onError func(error)) (func(), error) {
	p.watches++
	if p.watchErr != nil {
		return nil, p.watchErr
	}
	p.onSample = onSample
	p.onError = onError
	p.stopped = false
	return func() {
		p.stops++
		p.stopped = true
	}, nil
}

func (p *fakeLocationProvider) emit(lat, lng float64, ts int64) {
	p.onSample(Coordinate{Lat: lat, Lng: lng, TimestampMs: ts})
}

type fakeSpeaker struct {
	spoken    []string
	cancelled int
	pending   []func(error)
}

func (s *fakeSpeaker) Speak(text string, done func(error)) (func(), error) {
	s.spoken = append(s.spoken, text)
	s.pending = append(s.pending, done)
	return func() { s.cancelled++ }, nil
}

// finishAll completes every utterance started so far
func (s *fakeSpeaker) finishAll() {
	pending := s.pending
	s.pending = nil
	for _, done := range pending {
		done(nil)
	}
}

func (s *fakeSpeaker) last() string {
	if len(s.spoken) == 0 {
		return ""
	}
	return s.spoken[len(s.spoken)-1]
}

type fakeHeartRateSource struct {
	watchErr error
	onSample func(int)
	onError  func(error)
	stopped  bool
}

func (h *fakeHeartRateSource) Watch(onSample func(int), onError func(error)) (func(), error) {
	if h.watchErr != nil {
		return nil, h.watchErr
	}
	h.onSample = onSample
	h.onError = onError
	return func() { h.stopped = true }, nil
}

type recordingListener struct {
	outcomes  []Outcome
	snapshots []Snapshot
	progress  []Progress
}

func (l *recordingListener) OnClose(outcome Outcome) {
	l.outcomes = append(l.outcomes, outcome)
}

func (l *recordingListener) OnPauseAndExit(snapshot Snapshot, progress Progress) {
	l.snapshots = append(l.snapshots, snapshot)
	l.progress = append(l.progress, progress)
}
