package trainer

import "log"

// HeartRateSource streams beats per minute until stop is called.
// Callbacks may arrive on any goroutine.
type HeartRateSource interface {
	Watch(onSample func(bpm int), onError func(error)) (stop func(), err error)
}

// HeartRateSummary aggregates the samples of one exercise index
type HeartRateSummary struct {
	AvgBPM  float64 `json:"avgBpm"`
	MaxBPM  int     `json:"maxBpm"`
	Samples int     `json:"samples"`
}

func (s HeartRateSummary) add(bpm int) HeartRateSummary {
	total := s.AvgBPM*float64(s.Samples) + float64(bpm)
	s.Samples++
	s.AvgBPM = total / float64(s.Samples)
	if bpm > s.MaxBPM {
		s.MaxBPM = bpm
	}
	return s
}

func (s HeartRateSummary) merge(other HeartRateSummary) HeartRateSummary {
	if other.Samples <= 0 {
		return s
	}
	total := s.AvgBPM*float64(s.Samples) + other.AvgBPM*float64(other.Samples)
	s.Samples += other.Samples
	s.AvgBPM = total / float64(s.Samples)
	if other.MaxBPM > s.MaxBPM {
		s.MaxBPM = other.MaxBPM
	}
	return s
}

// HeartRateMap holds a summary per exercise index
type HeartRateMap map[int]HeartRateSummary

func (m HeartRateMap) Clone() HeartRateMap {
	out := make(HeartRateMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// HeartRateRecorder keeps one stream open for the whole session and
// attributes samples to whichever exercise is running.
type HeartRateRecorder struct {
	source   HeartRateSource
	dispatch Dispatcher
	logger   *log.Logger

	generation uint64
	stop       func()
	attributed int
	current    int
	summaries  HeartRateMap
}

func NewHeartRateRecorder(source HeartRateSource, dispatch Dispatcher, logger *log.Logger) *HeartRateRecorder {
	if dispatch == nil {
		panic("HeartRateRecorder: dispatch cannot be nil")
	}
	if logger == nil {
		panic("HeartRateRecorder: logger cannot be nil")
	}
	return &HeartRateRecorder{
		source:     source,
		dispatch:   dispatch,
		logger:     logger,
		attributed: -1,
		summaries:  make(HeartRateMap),
	}
}

// Start opens the stream, a no-op without a source or when already open
func (r *HeartRateRecorder) Start() {
	if r.source == nil || r.stop != nil {
		return
	}
	r.generation++
	gen := r.generation
	stop, err := r.source.Watch(
		func(bpm int) { r.dispatch(func() { r.accept(gen, bpm) }) },
		func(err error) { r.dispatch(func() { r.fail(gen, err) }) },
	)
	if err != nil {
		r.logger.Printf("HeartRateRecorder: Heart rate unavailable: %v", err)
		return
	}
	if gen != r.generation {
		if stop != nil {
			stop()
		}
		return
	}
	r.stop = stop
	r.logger.Printf("HeartRateRecorder: Heart rate stream started")
}

// Stop closes the stream
func (r *HeartRateRecorder) Stop() {
	r.generation++
	if r.stop != nil {
		r.stop()
		r.stop = nil
		r.logger.Printf("HeartRateRecorder: Heart rate stream stopped")
	}
	r.current = 0
}

// Attribute sends following samples to index, -1 discards them
func (r *HeartRateRecorder) Attribute(index int) {
	r.attributed = index
}

func (r *HeartRateRecorder) accept(gen uint64, bpm int) {
	if gen != r.generation || bpm <= 0 {
		return
	}
	r.current = bpm
	if r.attributed < 0 {
		return
	}
	r.summaries[r.attributed] = r.summaries[r.attributed].add(bpm)
}

func (r *HeartRateRecorder) fail(gen uint64, err error) {
	if gen != r.generation {
		return
	}
	r.logger.Printf("HeartRateRecorder: Heart rate stream failed: %v", err)
	r.generation++
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	r.current = 0
}

// Current is the latest bpm, 0 when unknown
func (r *HeartRateRecorder) Current() int { return r.current }

func (r *HeartRateRecorder) Summaries() HeartRateMap {
	return r.summaries.Clone()
}

func (r *HeartRateRecorder) Merge(m HeartRateMap) {
	for index, summary := range m {
		r.summaries[index] = r.summaries[index].merge(summary)
	}
}

func (r *HeartRateRecorder) Clear() {
	r.summaries = make(HeartRateMap)
}
