package trainer

import "log"

// Speaker starts an utterance without blocking. done is called once when
// speech ends or fails; cancel stops it early.
type Speaker interface {
	Speak(text string, done func(error)) (cancel func(), err error)
}

// AnnouncementChannel speaks one cue at a time. A new cue always cancels
// the current one. Without a speaker it only keeps the caption.
type AnnouncementChannel struct {
	speaker  Speaker
	dispatch Dispatcher
	logger   *log.Logger
	onCue    func(string)

	utterance uint64
	cancel    func()
	speaking  bool
	lastCue   string
	warned    bool
}

func NewAnnouncementChannel(speaker Speaker, dispatch Dispatcher, logger *log.Logger, onCue func(string)) *AnnouncementChannel {
	if dispatch == nil {
		panic("AnnouncementChannel: dispatch cannot be nil")
	}
	if logger == nil {
		panic("AnnouncementChannel: logger cannot be nil")
	}
	return &AnnouncementChannel{
		speaker:  speaker,
		dispatch: dispatch,
		logger:   logger,
		onCue:    onCue,
	}
}

// Announce cancels any utterance in flight and speaks text
func (a *AnnouncementChannel) Announce(text string) {
	if text == "" {
		return
	}
	a.Cancel()
	a.lastCue = text
	if a.onCue != nil {
		a.onCue(text)
	}
	if a.speaker == nil {
		return
	}

	a.utterance++
	id := a.utterance
	a.speaking = true
	cancel, err := a.speaker.Speak(text, func(err error) {
		a.dispatch(func() { a.finished(id, err) })
	})
	if err != nil {
		a.speaking = false
		if !a.warned {
			a.logger.Printf("AnnouncementChannel: Speech unavailable, continuing silently: %v", err)
			a.warned = true
		}
		return
	}
	if a.speaking && a.utterance == id {
		a.cancel = cancel
	}
}

// Cancel stops the current utterance, if any
func (a *AnnouncementChannel) Cancel() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.speaking = false
	a.utterance++
}

func (a *AnnouncementChannel) finished(id uint64, err error) {
	if id != a.utterance {
		return
	}
	a.speaking = false
	a.cancel = nil
	if err != nil {
		a.logger.Printf("AnnouncementChannel: Utterance failed: %v", err)
	}
}

func (a *AnnouncementChannel) Speaking() bool  { return a.speaking }
func (a *AnnouncementChannel) LastCue() string { return a.lastCue }
