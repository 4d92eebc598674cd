package main

import (
	"context"
	"log"

	"github.com/lowaak/guided-trainer/internal/store"
	"github.com/lowaak/guided-trainer/internal/trainer"
)

// sessionRecorder persists what the session reports. It runs on the
// session goroutine, so writes finish before the terminal state is drawn.
type sessionRecorder struct {
	ctx    context.Context
	store  *store.Store
	week   int
	day    string
	total  int
	logger *log.Logger
}

func (r *sessionRecorder) OnPauseAndExit(snap trainer.Snapshot, progress trainer.Progress) {
	if err := r.store.SavePaused(r.ctx, snap); err != nil {
		r.logger.Printf("Recorder: Failed to save paused session: %v", err)
	}
	if _, err := r.store.MergeProgress(r.ctx, r.week, r.day, r.total, progress.VisitedIndices, progress.Performance, progress.Routes); err != nil {
		r.logger.Printf("Recorder: Failed to merge progress: %v", err)
	}
	r.logger.Printf("Recorder: Saved %s at exercise %d", store.DayKey(r.week, r.day), snap.ExerciseIndex+1)
}

func (r *sessionRecorder) OnClose(outcome trainer.Outcome) {
	if err := r.store.ClearPaused(r.ctx, r.week, r.day); err != nil {
		r.logger.Printf("Recorder: Failed to clear paused session: %v", err)
	}
	progress, err := r.store.MergeProgress(r.ctx, r.week, r.day, r.total, outcome.VisitedIndices, outcome.Performance, outcome.Routes)
	if err != nil {
		r.logger.Printf("Recorder: Failed to merge progress: %v", err)
	}
	id, err := r.store.RecordOutcome(r.ctx, r.week, r.day, outcome)
	if err != nil {
		r.logger.Printf("Recorder: Failed to record outcome: %v", err)
		return
	}
	r.logger.Printf("Recorder: Session %s %s (%s), day completed: %v", store.DayKey(r.week, r.day), outcome.Reason, id, progress.AllCompleted)
}
