package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
	"tinygo.org/x/bluetooth"

	"github.com/lowaak/guided-trainer/internal/bt"
	"github.com/lowaak/guided-trainer/internal/config"
	"github.com/lowaak/guided-trainer/internal/location"
	"github.com/lowaak/guided-trainer/internal/plan"
	"github.com/lowaak/guided-trainer/internal/speech"
	"github.com/lowaak/guided-trainer/internal/store"
	"github.com/lowaak/guided-trainer/internal/trainer"
	"github.com/lowaak/guided-trainer/internal/tui"
)

// exitSaveTimeout bounds the wait for the snapshot when the UI dies early
const exitSaveTimeout = 2 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logTail := tui.NewLogTail()
	logFile := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	defer logFile.Close()
	logger := log.New(io.MultiWriter(logFile, logTail), "", log.LstdFlags)
	if cfg.ConfigFile != "" {
		logger.Printf("Main: Using config file %s", cfg.ConfigFile)
	}

	if err := run(cfg, logTail, logger); err != nil {
		logger.Printf("Main: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logTail *tui.LogTail, logger *log.Logger) error {
	program, err := plan.Load(cfg.Plan)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DB, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.List {
		return printProgram(ctx, os.Stdout, program, db)
	}

	day, err := selectDay(program, cfg.Week, cfg.Day)
	if err != nil {
		return err
	}
	if !day.Guided() {
		// nothing to step through, the notes are the whole session
		fmt.Printf("Semana %d - %s\n\n%s\n", cfg.Week, day.Name, day.Notes)
		return nil
	}
	steps, err := day.Steps()
	if err != nil {
		return err
	}

	caps := trainer.Capabilities{}

	if cfg.Location.Enabled {
		feed := location.NewFeedServer(cfg.Location.Listen, logger)
		if err := feed.Start(); err != nil {
			// the session still runs, just without routes
			logger.Printf("Main: Location page unavailable: %v", err)
		} else {
			defer feed.Shutdown()
			caps.Location = feed
		}
	}

	if cfg.Speech.Enabled {
		if speaker, err := newSpeaker(cfg, logger); err != nil {
			logger.Printf("Main: Speech unavailable: %v", err)
		} else {
			defer speaker.Wait()
			caps.Speaker = speaker
		}
	}

	if cfg.HeartRate.Enabled {
		prefs := bt.NewDevicePreferences(bt.DefaultPreferencesPath(), logger)
		monitor := bt.NewHeartRateMonitor(bluetooth.DefaultAdapter, prefs, bt.HeartRateMonitorConfig{
			Address:     cfg.HeartRate.Device,
			ScanTimeout: cfg.HeartRate.ScanTimeout,
		}, logger)
		defer monitor.Shutdown()
		caps.HeartRate = monitor
	}

	recorder := &sessionRecorder{
		ctx:    ctx,
		store:  db,
		week:   cfg.Week,
		day:    day.Name,
		total:  len(steps),
		logger: logger,
	}

	runner := trainer.NewSessionRunner(trainer.ControllerConfig{
		Steps:              steps,
		WeekNumber:         cfg.Week,
		DayName:            day.Name,
		Trackable:          trainer.NewExerciseSet(cfg.Trackable...),
		CountdownCues:      trainer.NewExerciseSet(cfg.CountdownCues...),
		Phrasebook:         trainer.PhrasebookFor(cfg.Lang),
		LocationFixTimeout: cfg.Location.FixTimeout,
	}, caps, recorder, logger)
	defer runner.Shutdown()

	snap, found, err := db.LoadPaused(ctx, cfg.Week, day.Name)
	if err != nil {
		return err
	}
	if found {
		logger.Printf("Main: Resuming %s at exercise %d", store.DayKey(cfg.Week, day.Name), snap.ExerciseIndex+1)
		runner.Resume(snap)
	} else {
		runner.Start()
	}

	if caps.Location != nil {
		logger.Printf("Main: Open http://<this host>%s on the phone to share its location", cfg.Location.Listen)
	}

	player := tui.NewPlayer(tview.NewApplication(), runner, logTail, fmt.Sprintf("Semana %d - %s", cfg.Week, day.Name), logger)
	runErr := player.Run()
	player.Shutdown()
	saveOnExit(runner, logger)
	if runErr != nil {
		return fmt.Errorf("terminal UI: %w", runErr)
	}
	return nil
}

func selectDay(program *plan.Program, week int, name string) (*plan.Day, error) {
	if name != "" {
		return program.Day(week, name)
	}
	w, err := program.Week(week)
	if err != nil {
		return nil, err
	}
	if len(w.Days) == 0 {
		return nil, fmt.Errorf("week %d: %w", week, plan.ErrDayNotFound)
	}
	return &w.Days[0], nil
}

func newSpeaker(cfg *config.Config, logger *log.Logger) (*speech.ExecSpeaker, error) {
	command := cfg.Speech.Command
	if command == "" {
		detected, err := speech.DetectCommand()
		if err != nil {
			return nil, err
		}
		command = detected
	}
	args := cfg.Speech.Args
	if len(args) == 0 {
		args = speech.DefaultArgs(command, cfg.Lang)
	}
	return speech.NewExecSpeaker(command, args, logger)
}

// saveOnExit pauses and exits a session the UI left without a terminal status
func saveOnExit(runner *trainer.SessionRunner, logger *log.Logger) {
	if st, ok := runner.State(); ok && st.Status.Terminal() {
		return
	}
	states := make(chan trainer.SessionState, 16)
	unregister := runner.ListenToState(states)
	defer unregister()

	runner.PauseAndExit()
	timeout := time.After(exitSaveTimeout)
	for {
		select {
		case st := <-states:
			if st.Status.Terminal() {
				return
			}
		case <-timeout:
			logger.Printf("Main: Timeout saving the session on exit")
			return
		}
	}
}

func printProgram(ctx context.Context, w io.Writer, program *plan.Program, db *store.Store) error {
	if program.Name != "" {
		fmt.Fprintf(w, "%s\n\n", program.Name)
	}
	for _, week := range program.Weeks {
		fmt.Fprintf(w, "Semana %d", week.Number)
		if week.Title != "" {
			fmt.Fprintf(w, ": %s", week.Title)
		}
		fmt.Fprintln(w)
		for _, day := range week.Days {
			progress, err := db.LoadProgress(ctx, week.Number, day.Name)
			if err != nil {
				return err
			}
			_, paused, err := db.LoadPaused(ctx, week.Number, day.Name)
			if err != nil {
				return err
			}

			mark := " "
			switch {
			case progress.AllCompleted:
				mark = "✓"
			case paused:
				mark = "‖"
			}
			kind := ""
			if !day.Guided() {
				kind = " (notes)"
			}
			fmt.Fprintf(w, "  [%s] %s%s\n", mark, day.Name, kind)
		}
	}
	return nil
}
