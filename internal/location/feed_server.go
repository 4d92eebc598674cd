// Package location receives positions posted by a phone browser and
// streams them to the session engine.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lowaak/guided-trainer/internal/go_func_utils"
	"github.com/lowaak/guided-trainer/internal/trainer"
)

// Geolocation API error codes posted by the page
const (
	codePermissionDenied    = 1
	codePositionUnavailable = 2
	codeTimeout             = 3
)

// Sample is a position as posted by the browser
type Sample struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
	Accuracy  float64 `json:"accuracy"`
}

type positionError struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type subscriber struct {
	onSample func(trainer.Coordinate)
	onError  func(error)
}

// FeedServer serves the location page and fans posted positions out to
// every active watcher. It implements trainer.LocationProvider.
type FeedServer struct {
	logger *log.Logger
	router chi.Router
	server *http.Server
	addr   string

	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	nextID      uint64
	last        *Sample

	wg sync.WaitGroup
}

func NewFeedServer(addr string, logger *log.Logger) *FeedServer {
	if logger == nil {
		panic("FeedServer: logger cannot be nil")
	}
	s := &FeedServer{
		logger:      logger,
		router:      chi.NewRouter(),
		addr:        addr,
		subscribers: make(map[uint64]subscriber),
	}
	s.routes()
	return s
}

func (s *FeedServer) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogging(s.logger))

	s.router.Get("/", s.handleIndex)
	s.router.Route("/api/position", func(r chi.Router) {
		r.Get("/", s.handleGetPosition)
		r.Post("/", s.handlePostPosition)
		r.Post("/error", s.handlePostError)
	})
}

// ServeHTTP implements http.Handler.
func (s *FeedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on the configured address and serves in the background
func (s *FeedServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go_func_utils.SafeGo(s.logger, "FeedServer", func() {
		defer s.wg.Done()
		s.logger.Printf("FeedServer: Serving location page on http://%s", s.addr)
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("FeedServer: Server error: %v", err)
		}
	})
	return nil
}

// Addr is the listening address, resolved once Start succeeds
func (s *FeedServer) Addr() string {
	return s.addr
}

// Shutdown stops the server and fails every remaining watcher
func (s *FeedServer) Shutdown() {
	s.logger.Printf("FeedServer: Shutting down")
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Printf("FeedServer: Error shutting down server: %v", err)
		}
	}
	s.wg.Wait()

	s.mu.Lock()
	subs := s.subscribers
	s.subscribers = make(map[uint64]subscriber)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.onError(trainer.ErrLocationUnavailable)
	}
	s.logger.Printf("FeedServer: Shutdown complete")
}

// Watch registers a watcher. The last known position is not replayed, a
// trail only contains positions posted after it started.
func (s *FeedServer) Watch(onSample func(trainer.Coordinate), onError func(error)) (func(), error) {
	if onSample == nil || onError == nil {
		return nil, errors.New("FeedServer: watch callbacks cannot be nil")
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = subscriber{onSample: onSample, onError: onError}
	count := len(s.subscribers)
	s.mu.Unlock()

	s.logger.Printf("FeedServer: Watcher %d started (%d active)", id, count)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			s.logger.Printf("FeedServer: Watcher %d stopped", id)
		})
	}, nil
}

// WatcherCount is the number of active watchers
func (s *FeedServer) WatcherCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

func (s *FeedServer) snapshotSubscribers() []subscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	return subs
}

func (s *FeedServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

func (s *FeedServer) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		writeError(w, http.StatusNotFound, "no position yet")
		return
	}
	writeJSON(w, http.StatusOK, last)
}

func (s *FeedServer) handlePostPosition(w http.ResponseWriter, r *http.Request) {
	var sample Sample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		writeError(w, http.StatusBadRequest, "invalid position: "+err.Error())
		return
	}
	if sample.Lat < -90 || sample.Lat > 90 || sample.Lng < -180 || sample.Lng > 180 {
		writeError(w, http.StatusBadRequest, "position out of range")
		return
	}
	if sample.Timestamp == 0 {
		sample.Timestamp = time.Now().UnixMilli()
	}

	s.mu.Lock()
	s.last = &sample
	s.mu.Unlock()

	subs := s.snapshotSubscribers()
	coord := trainer.Coordinate{Lat: sample.Lat, Lng: sample.Lng, TimestampMs: sample.Timestamp}
	for _, sub := range subs {
		sub.onSample(coord)
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"watchers": len(subs)})
}

func (s *FeedServer) handlePostError(w http.ResponseWriter, r *http.Request) {
	var perr positionError
	if err := json.NewDecoder(r.Body).Decode(&perr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid error report: "+err.Error())
		return
	}

	err := errorForCode(perr.Code)
	s.logger.Printf("FeedServer: Browser reported location error %d (%s): %v", perr.Code, perr.Message, err)
	for _, sub := range s.snapshotSubscribers() {
		sub.onError(err)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"error": err.Error()})
}

// errorForCode maps a GeolocationPositionError code onto the engine's sentinels
func errorForCode(code int) error {
	switch code {
	case codePermissionDenied:
		return trainer.ErrLocationPermissionDenied
	case codePositionUnavailable:
		return trainer.ErrPositionUnavailable
	case codeTimeout:
		return trainer.ErrLocationTimeout
	default:
		return trainer.ErrLocationUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
