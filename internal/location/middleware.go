package location

import (
	"log"
	"net/http"
	"time"
)

// requestLogging logs each request except the frequent position posts that succeed
func requestLogging(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			if r.Method == http.MethodPost && r.URL.Path == "/api/position" && sw.status < http.StatusBadRequest {
				return
			}
			logger.Printf("FeedServer: %s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(start))
		})
	}
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
