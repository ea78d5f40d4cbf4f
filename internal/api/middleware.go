package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// requestLogger logs each request with its duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int64("durationMs", time.Since(start).Milliseconds()).
			Msg("Request handled")
	})
}

// jsonContentType marks every API response as JSON before the handler
// writes its status code.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
