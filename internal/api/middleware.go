package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/groundsegment/sattrack/internal/logging"
)

const requestIDHeader = "X-Request-Id"

// requestContext ensures every request carries a request id (honoring
// the inbound header), stores an annotated logger on the context, and
// logs one line per handled request.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(requestIDHeader); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, s.log)
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		reqLog.Info(ctx, "request handled",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

// requestLogger pulls the per-request logger off the context, falling
// back to the server logger for handlers invoked outside the router.
func (s *Server) requestLogger(r *http.Request) logging.Logger {
	if log := logging.LoggerFromContext(r.Context()); log != nil {
		return log
	}
	return s.log
}

// responseRecorder captures the status a handler wrote. Hijack and
// Flush pass through so the /api/live upgrade works behind it.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("response writer does not support hijacking")
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
