package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"

	"go.hackfix.me/scriptomate/metrics"
)

// RequestIDHeader is the response header that carries the request ID.
const RequestIDHeader = "X-Request-Id"

// Logger logs request details and response metrics. Every request gets an ID,
// which is returned to the client and added to the log record.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			m := httpsnoop.CaptureMetrics(next, w, r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(m.Code)).Inc()
			logger.Info(
				fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				"request_id", reqID,
				"response_code", m.Code,
				"duration", m.Duration,
				"bytes_sent", m.Written,
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}
