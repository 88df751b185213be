package routes

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"todo-dag/app/logging"
	"todo-dag/app/metrics"
)

// RequestIDHeader is read from incoming requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

// RequestLogger attaches a request-scoped logger carrying the request id to
// the request context and logs each response.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		log := logging.FromContext(r.Context()).With(zap.String("request_id", requestID))
		r = r.WithContext(logging.WithLogger(r.Context(), log))

		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Info("http response",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("peer", r.RemoteAddr),
			zap.Int("status", m.Code),
			zap.Int64("bytes", m.Written),
			zap.Duration("duration", m.Duration),
		)
	})
}

// Instrument records request counts and latency per route template, so
// /tasks/1 and /tasks/2 share a series. Requests that match no route are
// labelled "unmatched".
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		m := httpsnoop.CaptureMetrics(next, w, r)
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(m.Code)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(m.Duration.Seconds())
	})
}
