package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// requestLogger logs incoming HTTP requests.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("remote", r.RemoteAddr).
			WithField("duration", time.Since(start)).
			Debug("Request handled")
	})
}

type httpMetrics struct {
	requests    *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
}

func newHTTPMetrics(reg prometheus.Registerer) (*httpMetrics, error) {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "perfsummary",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served by the dashboard host",
			},
			[]string{"route", "code"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "perfsummary",
				Name:      "http_rate_limited_total",
				Help:      "Total number of requests rejected by a rate limit tier",
			},
			[]string{"tier"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.rateLimited} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// instrument counts requests by route pattern and status code.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if s.httpMetric == nil {
			return
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		s.httpMetric.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
