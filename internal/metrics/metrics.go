package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/pollchat/internal/store"
)

// Store operation results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// Metrics holds the collectors exposed on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	StoreOps        *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec
	RequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StoreOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pollchat",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Message store operations by operation and result.",
		}, []string{"op", "result"}),
		StoreLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pollchat",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Message store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pollchat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records the latency of every request.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// InstrumentStore wraps st so every operation is counted and timed.
func (m *Metrics) InstrumentStore(st store.Store) store.Store {
	return &instrumentedStore{next: st, m: m}
}

type instrumentedStore struct {
	next store.Store
	m    *Metrics
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.m.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	s.m.StoreOps.WithLabelValues(op, result(err)).Inc()
}

func (s *instrumentedStore) ListMessages(ctx context.Context) ([]*store.Message, error) {
	start := time.Now()
	msgs, err := s.next.ListMessages(ctx)
	s.observe("list", start, err)
	return msgs, err
}

func (s *instrumentedStore) CreateMessage(ctx context.Context, sender, text string) (*store.Message, error) {
	start := time.Now()
	msg, err := s.next.CreateMessage(ctx, sender, text)
	s.observe("create", start, err)
	return msg, err
}

func (s *instrumentedStore) UpdateMessage(ctx context.Context, id int64, text string) (*store.Message, error) {
	start := time.Now()
	msg, err := s.next.UpdateMessage(ctx, id, text)
	s.observe("update", start, err)
	return msg, err
}

func (s *instrumentedStore) DeleteMessage(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.next.DeleteMessage(ctx, id)
	s.observe("delete", start, err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}

func result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, store.ErrNotFound):
		return ResultNotFound
	case store.IsValidation(err):
		return ResultInvalid
	default:
		return ResultError
	}
}
