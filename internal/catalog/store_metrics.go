package catalog

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelOp     = "op"
	labelResult = "result"
)

// InstrumentedStore records latency and outcome of every Store call.
type InstrumentedStore struct {
	next    Store
	latency *prometheus.HistogramVec
	calls   *prometheus.CounterVec
}

func NewInstrumentedStore(next Store, reg prometheus.Registerer) *InstrumentedStore {
	s := &InstrumentedStore{
		next: next,
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_store_duration_seconds",
				Help:    "Product store call latency",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 3},
			},
			[]string{labelOp},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_store_calls_total",
				Help: "Product store calls by outcome",
			},
			[]string{labelOp, labelResult},
		),
	}
	reg.MustRegister(s.latency, s.calls)
	return s
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	s.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	result := "ok"
	switch {
	case err == nil:
	case isNotFound(err):
		result = "not_found"
	case isValidation(err):
		result = "invalid"
	default:
		result = "error"
	}
	s.calls.WithLabelValues(op, result).Inc()
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe("ping", start, err)
	return err
}

func (s *InstrumentedStore) List(ctx context.Context) ([]Product, error) {
	start := time.Now()
	out, err := s.next.List(ctx)
	s.observe("list", start, err)
	return out, err
}

func (s *InstrumentedStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	start := time.Now()
	p, ok, err := s.next.Get(ctx, id)
	s.observe("get", start, err)
	return p, ok, err
}

func (s *InstrumentedStore) Exists(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, id)
	s.observe("exists", start, err)
	return ok, err
}

func (s *InstrumentedStore) Create(ctx context.Context, p Product) (Product, error) {
	start := time.Now()
	out, err := s.next.Create(ctx, p)
	s.observe("create", start, err)
	return out, err
}

func (s *InstrumentedStore) Update(ctx context.Context, id int64, p Product, fields ...Field) error {
	start := time.Now()
	err := s.next.Update(ctx, id, p, fields...)
	s.observe("update", start, err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.observe("delete", start, err)
	return err
}
