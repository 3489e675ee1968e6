// Package metrics exposes device exchange and signing metrics to prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/ledger"
)

const namespace = "hwsigner"

// Service owns the prometheus registry of the process. It implements
// transport.Observer and device.Recorder.
type Service struct {
	registry *prometheus.Registry

	exchanges        *prometheus.CounterVec
	exchangeDuration *prometheus.HistogramVec
	signs            *prometheus.CounterVec
	signDuration     prometheus.Histogram
	resets           prometheus.Counter
}

// New creates the metrics service and registers all collectors.
func New(cfg config.Server) (*Service, error) {
	s := &Service{
		registry: prometheus.NewRegistry(),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_exchanges_total",
			Help:      "Number of APDU exchanges by instruction and outcome.",
		}, []string{"instruction", "outcome"}),
		exchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "device_exchange_duration_seconds",
			Help:      "Duration of APDU exchanges by instruction.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"instruction"}),
		signs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_requests_total",
			Help:      "Number of transaction signing flows by outcome.",
		}, []string{"outcome"}),
		signDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sign_duration_seconds",
			Help:      "Duration of transaction signing flows including user confirmation.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 3, 8),
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_resets_total",
			Help:      "Number of signing sessions reset after a failed collect phase.",
		}),
	}

	toRegister := []prometheus.Collector{s.exchanges, s.exchangeDuration, s.signs, s.signDuration, s.resets}
	if cfg.Metrics.IncludeProcessCollectors {
		toRegister = append(toRegister,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	for _, c := range toRegister {
		if err := s.registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register metrics collector")
		}
	}

	return s, nil
}

// Registry returns the registry the collectors are registered with.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// ObserveExchange records one APDU exchange.
func (s *Service) ObserveExchange(ins ledger.Instruction, outcome string, elapsed time.Duration) {
	s.exchanges.WithLabelValues(ins.String(), outcome).Inc()
	s.exchangeDuration.WithLabelValues(ins.String()).Observe(elapsed.Seconds())
}

// ObserveSign records one signing flow.
func (s *Service) ObserveSign(outcome string, elapsed time.Duration) {
	s.signs.WithLabelValues(outcome).Inc()
	s.signDuration.Observe(elapsed.Seconds())
}

// ObserveReset records a signing session reset.
func (s *Service) ObserveReset() {
	s.resets.Inc()
}

// Middleware returns echo middleware recording HTTP request metrics.
func (s *Service) Middleware() (echo.MiddlewareFunc, error) {
	mw, err := echoprometheus.MiddlewareConfig{
		Namespace:  namespace,
		Subsystem:  "http",
		Registerer: s.registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create metrics middleware")
	}
	return mw, nil
}

// Handler serves the registry in the prometheus text format.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}
