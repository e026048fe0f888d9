package fix

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects parse and serialization counters. A nil *Metrics records
// nothing.
type Metrics struct {
	parsedTotal     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	serializedTotal *prometheus.CounterVec
	serializedBytes prometheus.Counter
	parseDuration   prometheus.Histogram
}

// NewMetrics registers the engine metrics on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		parsedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fix",
				Subsystem: "parser",
				Name:      "messages_parsed_total",
				Help:      "Messages parsed successfully",
			},
			[]string{"msg_type"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fix",
				Subsystem: "parser",
				Name:      "parse_errors_total",
				Help:      "Parse failures by error code",
			},
			[]string{"code"},
		),
		serializedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fix",
				Subsystem: "serializer",
				Name:      "messages_serialized_total",
				Help:      "Messages serialized",
			},
			[]string{"msg_type"},
		),
		serializedBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fix",
				Subsystem: "serializer",
				Name:      "serialized_bytes_total",
				Help:      "Bytes produced by the serializer",
			},
		),
		parseDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "fix",
				Subsystem: "parser",
				Name:      "parse_duration_seconds",
				Help:      "Time spent parsing one message",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
		),
	}
}

func (m *Metrics) parsed(msgType string, d time.Duration) {
	if m == nil {
		return
	}
	m.parsedTotal.WithLabelValues(msgType).Inc()
	m.parseDuration.Observe(d.Seconds())
}

func (m *Metrics) parseFailed(err error) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(strconv.Itoa(int(CodeOf(err)))).Inc()
}

func (m *Metrics) serialized(msgType string, n int) {
	if m == nil {
		return
	}
	m.serializedTotal.WithLabelValues(msgType).Inc()
	m.serializedBytes.Add(float64(n))
}
