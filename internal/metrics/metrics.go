package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Verification Flow Metrics
var (
	VerificationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameVerificationsStarted,
			Help: HelpTextVerificationsStarted,
		},
	)

	VerificationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameVerificationsCompleted,
			Help: HelpTextVerificationsCompleted,
		},
		[]string{LabelOutcome},
	)

	CallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCallbacksTotal,
			Help: HelpTextCallbacksTotal,
		},
		[]string{LabelState},
	)

	WaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameWaitDuration,
			Help:    HelpTextWaitDuration,
			Buckets: WaitBuckets,
		},
	)

	RoleChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRoleChanges,
			Help: HelpTextRoleChanges,
		},
		[]string{LabelKind},
	)

	PendingAuthsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePendingAuthsSwept,
			Help: HelpTextPendingAuthsSwept,
		},
	)

	CommandsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCommandsHandled,
			Help: HelpTextCommandsHandled,
		},
		[]string{LabelCommand},
	)
)
