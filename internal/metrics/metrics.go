// Package metrics provides Prometheus metrics instrumentation for the roster
// engine. The engine itself has no HTTP server (it is a library, per the
// out-of-scope presentation concerns); callers that do run a metrics
// endpoint can mount GetHandler on their own mux.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all engine metrics and provides helper methods for
// recording each phase of the expand -> oracle -> greedy -> LNS -> CP-SAT ->
// replicate pipeline.
type Registry struct {
	registry prometheus.Registerer

	// Counters
	shiftsExpandedTotal   prometheus.CounterVec
	validationErrorsTotal prometheus.CounterVec
	lnsIterationsTotal    prometheus.CounterVec
	lnsAcceptedTotal      prometheus.CounterVec
	cpsatAttemptsTotal    prometheus.CounterVec

	// Histograms
	phaseDuration           prometheus.HistogramVec
	cpsatAttemptDuration    prometheus.HistogramVec
	driverHoursDistribution prometheus.HistogramVec

	// Gauges
	driversUsed        prometheus.GaugeVec
	coveragePercentage prometheus.GaugeVec
	lnsTemperature     prometheus.GaugeVec

	mu sync.RWMutex
}

// NewRegistry creates and registers all engine metrics using the global
// Prometheus registerer. It panics if any metric fails to register.
func NewRegistry() *Registry {
	return NewRegistryWithRegisterer(prometheus.DefaultRegisterer)
}

// NewRegistryWithRegisterer creates and registers all engine metrics with a
// custom registerer. Tests should use a private registry (prometheus.NewRegistry())
// to avoid collisions with other tests registering the same metric names.
func NewRegistryWithRegisterer(registerer prometheus.Registerer) *Registry {
	m := &Registry{registry: registerer}

	m.shiftsExpandedTotal = *prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shifts_expanded_total",
			Help: "Total concrete shifts produced by the shift expander",
		},
		[]string{"regime"},
	)
	m.registry.MustRegister(&m.shiftsExpandedTotal)

	m.validationErrorsTotal = *prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_errors_total",
			Help: "Total catalog validation failures by error code",
		},
		[]string{"error_code"},
	)
	m.registry.MustRegister(&m.validationErrorsTotal)

	m.lnsIterationsTotal = *prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lns_iterations_total",
			Help: "Total LNS/ALNS destroy-repair iterations by operator",
		},
		[]string{"operator"},
	)
	m.registry.MustRegister(&m.lnsIterationsTotal)

	m.lnsAcceptedTotal = *prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lns_accepted_total",
			Help: "Total accepted LNS/ALNS candidates by operator",
		},
		[]string{"operator"},
	)
	m.registry.MustRegister(&m.lnsAcceptedTotal)

	m.cpsatAttemptsTotal = *prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpsat_attempts_total",
			Help: "Total CP-SAT solve attempts by regime and outcome status",
		},
		[]string{"regime", "status"},
	)
	m.registry.MustRegister(&m.cpsatAttemptsTotal)

	m.phaseDuration = *prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "phase_duration_seconds",
			Help:    "Duration of each orchestrator phase in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)
	m.registry.MustRegister(&m.phaseDuration)

	m.cpsatAttemptDuration = *prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpsat_attempt_duration_seconds",
			Help:    "Duration of individual CP-SAT solve attempts in seconds",
			Buckets: []float64{1, 5, 10, 20, 45, 60, 120, 300, 600},
		},
		[]string{"regime"},
	)
	m.registry.MustRegister(&m.cpsatAttemptDuration)

	m.driverHoursDistribution = *prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "driver_hours_distribution",
			Help:    "Distribution of total monthly hours assigned per driver",
			Buckets: []float64{20, 40, 80, 120, 140, 160, 180, 200},
		},
		[]string{"regime"},
	)
	m.registry.MustRegister(&m.driverHoursDistribution)

	m.driversUsed = *prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drivers_used",
			Help: "Number of drivers used by the current best solution",
		},
		[]string{"regime"},
	)
	m.registry.MustRegister(&m.driversUsed)

	m.coveragePercentage = *prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coverage_percentage",
			Help: "Fraction of required shifts covered by the current best solution",
		},
		[]string{"regime"},
	)
	m.registry.MustRegister(&m.coveragePercentage)

	m.lnsTemperature = *prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lns_temperature",
			Help: "Current simulated-annealing temperature of the LNS engine",
		},
		[]string{"regime"},
	)
	m.registry.MustRegister(&m.lnsTemperature)

	return m
}

// RecordShiftsExpanded records how many concrete shifts the expander produced.
func (m *Registry) RecordShiftsExpanded(regime string, count int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.shiftsExpandedTotal.WithLabelValues(regime).Add(float64(count))
}

// RecordValidationError records a catalog validation failure.
func (m *Registry) RecordValidationError(errorCode string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.validationErrorsTotal.WithLabelValues(errorCode).Inc()
}

// RecordLNSIteration records one destroy-repair iteration and whether it was accepted.
func (m *Registry) RecordLNSIteration(operator string, accepted bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.lnsIterationsTotal.WithLabelValues(operator).Inc()
	if accepted {
		m.lnsAcceptedTotal.WithLabelValues(operator).Inc()
	}
}

// RecordCPSATAttempt records one CP-SAT solve attempt.
func (m *Registry) RecordCPSATAttempt(regime, status string, duration float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.cpsatAttemptsTotal.WithLabelValues(regime, status).Inc()
	m.cpsatAttemptDuration.WithLabelValues(regime).Observe(duration)
}

// RecordPhaseDuration records the wall-clock duration of one orchestrator phase.
func (m *Registry) RecordPhaseDuration(phase string, seconds float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordDriverHours records one driver's total monthly hours for distribution tracking.
func (m *Registry) RecordDriverHours(regime string, hours float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.driverHoursDistribution.WithLabelValues(regime).Observe(hours)
}

// SetSolutionGauges sets the point-in-time gauges describing the current best solution.
func (m *Registry) SetSolutionGauges(regime string, driversUsed int, coverage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.driversUsed.WithLabelValues(regime).Set(float64(driversUsed))
	m.coveragePercentage.WithLabelValues(regime).Set(coverage)
}

// SetLNSTemperature records the current simulated-annealing temperature.
func (m *Registry) SetLNSTemperature(regime string, temperature float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.lnsTemperature.WithLabelValues(regime).Set(temperature)
}

// GetHandler returns an HTTP handler that serves Prometheus metrics from this
// registry. The engine does not start a server itself; a caller embedding the
// engine in a service can mount this handler on its own mux.
func (m *Registry) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry.(prometheus.Gatherer), promhttp.HandlerOpts{})
}
