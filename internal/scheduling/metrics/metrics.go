package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scheduling module.
type Metrics struct {
	SessionsAdded   prometheus.Counter
	SessionsRemoved prometheus.Counter
	Conflicts       *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	StaleRetries    prometheus.Counter
	PublishFailures prometheus.Counter
	CommandDuration *prometheus.HistogramVec
}

// New registers the scheduling metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SessionsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_schedule_sessions_added_total",
			Help: "Total number of course sessions added to weekly schedules",
		}),
		SessionsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_schedule_sessions_removed_total",
			Help: "Total number of course sessions removed from weekly schedules",
		}),
		Conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_schedule_conflicts_total",
			Help: "Rejected session additions by double-booked resource",
		}, []string{"dimension"}), // dimension: "classroom", "instructor"
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_schedule_transitions_total",
			Help: "Schedule lifecycle transitions by target status",
		}, []string{"status"}),
		StaleRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_schedule_stale_retries_total",
			Help: "Commands retried after a concurrent write bumped the schedule version",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_schedule_effect_publish_failures_total",
			Help: "Committed schedule commands whose effects could not be published",
		}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_schedule_command_duration_seconds",
			Help:    "Duration of schedule commands including lock wait and persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"command"}),
	}
}

func (m *Metrics) IncrementSessionsAdded() {
	if m != nil {
		m.SessionsAdded.Inc()
	}
}

func (m *Metrics) IncrementSessionsRemoved() {
	if m != nil {
		m.SessionsRemoved.Inc()
	}
}

// IncrementConflict records a rejected session by double-booked dimension.
func (m *Metrics) IncrementConflict(dimension string) {
	if m != nil {
		m.Conflicts.WithLabelValues(dimension).Inc()
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementStaleRetry() {
	if m != nil {
		m.StaleRetries.Inc()
	}
}

func (m *Metrics) IncrementPublishFailure() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}

// ObserveCommand records the duration of a command.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCommand(command string, start time.Time) {
	if m != nil {
		m.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	}
}
