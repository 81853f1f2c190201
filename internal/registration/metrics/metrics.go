package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for term registrations.
type Metrics struct {
	CoursesAdded        prometheus.Counter
	CoursesRemoved      prometheus.Counter
	CreditLimitRejected prometheus.Counter
	DuplicateRejected   prometheus.Counter
	EnrollmentOutcomes  *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	RegisteredCredits   prometheus.Histogram
	StaleRetries        prometheus.Counter
	PublishFailures     prometheus.Counter
	CommandDuration     *prometheus.HistogramVec
}

// New registers the registration metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		CoursesAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_registration_courses_added_total",
			Help: "Total number of courses added to term registrations",
		}),
		CoursesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_registration_courses_removed_total",
			Help: "Total number of courses removed from term registrations",
		}),
		CreditLimitRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_registration_credit_limit_rejections_total",
			Help: "Course additions refused because the term credit cap would be exceeded",
		}),
		DuplicateRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_registration_duplicate_course_rejections_total",
			Help: "Course additions refused because the course was already registered",
		}),
		EnrollmentOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_registration_enrollment_outcomes_total",
			Help: "Enrollments leaving the active state by outcome",
		}, []string{"outcome"}), // outcome: "dropped", "passed", "failed"
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_registration_transitions_total",
			Help: "Registration lifecycle transitions by target status",
		}, []string{"status"}),
		RegisteredCredits: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "campus_registration_submitted_credits",
			Help:    "Total credits of registrations at submission",
			Buckets: []float64{3, 6, 9, 12, 15, 18, 21, 24, 27, 30},
		}),
		StaleRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_registration_stale_retries_total",
			Help: "Commands retried after a concurrent write bumped the registration version",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_registration_effect_publish_failures_total",
			Help: "Committed registration commands whose effects could not be published",
		}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_registration_command_duration_seconds",
			Help:    "Duration of registration commands including lock wait and persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"command"}),
	}
}

func (m *Metrics) IncrementCoursesAdded() {
	if m != nil {
		m.CoursesAdded.Inc()
	}
}

func (m *Metrics) IncrementCoursesRemoved() {
	if m != nil {
		m.CoursesRemoved.Inc()
	}
}

func (m *Metrics) IncrementCreditLimitRejected() {
	if m != nil {
		m.CreditLimitRejected.Inc()
	}
}

func (m *Metrics) IncrementDuplicateRejected() {
	if m != nil {
		m.DuplicateRejected.Inc()
	}
}

// IncrementOutcome records an enrollment that was dropped or completed.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.EnrollmentOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveSubmittedCredits(credits int) {
	if m != nil {
		m.RegisteredCredits.Observe(float64(credits))
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
func (m *Metrics) ObserveCommand(command string, start time.Time) {
	if m != nil {
		m.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	}
}
