package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeAccepted        = "accepted"
	OutcomeAcceptedWarning = "accepted_with_warning"
	OutcomeInvalid         = "invalid"
	OutcomeMailFailed      = "mail_failed"
	OutcomeStorageFailed   = "storage_failed"
	OutcomeRollbackFailed  = "rollback_incomplete"
)

// Mail kinds.
const (
	MailAdmin     = "admin"
	MailApplicant = "applicant"
)

// Metrics provides observability for the application intake workflow.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	MailAttempts       *prometheus.CounterVec
	MailGiveUps        *prometheus.CounterVec
	CleanupFailures    prometheus.Counter
	SubmitDuration     prometheus.Histogram
}

// New registers the workflow metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantapp_submissions_total",
			Help: "Application submissions by outcome",
		}, []string{"outcome"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantapp_validation_failures_total",
			Help: "Rejected form fields by field name",
		}, []string{"field"}),
		MailAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantapp_mail_attempts_total",
			Help: "Mail send attempts by kind and result",
		}, []string{"kind", "result"}),
		MailGiveUps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantapp_mail_exhausted_total",
			Help: "Mail sends that failed on every attempt",
		}, []string{"kind"}),
		CleanupFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "grantapp_cleanup_failures_total",
			Help: "Compensating deletes that did not complete",
		}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grantapp_submit_duration_seconds",
			Help:    "Duration of the submission workflow",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
	}
}

func (m *Metrics) IncrementSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// IncrementValidationFailures counts every failing field once.
func (m *Metrics) IncrementValidationFailures(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.ValidationFailures.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) IncrementMailAttempt(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.MailAttempts.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) IncrementMailGiveUp(kind string) {
	if m == nil {
		return
	}
	m.MailGiveUps.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementCleanupFailure() {
	if m == nil {
		return
	}
	m.CleanupFailures.Inc()
}

// ObserveSubmit records the workflow duration.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m == nil {
		return
	}
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
