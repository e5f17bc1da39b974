package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DomainMetrics counts business events of the auth and note flows.
type DomainMetrics struct {
	studentsRegistered metric.Int64Counter
	logins             metric.Int64Counter
	loginFailures      metric.Int64Counter
	authRejections     metric.Int64Counter
	noteOperations     metric.Int64Counter
}

func NewDomainMetrics(meter metric.Meter) (*DomainMetrics, error) {
	m := &DomainMetrics{}

	var err error

	m.studentsRegistered, err = meter.Int64Counter(
		"student_records.students.registered",
		metric.WithDescription("Total number of students registered"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.logins, err = meter.Int64Counter(
		"student_records.auth.logins",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return nil, err
	}

	m.loginFailures, err = meter.Int64Counter(
		"student_records.auth.login_failures",
		metric.WithDescription("Total number of rejected logins"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return nil, err
	}

	m.authRejections, err = meter.Int64Counter(
		"student_records.auth.rejections",
		metric.WithDescription("Requests rejected by the auth middleware, by reason"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.noteOperations, err = meter.Int64Counter(
		"student_records.notes.operations",
		metric.WithDescription("Note operations, by kind"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *DomainMetrics) RecordStudentRegistration(ctx context.Context) {
	if m != nil && m.studentsRegistered != nil {
		m.studentsRegistered.Add(ctx, 1)
	}
}

func (m *DomainMetrics) RecordLogin(ctx context.Context) {
	if m != nil && m.logins != nil {
		m.logins.Add(ctx, 1)
	}
}

func (m *DomainMetrics) RecordLoginFailure(ctx context.Context) {
	if m != nil && m.loginFailures != nil {
		m.loginFailures.Add(ctx, 1)
	}
}

func (m *DomainMetrics) RecordAuthRejection(ctx context.Context, reason string) {
	if m != nil && m.authRejections != nil {
		m.authRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m *DomainMetrics) RecordNoteOperation(ctx context.Context, operation string) {
	if m != nil && m.noteOperations != nil {
		m.noteOperations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}
