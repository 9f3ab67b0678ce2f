// Package service runs the submission workflow: validate, store images,
// persist, notify staff, confirm to the applicant.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"grantapp/internal/application/filestore"
	"grantapp/internal/application/metrics"
	"grantapp/internal/application/models"
	"grantapp/internal/application/notify"
	"grantapp/internal/application/validation"
	dErrors "grantapp/pkg/domain-errors"
	"grantapp/pkg/email"
	"grantapp/pkg/platform/sentinel"
	"grantapp/pkg/requestcontext"
)

// User-facing messages.
const (
	MsgValidationFailed   = "Validation failed."
	MsgMailFailed         = "We could not process your application due to a mail server issue. Please try again later. No data was saved."
	MsgServerFailed       = "We could not process your application due to a server issue. Please try again later. No data was saved."
	msgRollbackIncomplete = "We could not confirm your application. Please contact support and quote reference %s before submitting again."
	msgApplicantWarning   = "Application saved but confirmation email could not be sent. Please save your reference number: %s"
)

// Validator normalizes a raw submission. Field failures come back as
// validation.Errors.
type Validator interface {
	Validate(ctx context.Context, sub *models.Submission) (*models.Fields, error)
}

type Sanitizer interface {
	Fields(f *models.Fields)
}

// Repository persists application rows.
type Repository interface {
	Create(ctx context.Context, fields *models.Fields) (*models.Application, error)
	MarkAdminNotified(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

type Notifier interface {
	SendAdmin(ctx context.Context, app *models.Application, origin models.Origin) notify.Outcome
	SendApplicant(ctx context.Context, app *models.Application) notify.Outcome
}

type ReferenceGenerator interface {
	Generate(now time.Time) (string, error)
}

// Service is the submission orchestrator.
type Service struct {
	validator Validator
	sanitizer Sanitizer
	files     filestore.Store
	repo      Repository
	notifier  Notifier
	refs      ReferenceGenerator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock overrides the time used for admin_notified_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(validator Validator, sanitizer Sanitizer, files filestore.Store, repo Repository, notifier Notifier, refs ReferenceGenerator, opts ...Option) *Service {
	s := &Service{
		validator: validator,
		sanitizer: sanitizer,
		files:     files,
		repo:      repo,
		notifier:  notifier,
		refs:      refs,
		logger:    slog.Default(),
		tracer:    otel.Tracer("grantapp/internal/application/service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one submission to completion. The caller's cancellation is
// ignored once Submit starts: a client that stops waiting must not leave a
// half-finished submission behind.
//
// A returned error is always a dErrors.Error. CodeValidation wraps
// validation.Errors and means nothing was written. CodeMailUnavailable and
// CodeInternal mean every side effect was undone. CodeRollbackIncomplete
// means the record could not be removed.
func (s *Service) Submit(ctx context.Context, sub *models.Submission) (*models.SubmitResult, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer s.metrics.ObserveSubmit(start)

	ctx, span := s.tracer.Start(ctx, "application.Submit")
	defer span.End()

	fields, err := s.validate(ctx, sub)
	if err != nil {
		return nil, s.fail(span, err)
	}

	frontRef, backRef, err := s.storeImages(ctx, sub)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store uploaded images",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		s.metrics.IncrementSubmission(metrics.OutcomeStorageFailed)
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, MsgServerFailed))
	}

	s.sanitizer.Fields(fields)
	fields.IDFront = frontRef
	fields.IDBack = backRef

	reference, err := s.refs.Generate(requestcontext.Now(ctx))
	if err != nil {
		return nil, s.abortBeforeRecord(ctx, span, err, frontRef, backRef)
	}
	fields.Reference = reference
	span.SetAttributes(attribute.String("application.reference", reference))

	app, err := s.create(ctx, fields)
	if err != nil {
		return nil, s.abortBeforeRecord(ctx, span, err, frontRef, backRef)
	}

	if err := s.notifyAdmin(ctx, app, sub.Origin); err != nil {
		return nil, s.fail(span, err)
	}

	return s.confirm(ctx, span, app), nil
}

func (s *Service) validate(ctx context.Context, sub *models.Submission) (*models.Fields, error) {
	_, span := s.tracer.Start(ctx, "application.Validate")
	defer span.End()

	fields, err := s.validator.Validate(ctx, sub)
	if err == nil {
		return fields, nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		s.metrics.IncrementSubmission(metrics.OutcomeInvalid)
		s.metrics.IncrementValidationFailures(fieldErrs.Fields())
		s.logger.InfoContext(ctx, "application rejected by validation",
			"request_id", requestcontext.RequestID(ctx),
			"fields", fieldErrs.Fields(),
		)
		span.SetAttributes(attribute.StringSlice("validation.fields", fieldErrs.Fields()))
		return nil, dErrors.Wrap(fieldErrs, dErrors.CodeValidation, MsgValidationFailed)
	}
	s.metrics.IncrementSubmission(metrics.OutcomeStorageFailed)
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgServerFailed)
}

// storeImages writes front then back. If the back image fails, the front
// image is removed before returning.
func (s *Service) storeImages(ctx context.Context, sub *models.Submission) (string, string, error) {
	ctx, span := s.tracer.Start(ctx, "application.StoreImages")
	defer span.End()

	var stored []string
	for _, slot := range []models.Slot{models.SlotFront, models.SlotBack} {
		up := sub.Upload(slot)
		if up == nil {
			stored = append(stored, "")
			continue
		}
		ref, err := s.files.Store(ctx, slot, up)
		if err != nil {
			filestore.Cleanup(ctx, s.files, s.logger, stored...)
			span.RecordError(err)
			return "", "", fmt.Errorf("store %s image: %w", slot, err)
		}
		stored = append(stored, ref)
	}
	return stored[0], stored[1], nil
}

func (s *Service) create(ctx context.Context, fields *models.Fields) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Create")
	defer span.End()

	app, err := s.repo.Create(ctx, fields)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.logger.ErrorContext(ctx, "generated reference already exists",
				"request_id", requestcontext.RequestID(ctx),
				"reference", fields.Reference,
			)
		}
		span.RecordError(err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "application record created, awaiting admin notification",
		"request_id", requestcontext.RequestID(ctx),
		"reference", app.Reference,
		"application_id", app.ID,
	)
	return app, nil
}

// abortBeforeRecord handles a failure after images were stored but before a
// row exists.
func (s *Service) abortBeforeRecord(ctx context.Context, span trace.Span, cause error, refs ...string) error {
	s.logger.ErrorContext(ctx, "failed to persist application",
		"request_id", requestcontext.RequestID(ctx),
		"error", cause,
	)
	filestore.Cleanup(ctx, s.files, s.logger, refs...)
	s.metrics.IncrementSubmission(metrics.OutcomeStorageFailed)
	return s.fail(span, dErrors.Wrap(cause, dErrors.CodeInternal, MsgServerFailed))
}

// notifyAdmin sends the mandatory staff notification. On failure the row
// and images are removed; the error says whether that removal completed.
func (s *Service) notifyAdmin(ctx context.Context, app *models.Application, origin models.Origin) error {
	ctx, span := s.tracer.Start(ctx, "application.NotifyAdmin")
	defer span.End()

	out := s.notifier.SendAdmin(ctx, app, origin)
	span.SetAttributes(attribute.Int("mail.attempts", out.Attempts))
	if out.Sent {
		at := s.now()
		if err := s.repo.MarkAdminNotified(ctx, app.ID, at); err != nil {
			s.logger.WarnContext(ctx, "failed to record admin notification",
				"request_id", requestcontext.RequestID(ctx),
				"reference", app.Reference,
				"error", err,
			)
		} else {
			app.AdminNotifiedAt = &at
		}
		return nil
	}
	span.RecordError(out.Err)

	if err := s.repo.Delete(ctx, app.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		// The row stays; its images stay with it so staff can reconcile.
		s.metrics.IncrementCleanupFailure()
		s.metrics.IncrementSubmission(metrics.OutcomeRollbackFailed)
		s.logger.ErrorContext(ctx, "admin mail failed and record could not be removed",
			"request_id", requestcontext.RequestID(ctx),
			"reference", app.Reference,
			"application_id", app.ID,
			"mail_error", out.Err,
			"error", err,
		)
		return dErrors.Wrap(errors.Join(out.Err, err), dErrors.CodeRollbackIncomplete,
			fmt.Sprintf(msgRollbackIncomplete, app.Reference))
	}

	filestore.Cleanup(ctx, s.files, s.logger, app.IDFront, app.IDBack)
	s.metrics.IncrementSubmission(metrics.OutcomeMailFailed)
	s.logger.ErrorContext(ctx, "admin mail failed, submission rolled back",
		"request_id", requestcontext.RequestID(ctx),
		"reference", app.Reference,
		"attempts", out.Attempts,
		"error", out.Err,
	)
	return dErrors.Wrap(out.Err, dErrors.CodeMailUnavailable, MsgMailFailed)
}

// confirm sends the applicant email. Its failure only adds a warning.
func (s *Service) confirm(ctx context.Context, span trace.Span, app *models.Application) *models.SubmitResult {
	ctx, child := s.tracer.Start(ctx, "application.NotifyApplicant")
	out := s.notifier.SendApplicant(ctx, app)
	child.SetAttributes(attribute.Int("mail.attempts", out.Attempts))
	if out.Err != nil {
		child.RecordError(out.Err)
	}
	child.End()

	result := &models.SubmitResult{Application: app, ApplicantNotified: out.Sent}
	outcome := metrics.OutcomeAccepted
	if !out.Sent {
		result.Warning = fmt.Sprintf(msgApplicantWarning, app.Reference)
		outcome = metrics.OutcomeAcceptedWarning
		span.AddEvent("applicant confirmation not sent")
	}
	s.metrics.IncrementSubmission(outcome)
	s.logger.InfoContext(ctx, "application submitted",
		"request_id", requestcontext.RequestID(ctx),
		"reference", app.Reference,
		"application_id", app.ID,
		"applicant", email.Mask(app.Email),
		"confirmation_sent", out.Sent,
	)
	return result
}

func (s *Service) fail(span trace.Span, err error) error {
	if de, ok := dErrors.From(err); ok && de.Code != dErrors.CodeValidation {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(de.Code))
	}
	return err
}
