// Package notify sends the staff notification and the applicant
// confirmation for a saved application.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"

	"grantapp/internal/application/metrics"
	"grantapp/internal/application/models"
	"grantapp/pkg/email"
	"grantapp/pkg/platform/retry"
	"grantapp/pkg/requestcontext"
)

// Config holds the addresses and branding used by both emails.
type Config struct {
	// AdminRecipient receives the staff notification.
	AdminRecipient string
	From           string
	// ReplyTo on the applicant confirmation. Defaults to AdminRecipient.
	ReplyTo     string
	AppName     string
	FrontendURL string
}

// SupportEmail is the contact address shown to applicants.
func (c Config) SupportEmail() string {
	if c.ReplyTo != "" {
		return c.ReplyTo
	}
	return c.AdminRecipient
}

// Outcome reports a send after retries. It never carries a panic or aborts
// the caller; Err is the last underlying failure.
type Outcome struct {
	Sent     bool
	Attempts int
	Err      error
}

// FileOpener reads stored ID images for attachment.
type FileOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Notifier renders and sends both emails with a shared retry policy.
type Notifier struct {
	cfg     Config
	mailer  Mailer
	files   FileOpener
	policy  retry.Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Notifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

func New(cfg Config, mailer Mailer, files FileOpener, policy retry.Policy, opts ...Option) *Notifier {
	n := &Notifier{
		cfg:    cfg,
		mailer: mailer,
		files:  files,
		policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendAdmin sends the staff notification with the stored ID images
// attached. Attachments are read from the file store on every attempt.
func (n *Notifier) SendAdmin(ctx context.Context, app *models.Application, origin models.Origin) Outcome {
	body, err := RenderAdmin(app, origin)
	if err != nil {
		return Outcome{Err: err}
	}
	return n.send(ctx, metrics.MailAdmin, app, func(ctx context.Context) (*Message, error) {
		attachments, err := n.attachments(ctx, app)
		if err != nil {
			return nil, err
		}
		return &Message{
			From:        n.cfg.From,
			FromName:    n.cfg.AppName,
			To:          []string{n.cfg.AdminRecipient},
			Subject:     AdminSubject(app.Reference),
			HTML:        body,
			Attachments: attachments,
		}, nil
	})
}

// SendApplicant sends the confirmation to the applicant. It has no
// attachments.
func (n *Notifier) SendApplicant(ctx context.Context, app *models.Application) Outcome {
	body, err := RenderApplicant(app, n.cfg)
	if err != nil {
		return Outcome{Err: err}
	}
	msg := &Message{
		From:     n.cfg.From,
		FromName: n.cfg.AppName,
		To:       []string{app.Email},
		ReplyTo:  n.cfg.SupportEmail(),
		Subject:  ApplicantSubject(app.Reference),
		HTML:     body,
	}
	return n.send(ctx, metrics.MailApplicant, app, func(context.Context) (*Message, error) {
		return msg, nil
	})
}

func (n *Notifier) send(ctx context.Context, kind string, app *models.Application, build func(ctx context.Context) (*Message, error)) Outcome {
	attempt := 0
	res := n.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		msg, err := build(ctx)
		if err == nil {
			err = n.mailer.Send(ctx, msg)
		}
		n.metrics.IncrementMailAttempt(kind, err == nil)
		if err != nil {
			n.logger.WarnContext(ctx, "mail attempt failed",
				"request_id", requestcontext.RequestID(ctx),
				"kind", kind,
				"reference", app.Reference,
				"attempt", attempt,
				"error", err,
			)
		}
		return err
	})

	if !res.OK() {
		n.metrics.IncrementMailGiveUp(kind)
		n.logger.ErrorContext(ctx, "mail failed after all attempts",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"reference", app.Reference,
			"attempts", res.Attempts,
			"error", res.Err,
		)
		return Outcome{Attempts: res.Attempts, Err: res.Err}
	}

	n.logger.InfoContext(ctx, "mail sent",
		"request_id", requestcontext.RequestID(ctx),
		"kind", kind,
		"reference", app.Reference,
		"to", n.recipientForLog(kind, app),
		"attempts", res.Attempts,
	)
	return Outcome{Sent: true, Attempts: res.Attempts}
}

func (n *Notifier) recipientForLog(kind string, app *models.Application) string {
	if kind == metrics.MailAdmin {
		return email.Mask(n.cfg.AdminRecipient)
	}
	return email.Mask(app.Email)
}

func (n *Notifier) attachments(ctx context.Context, app *models.Application) ([]Attachment, error) {
	var out []Attachment
	for _, f := range []struct {
		ref  string
		name string
	}{
		{app.IDFront, "ID_Front"},
		{app.IDBack, "ID_Back"},
	} {
		if f.ref == "" {
			continue
		}
		att, err := n.load(ctx, f.ref, f.name)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

func (n *Notifier) load(ctx context.Context, ref, name string) (Attachment, error) {
	rc, err := n.files.Open(ctx, ref)
	if err != nil {
		return Attachment{}, fmt.Errorf("open attachment %s: %w", ref, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return Attachment{}, fmt.Errorf("read attachment %s: %w", ref, err)
	}
	mt := mimetype.Detect(data)
	return Attachment{
		Filename:    name + mt.Extension(),
		ContentType: mt.String(),
		Data:        data,
	}, nil
}
