package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	mail "gopkg.in/mail.v2"

	"grantapp/pkg/email"
)

// Attachment is an in-memory file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a rendered HTML email.
type Message struct {
	From        string
	FromName    string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers one message. Send must not return while a delivery it
// started can still complete, so a failed attempt never races a retry.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPConfig addresses the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Timeout bounds a whole SMTP session when ctx has no earlier deadline.
	Timeout time.Duration
}

// SMTPMailer sends mail through an SMTP relay. STARTTLS is used whenever the
// server offers it.
//
// The session runs on the calling goroutine over a connection whose deadline
// follows ctx, so Send never returns while a delivery is still in flight.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer net.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	conn, err := m.dialer.DialContext(ctx, "tcp", net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port)))
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("smtp deadline: %w", err)
		}
	}
	// Cancellation before the deadline unblocks the session the same way.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := m.session(conn, buildMessage(msg), msg); err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return fmt.Errorf("smtp send: %w: %v", ctxErr, err)
		}
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// contextError is ctx.Err, also reporting an expired deadline whose timer has
// not fired yet. The connection deadline can trip first.
func contextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return nil
}

// session speaks SMTP over conn. The message counts as delivered once the
// server accepts the DATA payload; a failed QUIT after that is ignored.
func (m *SMTPMailer) session(conn net.Conn, gm *mail.Message, msg *Message) error {
	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if m.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := c.Mail(msg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", email.Mask(rcpt), err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := gm.WriteTo(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	_ = c.Quit()
	return nil
}

func buildMessage(msg *Message) *mail.Message {
	gm := mail.NewMessage()
	gm.SetAddressHeader("From", msg.From, msg.FromName)
	gm.SetHeader("To", msg.To...)
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	for _, att := range msg.Attachments {
		data := att.Data
		settings := []mail.FileSetting{
			mail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, mail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		gm.Attach(att.Filename, settings...)
	}
	return gm
}

// LogMailer writes messages to the log instead of sending them. It is the
// transport for local runs without an SMTP server.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg *Message) error {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, email.Mask(addr))
	}
	m.logger.InfoContext(ctx, "mail not sent, log transport",
		"to", to,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
		"body_bytes", len(msg.HTML),
	)
	return nil
}
