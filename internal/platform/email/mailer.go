package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/worktrack/internal/config"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/redact"
)

// ErrInvalidRecipient is returned when a message has no usable recipient.
var ErrInvalidRecipient = errors.New("invalid recipient")

// implicitTLSPort is the submission port that expects TLS from the first byte.
const implicitTLSPort = 465

const defaultSendTimeout = 30 * time.Second

// SMTPMailer sends HTML mail through a single SMTP relay.
// A new connection is made for every message.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

// NewSMTPMailer creates a mailer for the relay described by cfg.
func NewSMTPMailer(cfg config.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		logger:   logger.With(slog.String("component", "smtp_mailer")),
	}
}

// Send delivers one HTML message to a single recipient.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if strings.TrimSpace(to) == "" || strings.ContainsAny(to, "\r\n") {
		return ErrInvalidRecipient
	}

	log := logger.FromContextOrDefault(ctx, m.logger)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
				return fmt.Errorf("failed to start tls: %w", err)
			}
		}
	}

	if m.username != "" {
		if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM rejected: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO rejected: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA rejected: %w", err)
	}
	if _, err := w.Write(buildMessage(m.from, to, subject, htmlBody)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	if err := client.Quit(); err != nil {
		log.WarnContext(ctx, "smtp quit failed after delivery", slog.String("error", err.Error()))
	}

	log.DebugContext(ctx, "email sent",
		slog.String("to", redact.Email(to)),
		slog.String("subject", subject))
	return nil
}

func (m *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	if m.port == implicitTLSPort {
		d := &tls.Dialer{Config: &tls.Config{ServerName: m.host}}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// buildMessage assembles the RFC 5322 message. The subject is Q-encoded so
// that non-ASCII task titles survive transport.
func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// LogMailer records messages in the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With(slog.String("component", "log_mailer"))}
}

// Send logs the message envelope.
func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if strings.TrimSpace(to) == "" {
		return ErrInvalidRecipient
	}
	logger.FromContextOrDefault(ctx, m.logger).InfoContext(ctx, "email not sent, no smtp relay configured",
		slog.String("to", redact.Email(to)),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(htmlBody)))
	return nil
}
