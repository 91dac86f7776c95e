package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

var (
	ErrNoRecipients   = errors.New("notify: message has no recipients")
	ErrSenderRequired = errors.New("notify: sender address required")
)

// MissingReverseID builds the message sent to managers when a template
// references a reverse id that no page carries.
func MissingReverseID(domain, reverseID, requestURL string) interfaces.Message {
	return interfaces.Message{
		Subject: fmt.Sprintf("Reverse ID not found on %s", domain),
		Body: fmt.Sprintf("A page_id_url template tag didn't find a page with the reverse_id %s\nThe url of the page was: %s",
			reverseID, requestURL),
	}
}

// PlaceholderRenderFailed reports a placeholder that could not be rendered.
func PlaceholderRenderFailed(domain, reverseID, placeholder string, cause error) interfaces.Message {
	return interfaces.Message{
		Subject: fmt.Sprintf("Placeholder %s failed on %s", placeholder, domain),
		Body:    fmt.Sprintf("Rendering placeholder %q of the page with reverse_id %s failed: %v", placeholder, reverseID, cause),
	}
}

// Addressed returns a notifier that fills in From and To before delivery.
// Messages that already carry them are left untouched.
func Addressed(next interfaces.Notifier, from string, managers []string) interfaces.Notifier {
	return addressed{next: next, from: from, to: append([]string(nil), managers...)}
}

type addressed struct {
	next interfaces.Notifier
	from string
	to   []string
}

func (a addressed) Notify(ctx context.Context, msg interfaces.Message) error {
	if msg.From == "" {
		msg.From = a.from
	}
	if len(msg.To) == 0 {
		msg.To = append([]string(nil), a.to...)
	}
	return a.next.Notify(ctx, msg)
}

// LogNotifier writes messages to the logger instead of delivering them.
type LogNotifier struct {
	logger interfaces.Logger
}

func NewLogNotifier(logger interfaces.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg interfaces.Message) error {
	n.logger.Warn("notify.message",
		"subject", msg.Subject,
		"to", strings.Join(msg.To, ","),
		"body", msg.Body,
	)
	return nil
}

// SMTPConfig holds the relay settings for SMTPNotifier.
type SMTPConfig struct {
	Addr     string
	Username string
	Password string
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier delivers messages through an SMTP relay.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) Notify(_ context.Context, msg interfaces.Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(msg.From) == "" {
		return ErrSenderRequired
	}
	var auth smtp.Auth
	if n.cfg.Username != "" {
		host := n.cfg.Addr
		if idx := strings.LastIndex(host, ":"); idx >= 0 {
			host = host[:idx]
		}
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, host)
	}
	if err := n.send(n.cfg.Addr, auth, msg.From, msg.To, encode(msg)); err != nil {
		return fmt.Errorf("notify: smtp send: %w", err)
	}
	return nil
}

func encode(msg interfaces.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + msg.From + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Silent wraps a notifier so delivery failures are logged and swallowed.
func Silent(next interfaces.Notifier, logger interfaces.Logger) interfaces.Notifier {
	if logger == nil {
		logger = logging.NoOp()
	}
	return silent{next: next, logger: logger}
}

type silent struct {
	next   interfaces.Notifier
	logger interfaces.Logger
}

func (s silent) Notify(ctx context.Context, msg interfaces.Message) error {
	if err := s.next.Notify(ctx, msg); err != nil {
		s.logger.Error("notify.delivery_failed", "subject", msg.Subject, "error", err)
	}
	return nil
}
