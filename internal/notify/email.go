package notify

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

// Email bodies have no practical transport limit, so the budget is
// large enough that a report almost never splits.
const emailMaxBytes = 1 << 20

// EmailConfig holds SMTP credentials and addressing.
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
}

// Email delivers HTML reports over SMTP.
type Email struct {
	cfg EmailConfig
}

// NewEmail builds the channel, nil when host or recipients are
// missing.
func NewEmail(cfg EmailConfig) *Email {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return nil
	}

	if cfg.Port == "" {
		cfg.Port = "587"
	}

	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	return &Email{cfg: cfg}
}

func (e *Email) Name() string      { return "email" }
func (e *Email) Kind() render.Kind { return render.KindHTML }
func (e *Email) MaxBytes() int     { return emailMaxBytes }

func (e *Email) Send(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(e.cfg.Host, e.cfg.Port)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	msg := e.message(title, body)

	if err := smtp.SendMail(addr, auth, e.cfg.From, e.cfg.To, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// message assembles the MIME envelope with an encoded subject and an
// HTML body. Line breaks in the rendered text become <br> so the mail
// client keeps the layout.
func (e *Email) message(title, body string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", title))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("<html><body>")
	b.WriteString(strings.ReplaceAll(body, "\n", "<br>\n"))
	b.WriteString("</body></html>\r\n")

	return []byte(b.String())
}
