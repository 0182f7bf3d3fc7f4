package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"admin-alerts/internal/pkg/config"
	"admin-alerts/internal/pkg/errs"
	"admin-alerts/internal/queue"
)

// SMTPMailer sends queue jobs as plain-text email. It satisfies
// queue.Transport.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, job queue.EmailJob) error {
	if m.cfg.Host == "" {
		return errs.New("smtp host not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.cfg.From, job)
	addr := m.cfg.Host + ":" + m.cfg.Port

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	// net/smtp has no context support; the per-attempt timeout is enforced by
	// running the send in a goroutine and abandoning it on ctx expiry.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{job.Recipient}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return errs.Wrap(err, "smtp send failed")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from string, job queue.EmailJob) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", job.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", job.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	keys := make([]string, 0, len(job.ContentFields))
	for k := range job.ContentFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, job.ContentFields[k])
	}

	if len(job.Actions) > 0 {
		b.WriteString("\r\n")
		for _, a := range job.Actions {
			fmt.Fprintf(&b, "- %s\r\n", a)
		}
	}
	return []byte(b.String())
}
