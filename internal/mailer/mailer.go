package mailer

import (
	"context"
	"time"

	"github.com/ximepaparella/gifty-api/config"

	"github.com/pkg/errors"
	gomail "gopkg.in/gomail.v2"
)

// Attachment describes a file attached to an outgoing email
type Attachment struct {
	Filename    string
	Path        string
	ContentType string
}

// Message is a single outgoing email
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer sends one email per call. The transport either resolves or rejects;
// retry policy belongs to the caller.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer implements Mailer over SMTP
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
}

// NewSMTPMailer creates a new SMTP mailer from configuration
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		timeout: timeout,
	}
}

// Send delivers a single email, bounded by the configured send timeout
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)
	for _, att := range msg.Attachments {
		if att.Filename != "" {
			gm.Attach(att.Path, gomail.Rename(att.Filename))
		} else {
			gm.Attach(att.Path)
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(gm)
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrapf(err, "failed to send email to %s", msg.To)
		}
		return nil
	case <-sendCtx.Done():
		return errors.Wrapf(sendCtx.Err(), "timed out sending email to %s", msg.To)
	}
}
