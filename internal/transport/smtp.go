package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/shivangsaraswat/certiflow/internal/models"
)

// Message is one fully prepared outbound email.
type Message struct {
	To      string
	Subject string
	Body    string

	// Optional attachment, already loaded into memory.
	AttachmentName string
	AttachmentData []byte
}

// SMTPSender submits messages through one group's transport. A fresh
// dialer is built per job execution; gomail dials per DialAndSend call,
// nothing is pooled across jobs.
type SMTPSender struct {
	cfg     models.TransportConfig
	dialer  *gomail.Dialer
	timeout time.Duration
}

func NewSMTPSender(cfg models.TransportConfig, timeout time.Duration) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Email, cfg.Password)

	switch cfg.Encryption {
	case models.EncryptionSSL:
		d.SSL = true
	case models.EncryptionTLS:
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	case models.EncryptionNone:
		// plain connection, e.g. a local relay
	}

	return &SMTPSender{cfg: cfg, dialer: d, timeout: timeout}
}

// Send submits one message, bounded by the configured timeout so one
// unreachable host cannot stall a job loop indefinitely.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.Email, s.cfg.FromName())
	m.SetHeader("To", msg.To)
	m.SetHeader("Reply-To", s.cfg.ReplyAddress())
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	if msg.AttachmentName != "" {
		data := msg.AttachmentData
		m.Attach(msg.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}
