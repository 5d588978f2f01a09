// Package notify sends outbound notification mail off the request path.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/westend/backend/internal/metrics"
)

const sendTimeout = 30 * time.Second

type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s SMTPMailer) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return fmt.Errorf("mail has no recipients")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.From)
	msg.SetHeader("To", m.To...)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	errc := make(chan error, 1)
	go func() { errc <- d.DialAndSend(msg) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer stands in when no SMTP server is configured.
type LogMailer struct {
	Logger zerolog.Logger
}

func (l LogMailer) Send(ctx context.Context, m Message) error {
	l.Logger.Info().
		Strs("to", m.To).
		Str("subject", m.Subject).
		Msg("mail not sent, SMTP is not configured")
	return nil
}

// Dispatcher sends each message on its own goroutine. Failures are logged
// and counted, never retried.
type Dispatcher struct {
	Mailer Mailer
	Logger zerolog.Logger

	wg sync.WaitGroup
}

func NewDispatcher(mailer Mailer, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{Mailer: mailer, Logger: logger}
}

func (d *Dispatcher) Dispatch(m Message) {
	mailer := d.Mailer
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				metrics.RecordMail("failed")
				d.Logger.Error().Interface("panic", r).Str("subject", m.Subject).Msg("mail dispatch panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := mailer.Send(ctx, m); err != nil {
			metrics.RecordMail("failed")
			d.Logger.Error().Err(err).Str("subject", m.Subject).Msg("send notification mail")
			return
		}
		metrics.RecordMail("sent")
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
