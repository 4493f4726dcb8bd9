package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"splitmint/internal/amqp"
	"splitmint/internal/core"

	"gopkg.in/gomail.v2"
)

// Sender delivers a single message to an address.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   user,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// Dispatcher turns settlement reminders into SMS messages delivered
// through a carrier email-to-SMS gateway.
type Dispatcher struct {
	sender  Sender
	gateway string
	delay   time.Duration
}

// NewDispatcher builds a dispatcher. gateway is the carrier domain
// appended to the recipient phone number; delay is the pause between
// consecutive messages so the relay does not throttle us.
func NewDispatcher(sender Sender, gateway string, delay time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, gateway: gateway, delay: delay}
}

// DispatchOne sends a single reminder. Participants without a phone
// number are skipped silently; delivery failures are returned so queue
// consumers can retry.
func (d *Dispatcher) DispatchOne(ctx context.Context, msg amqp.ReminderMessage) error {
	if msg.PayerPhone == "" {
		slog.InfoContext(ctx, "Skipping reminder, participant has no phone number",
			"payer", msg.Payer, "merchant", msg.Merchant)
		return nil
	}

	to := fmt.Sprintf("%s@%s", msg.PayerPhone, d.gateway)
	body := fmt.Sprintf("%s, pay %s ₹%s for %s",
		msg.Payer, msg.Receiver, core.Money{Cents: msg.AmountCents}.String(), msg.Merchant)

	if err := d.sender.Send(to, "Payment Reminder", body); err != nil {
		return fmt.Errorf("dispatch reminder to %s: %w", msg.Payer, err)
	}

	slog.InfoContext(ctx, "Reminder sent",
		"payer", msg.Payer, "receiver", msg.Receiver,
		"amount_cents", msg.AmountCents, "merchant", msg.Merchant)
	return nil
}

// DispatchAll sends reminders sequentially with the configured delay
// between messages. Failures are logged and do not stop the run.
func (d *Dispatcher) DispatchAll(ctx context.Context, msgs []amqp.ReminderMessage) (sent, skipped int) {
	for i, msg := range msgs {
		if msg.PayerPhone == "" {
			slog.InfoContext(ctx, "Skipping reminder, participant has no phone number",
				"payer", msg.Payer, "merchant", msg.Merchant)
			skipped++
			continue
		}
		if err := d.DispatchOne(ctx, msg); err != nil {
			slog.WarnContext(ctx, "Reminder delivery failed", "payer", msg.Payer, "error", err)
			skipped++
		} else {
			sent++
		}
		if i < len(msgs)-1 && d.delay > 0 {
			select {
			case <-ctx.Done():
				return sent, skipped
			case <-time.After(d.delay):
			}
		}
	}
	return sent, skipped
}
