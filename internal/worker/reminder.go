package worker

import (
	"context"
	"fmt"
	"log/slog"

	"splitmint/internal/amqp"
	"splitmint/internal/notify"
)

// ReminderWorker drains the reminder queue and hands each message to the SMS
// dispatcher. A send failure nacks the delivery back onto the queue.
type ReminderWorker struct {
	client     *amqp.Client
	dispatcher *notify.Dispatcher
}

func NewReminderWorker(client *amqp.Client, dispatcher *notify.Dispatcher) *ReminderWorker {
	return &ReminderWorker{
		client:     client,
		dispatcher: dispatcher,
	}
}

// Run blocks consuming reminders until ctx is cancelled.
func (w *ReminderWorker) Run(ctx context.Context) error {
	return w.client.ConsumeReminders(ctx, func(msg *amqp.ReminderMessage) error {
		if err := w.dispatcher.DispatchOne(ctx, *msg); err != nil {
			return fmt.Errorf("dispatch reminder: %w", err)
		}

		slog.InfoContext(ctx, "Reminder dispatched",
			"transaction_id", msg.TransactionID,
			"payer", msg.Payer,
			"receiver", msg.Receiver)
		return nil
	})
}
