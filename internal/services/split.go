package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"splitmint/internal/amqp"
	"splitmint/internal/core"
	"splitmint/internal/notify"
	"splitmint/internal/store"
)

// ReminderPublisher enqueues a settlement reminder for async delivery.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// SplitService orchestrates bill splits: share computation, validation,
// persistence and settlement reminders.
type SplitService struct {
	store      store.SplitStore
	publisher  ReminderPublisher  // nil when AMQP is not configured
	dispatcher *notify.Dispatcher // nil when SMTP is not configured
}

func NewSplitService(s store.SplitStore, publisher ReminderPublisher, dispatcher *notify.Dispatcher) *SplitService {
	return &SplitService{store: s, publisher: publisher, dispatcher: dispatcher}
}

// CreateSplit validates the request, computes every participant's share
// and stores the result. A transaction can be split at most once; a
// second attempt surfaces store.ErrDuplicate.
func (s *SplitService) CreateSplit(ctx context.Context, sp core.Split) (core.Split, error) {
	if err := sp.Validate(); err != nil {
		return core.Split{}, err
	}
	if err := core.ComputeShares(sp.Total, sp.Method, sp.Participants); err != nil {
		return core.Split{}, err
	}

	now := time.Now().UTC()
	sp.CreatedAt = now
	sp.UpdatedAt = now

	saved, err := s.store.InsertSplit(ctx, sp)
	if err != nil {
		return core.Split{}, fmt.Errorf("save split: %w", err)
	}

	slog.InfoContext(ctx, "Split created",
		"user_id", saved.UserID,
		"transaction_id", saved.TransactionID,
		"method", string(saved.Method),
		"participants", len(saved.Participants))
	return saved, nil
}

func (s *SplitService) GetSplit(ctx context.Context, userID, transactionID string) (core.Split, error) {
	return s.store.GetSplit(ctx, userID, transactionID)
}

func (s *SplitService) DeleteSplit(ctx context.Context, userID, transactionID string) error {
	return s.store.DeleteSplit(ctx, userID, transactionID)
}

func (s *SplitService) ListSplits(ctx context.Context, userID string) ([]core.Split, error) {
	return s.store.ListSplits(ctx, userID)
}

// SendReminders settles a split into transfers and hands each one off
// for delivery. With AMQP configured the reminders go through the queue;
// otherwise they are dispatched directly in the background. Returns the
// transfers so callers can show who owes whom.
func (s *SplitService) SendReminders(ctx context.Context, userID, transactionID string) ([]core.Transfer, error) {
	sp, err := s.store.GetSplit(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	transfers, err := core.Settle(sp.Participants)
	if err != nil {
		return nil, fmt.Errorf("settle split %s: %w", transactionID, err)
	}
	if len(transfers) == 0 {
		return nil, nil
	}

	msgs := make([]amqp.ReminderMessage, 0, len(transfers))
	for _, t := range transfers {
		msgs = append(msgs, *amqp.NewReminderMessage(
			userID, transactionID, sp.Merchant,
			t.From, t.FromPhone, t.To, t.Amount.Cents))
	}

	switch {
	case s.publisher != nil:
		for i := range msgs {
			if err := s.publisher.PublishReminder(ctx, &msgs[i]); err != nil {
				slog.ErrorContext(ctx, "Failed to enqueue reminder",
					"payer", msgs[i].Payer, "error", err)
			}
		}
	case s.dispatcher != nil:
		go func() {
			sent, skipped := s.dispatcher.DispatchAll(context.WithoutCancel(ctx), msgs)
			slog.Info("Reminder dispatch finished", "sent", sent, "skipped", skipped)
		}()
	default:
		slog.WarnContext(ctx, "No reminder transport configured, transfers computed only",
			"transaction_id", transactionID)
	}

	return transfers, nil
}
