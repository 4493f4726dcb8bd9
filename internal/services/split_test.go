package services

import (
	"context"
	"errors"
	"testing"

	"splitmint/internal/amqp"
	"splitmint/internal/core"
	"splitmint/internal/store"
	"splitmint/internal/store/memory"
)

type fakePublisher struct {
	published []amqp.ReminderMessage
	err       error
}

func (f *fakePublisher) PublishReminder(_ context.Context, msg *amqp.ReminderMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, *msg)
	return nil
}

func dinnerSplit() core.Split {
	return core.Split{
		UserID:        "user_1",
		TransactionID: "tx_1",
		Merchant:      "Dominos Pizza",
		Total:         core.Money{Cents: 9000},
		Category:      "Food and Drinks",
		Date:          core.NewDate(2025, 1, 15),
		Method:        core.MethodEqual,
		Participants: []core.Participant{
			{Name: "Alice", Phone: "9876543210", AmountPaid: core.Money{Cents: 9000}},
			{Name: "Bob", Phone: "9123456780"},
			{Name: "Charlie"},
		},
	}
}

func TestCreateSplitComputesShares(t *testing.T) {
	svc := NewSplitService(memory.New(), nil, nil)

	saved, err := svc.CreateSplit(context.Background(), dinnerSplit())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if saved.ID == 0 {
		t.Error("saved split has no id")
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
	shares := []int64{saved.Participants[0].ShareAmount.Cents, saved.Participants[1].ShareAmount.Cents, saved.Participants[2].ShareAmount.Cents}
	for i, want := range []int64{3000, 3000, 3000} {
		if shares[i] != want {
			t.Errorf("share[%d] = %d, want %d", i, shares[i], want)
		}
	}
	if saved.Participants[0].AmountOwed.Cents != -6000 {
		t.Errorf("Alice owed = %d, want -6000", saved.Participants[0].AmountOwed.Cents)
	}
	if saved.Participants[1].AmountOwed.Cents != 3000 {
		t.Errorf("Bob owed = %d, want 3000", saved.Participants[1].AmountOwed.Cents)
	}
}

func TestCreateSplitRejectsInvalid(t *testing.T) {
	svc := NewSplitService(memory.New(), nil, nil)

	sp := dinnerSplit()
	sp.Participants[0].AmountPaid = core.Money{Cents: 5000} // short of the total

	if _, err := svc.CreateSplit(context.Background(), sp); err == nil {
		t.Error("expected validation error")
	}

	var mismatch *core.AmountMismatchError
	_, err := svc.CreateSplit(context.Background(), sp)
	if !errors.As(err, &mismatch) {
		t.Errorf("error = %v, want AmountMismatchError", err)
	}
}

func TestCreateSplitDuplicate(t *testing.T) {
	svc := NewSplitService(memory.New(), nil, nil)

	if _, err := svc.CreateSplit(context.Background(), dinnerSplit()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateSplit(context.Background(), dinnerSplit())
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestSendRemindersPublishesTransfers(t *testing.T) {
	st := memory.New()
	pub := &fakePublisher{}
	svc := NewSplitService(st, pub, nil)

	if _, err := svc.CreateSplit(context.Background(), dinnerSplit()); err != nil {
		t.Fatalf("create split: %v", err)
	}

	transfers, err := svc.SendReminders(context.Background(), "user_1", "tx_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Alice paid the whole bill, so Bob and Charlie each owe her 30.00.
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	if transfers[0].From != "Bob" || transfers[0].To != "Alice" || transfers[0].Amount.Cents != 3000 {
		t.Errorf("transfer[0] = %+v", transfers[0])
	}
	if transfers[1].From != "Charlie" || transfers[1].Amount.Cents != 3000 {
		t.Errorf("transfer[1] = %+v", transfers[1])
	}

	if len(pub.published) != 2 {
		t.Fatalf("published %d reminders, want 2", len(pub.published))
	}
	msg := pub.published[0]
	if msg.Payer != "Bob" || msg.PayerPhone != "9123456780" || msg.Receiver != "Alice" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Merchant != "Dominos Pizza" || msg.AmountCents != 3000 {
		t.Errorf("message = %+v", msg)
	}
}

func TestSendRemindersMissingSplit(t *testing.T) {
	svc := NewSplitService(memory.New(), &fakePublisher{}, nil)

	_, err := svc.SendReminders(context.Background(), "user_1", "absent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSendRemindersNoReceiver(t *testing.T) {
	st := memory.New()
	svc := NewSplitService(st, &fakePublisher{}, nil)

	sp := dinnerSplit()
	sp.Participants = []core.Participant{
		{Name: "Alice", AmountPaid: core.Money{Cents: 4500}},
		{Name: "Bob", AmountPaid: core.Money{Cents: 4500}},
	}
	if _, err := svc.CreateSplit(context.Background(), sp); err != nil {
		t.Fatalf("create split: %v", err)
	}

	// Everyone paid their own share, nobody is owed money.
	if _, err := svc.SendReminders(context.Background(), "user_1", "tx_1"); !errors.Is(err, core.ErrNoReceiver) {
		t.Errorf("error = %v, want ErrNoReceiver", err)
	}
}

func TestDeleteSplit(t *testing.T) {
	svc := NewSplitService(memory.New(), nil, nil)

	if _, err := svc.CreateSplit(context.Background(), dinnerSplit()); err != nil {
		t.Fatalf("create split: %v", err)
	}
	if err := svc.DeleteSplit(context.Background(), "user_1", "tx_1"); err != nil {
		t.Fatalf("delete split: %v", err)
	}
	if _, err := svc.GetSplit(context.Background(), "user_1", "tx_1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteSplit(context.Background(), "user_1", "tx_1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}
