package amqp

import (
	"testing"
	"time"
)

func TestNewReminderMessage(t *testing.T) {
	msg := NewReminderMessage("u1", "t1", "Dinner", "A", "111", "C", 5000)

	if msg.Payer != "A" || msg.Receiver != "C" || msg.AmountCents != 5000 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestReminderMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     ReminderMessage
		wantErr bool
	}{
		{
			name: "valid",
			msg:  ReminderMessage{Payer: "A", Receiver: "C", AmountCents: 100},
		},
		{
			name:    "missing payer",
			msg:     ReminderMessage{Receiver: "C", AmountCents: 100},
			wantErr: true,
		},
		{
			name:    "missing receiver",
			msg:     ReminderMessage{Payer: "A", AmountCents: 100},
			wantErr: true,
		},
		{
			name:    "zero amount",
			msg:     ReminderMessage{Payer: "A", Receiver: "C"},
			wantErr: true,
		},
		{
			name:    "negative amount",
			msg:     ReminderMessage{Payer: "A", Receiver: "C", AmountCents: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReminderMessage_JSON(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := &ReminderMessage{
		UserID:        "u1",
		TransactionID: "t1",
		Merchant:      "Dinner",
		Payer:         "A",
		PayerPhone:    "111",
		Receiver:      "C",
		AmountCents:   5000,
		Timestamp:     ts,
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := ReminderMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ReminderMessageFromJSON() error = %v", err)
	}
	if parsed.Payer != "A" || parsed.AmountCents != 5000 || !parsed.Timestamp.Equal(ts) {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestReminderMessage_InvalidJSON(t *testing.T) {
	if _, err := ReminderMessageFromJSON([]byte(`{"amount_cents": "lots"}`)); err == nil {
		t.Error("ReminderMessageFromJSON() should fail with invalid JSON")
	}
}
