package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ReminderMessage carries one settlement payment that should be nudged over
// SMS. The API publishes one message per transfer; the worker renders and
// delivers them.
type ReminderMessage struct {
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Merchant      string    `json:"merchant"`
	Payer         string    `json:"payer"`
	PayerPhone    string    `json:"payer_phone,omitempty"`
	Receiver      string    `json:"receiver"`
	AmountCents   int64     `json:"amount_cents"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewReminderMessage creates a reminder message for a single transfer.
func NewReminderMessage(userID, transactionID, merchant, payer, payerPhone, receiver string, amountCents int64) *ReminderMessage {
	return &ReminderMessage{
		UserID:        userID,
		TransactionID: transactionID,
		Merchant:      merchant,
		Payer:         payer,
		PayerPhone:    payerPhone,
		Receiver:      receiver,
		AmountCents:   amountCents,
		Timestamp:     time.Now(),
	}
}

// Validate checks the fields a reminder cannot be delivered without.
func (m *ReminderMessage) Validate() error {
	if m.Payer == "" || m.Receiver == "" {
		return errors.New("reminder needs payer and receiver")
	}
	if m.AmountCents <= 0 {
		return errors.New("reminder amount must be positive")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
