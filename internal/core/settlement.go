package core

import "errors"

// ErrNoReceiver is returned when a split does not have exactly one
// participant with a negative balance.
var ErrNoReceiver = errors.New("no single receiver found")

// Settle reduces a split to direct payments. The model is deliberately
// simple: exactly one participant overpaid (negative AmountOwed) and acts as
// the receiver; every participant with a positive balance pays them
// directly, in participant order. Each payment is capped by whatever the
// receiver is still owed, so transfers never overshoot.
//
// Splits with zero or several negative balances do not fit this model and
// yield ErrNoReceiver.
func Settle(parts []Participant) ([]Transfer, error) {
	receiver := -1
	for i := range parts {
		if parts[i].AmountOwed.Cents < 0 {
			if receiver >= 0 {
				return nil, ErrNoReceiver
			}
			receiver = i
		}
	}
	if receiver < 0 {
		return nil, ErrNoReceiver
	}

	remaining := -parts[receiver].AmountOwed.Cents
	transfers := make([]Transfer, 0, len(parts)-1)
	for i := range parts {
		owed := parts[i].AmountOwed.Cents
		if owed <= 0 || remaining <= 0 {
			continue
		}
		amount := owed
		if amount > remaining {
			amount = remaining
		}
		transfers = append(transfers, Transfer{
			From:      parts[i].Name,
			FromPhone: parts[i].Phone,
			To:        parts[receiver].Name,
			Amount:    Money{Cents: amount},
		})
		remaining -= amount
	}
	return transfers, nil
}
