package core

import (
	"errors"
	"strings"
	"time"
)

const (
	MethodEqual      SplitMethod = "equal"
	MethodPercentage SplitMethod = "percentage"
	MethodRatio      SplitMethod = "ratio"
)

type (
	// SplitMethod selects how a bill total is divided between participants.
	SplitMethod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID           string
		UserID       string
		Merchant     string
		Amount       Money
		Category     string
		Date         Date
		EmailSubject string // subject of the source email, empty for manual entries
		CreatedAt    time.Time
	}

	Budget struct {
		UserID string
		Month  string // YYYY-MM
		Income Money
		Limit  Money
	}

	// Participant is one person on a split. ShareAmount and AmountOwed are
	// computed from the method fields; AmountOwed is signed (negative means
	// the participant is owed money).
	Participant struct {
		Name            string
		Phone           string
		AmountPaid      Money
		SharePercentage float64 // percentage method
		ShareRatio      int     // ratio method
		ShareAmount     Money
		AmountOwed      Money
	}

	Split struct {
		ID            int64 // Database ID for operations
		UserID        string
		TransactionID string
		Merchant      string
		Total         Money
		Category      string
		Date          Date
		Method        SplitMethod
		Participants  []Participant
		Notes         string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Transfer is one settlement payment from a debtor to the receiver.
	Transfer struct {
		From      string
		FromPhone string
		To        string
		Amount    Money
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidMonth    = errors.New("invalid month, expected YYYY-MM")
	ErrEmptyUserID     = errors.New("empty user id")
	ErrEmptyMerchant   = errors.New("empty merchant")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidMethod   = errors.New("invalid split method")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// MonthKey returns the YYYY-MM key the date falls in.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ValidMonth reports whether s is a YYYY-MM month key.
func ValidMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

func (m SplitMethod) Validate() error {
	switch m {
	case MethodEqual, MethodPercentage, MethodRatio:
		return nil
	default:
		return ErrInvalidMethod
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if len(strings.TrimSpace(t.Merchant)) == 0 {
		return ErrEmptyMerchant
	}
	if len(t.Merchant) > 200 {
		return errors.New("merchant too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !ValidCategory(t.Category) {
		return ErrInvalidCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUserID
	}
	if !ValidMonth(b.Month) {
		return ErrInvalidMonth
	}
	if b.Income.Cents < 0 || b.Limit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s Split) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(s.TransactionID) == "" {
		return errors.New("empty transaction id")
	}
	if len(strings.TrimSpace(s.Merchant)) == 0 {
		return ErrEmptyMerchant
	}
	if err := s.Total.Validate(); err != nil {
		return err
	}
	if err := s.Method.Validate(); err != nil {
		return err
	}
	if err := s.Date.Validate(); err != nil {
		return err
	}
	return ValidateSplit(s.Total, s.Method, s.Participants)
}
