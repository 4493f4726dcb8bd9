package core

import (
	"fmt"
	"math"
)

// paidTolerance is how far the sum of recorded payments may drift from the
// bill total, in cents.
const paidTolerance = 1

// percentTolerance is the allowed drift when percentages are summed as floats.
const percentTolerance = 0.01

// InvalidMethodInputError reports a participant whose method-specific fields
// are missing or out of range for the selected split method.
type InvalidMethodInputError struct {
	Method SplitMethod
	Name   string
	Reason string
}

func (e *InvalidMethodInputError) Error() string {
	return fmt.Sprintf("invalid %s split input for %q: %s", e.Method, e.Name, e.Reason)
}

// MissingNameError reports a participant without a name.
type MissingNameError struct {
	Index int
}

func (e *MissingNameError) Error() string {
	return fmt.Sprintf("participant %d has no name", e.Index+1)
}

// AmountMismatchError reports that recorded payments do not add up to the
// bill total.
type AmountMismatchError struct {
	Expected Money
	Actual   Money
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amounts paid sum to %s, expected %s", e.Actual, e.Expected)
}

// PercentageMismatchError reports that percentages do not sum to 100.
type PercentageMismatchError struct {
	Actual float64
}

func (e *PercentageMismatchError) Error() string {
	return fmt.Sprintf("percentages sum to %g, expected 100", e.Actual)
}

// InvalidRatioError reports a ratio below 1.
type InvalidRatioError struct {
	Name  string
	Ratio int
}

func (e *InvalidRatioError) Error() string {
	return fmt.Sprintf("ratio %d for %q must be a positive integer", e.Ratio, e.Name)
}

// InsufficientParticipantsError reports a split with fewer than two people.
type InsufficientParticipantsError struct {
	Count int
}

func (e *InsufficientParticipantsError) Error() string {
	return fmt.Sprintf("split needs at least 2 participants, got %d", e.Count)
}

// ComputeShares fills ShareAmount and AmountOwed on each participant
// according to the split method. All arithmetic is done in cents; shares
// always sum exactly to total. AmountPaid is never modified, and AmountOwed
// is derived last for every method as ShareAmount - AmountPaid.
func ComputeShares(total Money, method SplitMethod, parts []Participant) error {
	if len(parts) == 0 {
		return &InsufficientParticipantsError{Count: 0}
	}
	switch method {
	case MethodEqual:
		equalShares(total.Cents, parts)
	case MethodPercentage:
		if err := percentageShares(total.Cents, parts); err != nil {
			return err
		}
	case MethodRatio:
		if err := ratioShares(total.Cents, parts); err != nil {
			return err
		}
	default:
		return ErrInvalidMethod
	}
	for i := range parts {
		parts[i].AmountOwed = Money{Cents: parts[i].ShareAmount.Cents - parts[i].AmountPaid.Cents}
	}
	return nil
}

// equalShares gives everyone total/n cents; the leftover cents go to the
// participants at the front of the list, one each, so 100.00 over three
// people becomes 33.34, 33.33, 33.33.
func equalShares(total int64, parts []Participant) {
	n := int64(len(parts))
	base := total / n
	extra := total % n
	for i := range parts {
		share := base
		if int64(i) < extra {
			share++
		}
		parts[i].ShareAmount = Money{Cents: share}
	}
}

func percentageShares(total int64, parts []Participant) error {
	for i := range parts {
		pct := parts[i].SharePercentage
		if pct < 0 || pct > 100 {
			return &InvalidMethodInputError{
				Method: MethodPercentage,
				Name:   parts[i].Name,
				Reason: fmt.Sprintf("share percentage %g out of range", pct),
			}
		}
		parts[i].ShareAmount = Money{Cents: roundHalfUp(float64(total) * pct / 100)}
	}
	settleResidual(total, parts)
	return nil
}

func ratioShares(total int64, parts []Participant) error {
	sum := int64(0)
	for i := range parts {
		r := parts[i].ShareRatio
		if r < 1 {
			return &InvalidMethodInputError{
				Method: MethodRatio,
				Name:   parts[i].Name,
				Reason: fmt.Sprintf("share ratio %d must be at least 1", r),
			}
		}
		sum += int64(r)
	}
	for i := range parts {
		parts[i].ShareAmount = Money{Cents: roundHalfUp(float64(total) * float64(parts[i].ShareRatio) / float64(sum))}
	}
	settleResidual(total, parts)
	return nil
}

// settleResidual spreads the rounding drift one cent at a time, walking
// backwards from the last participant, so shares sum exactly to the total.
// A cent is never taken from a zero share, keeping every share non-negative.
func settleResidual(total int64, parts []Participant) {
	assigned := int64(0)
	for i := range parts {
		assigned += parts[i].ShareAmount.Cents
	}
	diff := total - assigned
	for i := len(parts) - 1; diff != 0; i-- {
		if i < 0 {
			i = len(parts) - 1
		}
		switch {
		case diff > 0:
			parts[i].ShareAmount.Cents++
			diff--
		case parts[i].ShareAmount.Cents > 0:
			parts[i].ShareAmount.Cents--
			diff++
		}
	}
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// ValidateSplit checks a split request before any shares are computed or
// persisted. Checks run in a fixed order and stop at the first failure:
// participant names, paid amounts against the total, percentages, ratios,
// participant count. It never mutates its arguments.
func ValidateSplit(total Money, method SplitMethod, parts []Participant) error {
	for i := range parts {
		if parts[i].Name == "" {
			return &MissingNameError{Index: i}
		}
	}
	paid := int64(0)
	for i := range parts {
		paid += parts[i].AmountPaid.Cents
	}
	if diff := paid - total.Cents; diff > paidTolerance || diff < -paidTolerance {
		return &AmountMismatchError{Expected: total, Actual: Money{Cents: paid}}
	}
	if method == MethodPercentage {
		sum := 0.0
		for i := range parts {
			sum += parts[i].SharePercentage
		}
		if math.Abs(sum-100) > percentTolerance {
			return &PercentageMismatchError{Actual: sum}
		}
	}
	if method == MethodRatio {
		for i := range parts {
			if parts[i].ShareRatio < 1 {
				return &InvalidRatioError{Name: parts[i].Name, Ratio: parts[i].ShareRatio}
			}
		}
	}
	if len(parts) < 2 {
		return &InsufficientParticipantsError{Count: len(parts)}
	}
	return nil
}
