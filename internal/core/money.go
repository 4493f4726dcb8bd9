// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and rupee representations.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts an amount string as it appears in bank alerts
// to cents. Commas are grouping separators and are ignored ("1,299" and
// "1,29,900" both parse), the dot is the decimal separator, and the third
// decimal place rounds half-up. Amounts must be positive.
//
// Examples:
//
//	ParseDecimalToCents("450") -> 45000, nil
//	ParseDecimalToCents("1,299.50") -> 129950, nil
//	ParseDecimalToCents("12.346") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if hasFrac && strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	var iv int64
	if intPart != "" {
		v, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil || v > (1<<63-1)/100 {
			return 0, ErrInvalidAmount
		}
		iv = v
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		fracCents += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		fracCents++
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FromFloat converts a decimal amount (as received on the JSON API) to Money
// with half-up rounding on the third decimal place. Negative values are
// preserved so that balances can be represented.
func FromFloat(v float64) Money {
	if v < 0 {
		return Money{Cents: -int64(math.Floor(-v*100 + 0.5))}
	}
	return Money{Cents: int64(math.Floor(v*100 + 0.5))}
}

// Rupees returns the rupee value as a float64 for API responses and display.
// Note: Use cents for calculations to avoid floating-point precision issues.
func (m Money) Rupees() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimal places, e.g. "33.34".
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
