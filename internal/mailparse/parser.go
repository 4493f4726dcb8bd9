// Package mailparse extracts transaction details from bank and payment
// notification emails using an ordered set of regex patterns.
package mailparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"splitmint/internal/core"
)

// Parsed is a transaction candidate pulled out of an email.
type Parsed struct {
	Merchant string
	Amount   core.Money
	Date     core.Date
}

type patternSet struct {
	name     string
	amount   *regexp.Regexp
	merchant *regexp.Regexp
}

// Patterns are tried in order; the first one yielding both an amount and a
// merchant wins. Specific phrasings come before the generic catch-all.
var patterns = []patternSet{
	{
		// "Rs. 450 spent at Domino's" / "₹450 spent at Amazon"
		name:     "spent_at",
		amount:   regexp.MustCompile(`(?i)(?:Rs\.?\s*|₹|Rupees\s+)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
		merchant: regexp.MustCompile(`(?i)(?:spent at|paid to)\s+([A-Za-z\s&'-]+?)(?:\s+(?:at|on|dated|Rs\.?|₹|Rupees)|\.|$)`),
	},
	{
		// "₹1299 debited to Amazon"
		name:     "debited_to",
		amount:   regexp.MustCompile(`(?i)(?:Rs\.?\s*|₹|Rupees\s+)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
		merchant: regexp.MustCompile(`(?i)(?:debited to|credited to)\s+([A-Za-z\s&'-]+?)(?:\s+(?:at|on|dated|Rs\.?|₹|Rupees)|\.|$)`),
	},
	{
		// "sent 100 Rupees to Domino's"
		name:     "sent_to",
		amount:   regexp.MustCompile(`(?i)(?:sent|transferred)\s+(?:Rs\.?\s*|₹|Rupees\s+)?\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
		merchant: regexp.MustCompile(`(?i)(?:to|at)\s+([A-Za-z\s&'-]+?)(?:\s+(?:at|on|dated|Rs\.?|₹|Rupees)|\.|$)`),
	},
	{
		// "Amount: ₹180 Payment to Uber"
		name:     "amount_payment",
		amount:   regexp.MustCompile(`(?i)(?:Amount|Amt)[:\s]*(?:Rs\.?\s*|₹|Rupees\s+)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
		merchant: regexp.MustCompile(`(?i)(?:payment to|paid to)\s+([A-Za-z\s&'-]+?)(?:\s+(?:at|on|dated|Rs\.?|₹|Rupees)|\.|$)`),
	},
	{
		// "Transaction of Rs 500 at Dominos"
		name:     "transaction_of",
		amount:   regexp.MustCompile(`(?i)(?:transaction|payment)\s+of\s+(?:Rs\.?\s*|₹|Rupees\s+)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
		merchant: regexp.MustCompile(`(?i)(?:at|to|from)\s+([A-Za-z\s&'-]+?)(?:\s+(?:at|on|dated|Rs\.?|₹|Rupees)|\.|$)`),
	},
	{
		// "₹649 to Netflix" / "Rs 649 at Starbucks"
		name:     "simple_to_at",
		amount:   regexp.MustCompile(`(?i)(?:Rs\.?\s*|₹|Rupees\s+)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
		merchant: regexp.MustCompile(`(?i)(?:to|at|from)\s+([A-Za-z\s&'-]+?)(?:\s+(?:at|on|dated|Rs\.?|₹|Rupees)|\.|$)`),
	},
	{
		// Bare "Rs 500" with a capitalized merchant nearby
		name:     "generic",
		amount:   regexp.MustCompile(`(?i)(?:Rs\.?\s*|₹|Rupees\s+)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
		merchant: regexp.MustCompile(`([A-Z][A-Za-z\s&'-]{2,30}?)(?:\s+(?:on|dated|transaction|at|Rs\.?|₹|Rupees)|\.|$)`),
	},
}

// Parse extracts a transaction from an email's subject and body. The second
// return value is false when no pattern matches; that is expected for
// non-transaction mail and is not an error.
//
// Subject and body are tried on their own first. Banks repeat the same
// alert phrase in both, and matching against the concatenation would let
// a merchant capture run across the seam into the repeated amount text.
// The concatenation is only a fallback for alerts whose details straddle
// subject and body.
func Parse(subject, body string) (Parsed, bool) {
	var merchant string
	var amount core.Money
	for _, text := range []string{subject, body, subject + " " + body} {
		if m, a, ok := extract(text); ok {
			merchant, amount = m, a
			break
		}
	}

	if merchant == "" || amount.Cents == 0 {
		return Parsed{}, false
	}

	return Parsed{
		Merchant: merchant,
		Amount:   amount,
		Date:     extractDate(subject+" "+body, time.Now()),
	}, true
}

// extract runs the pattern set against one text, returning the first
// amount + merchant pair found.
func extract(text string) (string, core.Money, bool) {
	for _, ps := range patterns {
		am := ps.amount.FindStringSubmatch(text)
		if am == nil {
			continue
		}
		cents, err := core.ParseDecimalToCents(am[1])
		if err != nil {
			continue
		}
		mm := ps.merchant.FindStringSubmatch(text)
		if mm == nil {
			continue
		}
		merchant := cleanMerchant(mm[1])
		if merchant == "" {
			continue
		}
		return merchant, core.Money{Cents: cents}, true
	}
	return "", core.Money{}, false
}

var spaceRe = regexp.MustCompile(`\s+`)

func cleanMerchant(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " .,;:-")
}

var (
	dmyRe   = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	ymdRe   = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	monthRe = regexp.MustCompile(`(?i)(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{4})`)
)

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// extractDate finds a date in the text, falling back to now's date.
func extractDate(text string, now time.Time) core.Date {
	if m := dmyRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return core.NewDate(year, month, day)
		}
	}
	if m := ymdRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return core.NewDate(year, month, day)
		}
	}
	if m := monthRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthNames[strings.ToLower(m[2])]
		year, _ := strconv.Atoi(m[3])
		if day >= 1 && day <= 31 {
			return core.NewDate(year, month, day)
		}
	}
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}
