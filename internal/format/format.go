// Package format converts numbers and filter values into display strings.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PeriodLabel is shown wherever no date is selected.
const PeriodLabel = "January 2019"

// Thousands renders n with comma thousands separators ("7,500,000").
func Thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var sb strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	sb.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		sb.WriteByte(',')
		sb.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

// Millions renders a currency amount in millions with two decimals ("$12.34M").
func Millions(amount float64) string {
	return fmt.Sprintf("$%.2fM", amount/1_000_000)
}

// K abbreviates counts of 1000 and above with a single decimal ("12.3K").
func K(n float64) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Hour renders an hour of day on a 12-hour clock ("12 AM", "8 AM", "3 PM").
func Hour(h int) string {
	switch {
	case h == 0:
		return "12 AM"
	case h < 12:
		return fmt.Sprintf("%d AM", h)
	case h == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", h-12)
	}
}

// Date renders an ISO date as "Jan 5, 2019". Unparseable input is returned unchanged.
func Date(iso string) string {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return iso
	}
	return t.Format("Jan 2, 2006")
}

// ShortDate renders an ISO date as "Jan 5".
func ShortDate(iso string) string {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return iso
	}
	return t.Format("Jan 2")
}

// Number renders a float in its shortest decimal form ("10", "2.5").
func Number(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Signed renders a percentage with an explicit plus sign for positive values ("+3.2%").
func Signed(pct float64) string {
	s := fmt.Sprintf("%.1f%%", pct)
	if pct > 0 {
		return "+" + s
	}
	return s
}
