// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// FormatRupees formats an amount with the rupee sign and Indian digit
// grouping. Whole amounts drop the paise.
// e.g., 1234567.5 -> "₹12,34,567.50", 800 -> "₹800"
func FormatRupees(amount float64) string {
	neg := amount < 0
	amount = math.Abs(amount)

	whole := int64(amount)
	paise := int64(math.Round((amount - float64(whole)) * 100))
	if paise == 100 {
		whole++
		paise = 0
	}

	s := "₹" + GroupIndian(whole)
	if paise > 0 {
		s += fmt.Sprintf(".%02d", paise)
	}
	if neg {
		return "-" + s
	}
	return s
}

// GroupIndian inserts lakh/crore separators: the last three digits, then
// groups of two. e.g., 1234567 -> "12,34,567"
func GroupIndian(n int64) string {
	if n < 0 {
		return "-" + GroupIndian(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	head, tail := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// FormatNumber adds comma separators to an integer in groups of three.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	s := strconv.FormatInt(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

// FormatPercent formats a value already on the 0-100 scale.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDate renders a YYYY-MM-DD date as "10 Jul 2024". Unparseable
// input is returned as is.
func FormatDate(s string) string {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("02 Jan 2006")
}

// FormatDue describes a due date relative to today.
// e.g., "today", "in 3 days", "2 days overdue"
func FormatDue(s string, today time.Time) string {
	due, err := time.Parse(dateLayout, s)
	if err != nil {
		return "no date"
	}
	y, m, d := today.Date()
	days := int(due.Sub(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)).Hours() / 24)

	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "1 day overdue"
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// Truncate shortens s to max runes, adding an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
