package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reSKU   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// ID parses a positive integer identifier from a route param or query.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

// Qty checks a line-item quantity: positive integer, clamped upper bound to
// keep a single request from draining an entire warehouse by typo.
func Qty(n int) bool { return n >= 1 && n <= 100000 }

// Money checks a non-negative currency amount.
func Money(d decimal.Decimal) bool { return !d.IsNegative() }

// Date validates an ISO sale/payment date, returning it normalized.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 80 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Name validates a displayable name (product/customer) with a sane cap.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 120 {
		return "", false
	}
	return s, true
}

// SKU validates a caller-supplied stock keeping unit.
func SKU(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, s != "" && reSKU.MatchString(s)
}

// Limit clamps a paging/list limit into [1, max] with a default.
func Limit(s string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
