package wizard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount parses a user-typed amount. Commas are accepted as decimal
// separators and normalized to dots; the value must be a finite,
// non-negative number. An empty string is not an amount.
func ParseAmount(s string) (float64, error) {
	normalized := strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if normalized == "" {
		return 0, ErrAmountInvalid
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
		return 0, ErrAmountInvalid
	}
	return v, nil
}

// FormatAmount renders an amount back into the draft field, trimming a
// trailing ".00" so whole values stay short.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimSuffix(s, ".00")
	return s
}

// FormatMoney renders an amount for display, always with cents.
func FormatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
