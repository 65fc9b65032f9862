package model

import (
	"strconv"
	"strings"
)

// ParseAmount extracts a numeric value from a free-form money string
// ("$1,250.50", "1250", "N/A"). Non-numeric characters are stripped; ok is
// false when nothing numeric remains or the field is the sentinel.
func ParseAmount(s string) (float64, bool) {
	if s == "" || s == NotAvailable {
		return 0, false
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
