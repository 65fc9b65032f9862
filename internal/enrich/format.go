package enrich

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/lead-router/internal/model"
)

var titler = cases.Title(language.AmericanEnglish)

// TitleCaseName normalizes a client name to title case. The sentinel and
// empty values pass through unchanged.
func TitleCaseName(name string) string {
	if name == "" || name == model.NotAvailable {
		return name
	}
	return titler.String(strings.ToLower(strings.TrimSpace(name)))
}

// FormatPhone canonicalizes 10-digit and 11-digit-with-leading-1 numbers.
// Anything else (short, foreign, sentinel) is returned unchanged rather
// than discarded.
func FormatPhone(number string) string {
	if number == "" || number == model.NotAvailable {
		return number
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)

	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	default:
		return number
	}
}

// dateLayouts lists the source formats accepted for canonicalization.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
}

// CanonicalDate rewrites a date to ISO-8601 (2006-01-02). Unparseable
// values are returned unchanged.
func CanonicalDate(value string) string {
	if value == "" || value == model.NotAvailable {
		return value
	}
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value
}
