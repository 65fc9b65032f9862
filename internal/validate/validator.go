// Package validate checks canonical leads against required-field and
// data-quality rules. Checks never mutate lead fields; output ordering is a
// display contract (per-lead: name, phone, quality; batch: input order).
package validate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/model"
)

// Validate partitions leads into valid and invalid sets. Every input lead
// lands in exactly one partition; errors and warnings carry the originating
// lead id and preserve evaluation order.
func Validate(leads []model.Lead) model.ValidationResult {
	result := model.ValidationResult{
		Valid:   make([]model.Lead, 0, len(leads)),
		Invalid: make([]model.Lead, 0),
	}

	for _, lead := range leads {
		errs, warns := checkLead(lead)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warns...)
		if len(errs) > 0 {
			result.Invalid = append(result.Invalid, lead)
		} else {
			result.Valid = append(result.Valid, lead)
		}
	}

	zap.L().Debug("validate: batch partitioned",
		zap.Int("input", len(leads)),
		zap.Int("valid", len(result.Valid)),
		zap.Int("invalid", len(result.Invalid)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result
}

// checkLead runs every check independently; no short-circuiting, so a lead
// missing both name and phones reports both errors.
func checkLead(lead model.Lead) ([]model.ValidationError, []model.ValidationWarning) {
	var errs []model.ValidationError
	var warns []model.ValidationWarning

	// Name check.
	if lead.Name == "" || lead.Name == model.NotAvailable {
		errs = append(errs, model.ValidationError{
			LeadID:  lead.ID,
			Field:   "name",
			Message: "client name is missing or unknown",
		})
	}

	// Phone check: zero entries is a hard error; entries that are all
	// sentinel-valued keep the lead valid but are flagged.
	if len(lead.Phones) == 0 {
		errs = append(errs, model.ValidationError{
			LeadID:  lead.ID,
			Field:   "phones",
			Message: "lead has no phone number entries",
		})
	} else if !lead.HasUsablePhone() {
		warns = append(warns, model.ValidationWarning{
			LeadID:  lead.ID,
			Field:   "phones",
			Message: "all phone entries are placeholders",
		})
	}

	// Quality checks, warnings only.
	for _, q := range []struct {
		field string
		value string
		label string
	}{
		{"monthly_payment", lead.Settlement.MonthlyPayment, "monthly payment"},
		{"tax_id", lead.TaxID, "tax id"},
		{"date_of_birth", lead.DateOfBirth, "date of birth"},
	} {
		if q.value == "" || q.value == model.NotAvailable {
			warns = append(warns, model.ValidationWarning{
				LeadID:  lead.ID,
				Field:   q.field,
				Message: fmt.Sprintf("missing %s", q.label),
			})
		}
	}

	return errs, warns
}
