package enrich

import "github.com/sells-group/lead-router/internal/model"

// Score rates a lead 0-100 as an ordering hint for reps working a queue.
// It combines completeness, payment-size bands, and data-completeness
// bonuses; it never gates a lead out of processing.
func Score(lead model.Lead) int {
	score := 0

	// Completeness.
	if lead.Name != "" && lead.Name != model.NotAvailable {
		score += 25
	}
	if lead.HasUsablePhone() {
		score += 25
	}

	// Payment-size bands.
	if amount, ok := model.ParseAmount(lead.Settlement.MonthlyPayment); ok {
		switch {
		case amount > 50000:
			score += 30
		case amount > 20000:
			score += 20
		case amount > 0:
			score += 10
		}
		score += 10 // payment present at all
	}

	// Data-completeness bonuses.
	if lead.TaxID != "" && lead.TaxID != model.NotAvailable {
		score += 5
	}
	if lead.DateOfBirth != "" && lead.DateOfBirth != model.NotAvailable {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
