package enrich

import (
	"sort"

	"github.com/sells-group/lead-router/internal/model"
)

// getField reads a canonical field from a lead. Unknown fields read from
// the additional-fields map; ok is false when the key exists nowhere.
func getField(l *model.Lead, field string) (string, bool) {
	switch field {
	case "name":
		return l.Name, true
	case "crm_id":
		return l.CRMID, true
	case "status":
		return string(l.Status), true
	case "priority":
		return string(l.Priority), true
	case "tax_id":
		return l.TaxID, true
	case "date_of_birth":
		return l.DateOfBirth, true
	case "npv":
		return l.ProjectedNPV, true
	case "competing_offer":
		return l.CompetingOffer, true
	case "monthly_payment":
		return l.Settlement.MonthlyPayment, true
	case "total_value":
		return l.Settlement.TotalValue, true
	case "start_date":
		return l.Settlement.StartDate, true
	case "end_date":
		return l.Settlement.EndDate, true
	case "insurance_company":
		return l.Settlement.InsuranceCompany, true
	case "offer_amount":
		return l.Settlement.OfferAmount, true
	}
	v, ok := l.AdditionalFields[field]
	return v, ok
}

// setField writes a canonical field on a lead. Unknown fields land in the
// additional-fields map so overrides never silently vanish.
func setField(l *model.Lead, field, value string) {
	switch field {
	case "name":
		l.Name = value
	case "crm_id":
		l.CRMID = value
	case "status":
		l.Status = model.LeadStatus(value)
	case "priority":
		l.Priority = model.LeadPriority(value)
	case "tax_id":
		l.TaxID = value
	case "date_of_birth":
		l.DateOfBirth = value
	case "npv":
		l.ProjectedNPV = value
	case "competing_offer":
		l.CompetingOffer = value
	case "monthly_payment":
		l.Settlement.MonthlyPayment = value
	case "total_value":
		l.Settlement.TotalValue = value
	case "start_date":
		l.Settlement.StartDate = value
	case "end_date":
		l.Settlement.EndDate = value
	case "insurance_company":
		l.Settlement.InsuranceCompany = value
	case "offer_amount":
		l.Settlement.OfferAmount = value
	default:
		if l.AdditionalFields == nil {
			l.AdditionalFields = make(map[string]string)
		}
		l.AdditionalFields[field] = value
	}
}

// sortedKeys returns map keys in sorted order so override application and
// the resulting history entries are deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
