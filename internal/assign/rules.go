package assign

import (
	"sort"
	"strings"

	"github.com/sells-group/lead-router/internal/model"
)

// sortedActiveRules returns the active rules in ascending evaluation order.
// The sort is stable so rules sharing an order keep their configured
// sequence, which keeps evaluation deterministic.
func sortedActiveRules(rules []model.AssignmentRule) []model.AssignmentRule {
	active := make([]model.AssignmentRule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Order < active[j].Order
	})
	return active
}

// ruleMatches evaluates one rule's condition against a lead. The switch is
// exhaustive over model.RuleKind; NewEngine rejects unknown kinds up front.
func ruleMatches(rule model.AssignmentRule, lead model.Lead) bool {
	switch rule.Kind {
	case model.RulePriority:
		return strings.EqualFold(string(lead.Priority), rule.Value)

	case model.RuleAmountThreshold:
		amount, ok := model.ParseAmount(lead.Settlement.MonthlyPayment)
		if !ok {
			return false
		}
		threshold, ok := model.ParseAmount(rule.Value)
		return ok && amount >= threshold

	case model.RuleInsuranceCompany:
		company := lead.Settlement.InsuranceCompany
		if company == "" || company == model.NotAvailable || rule.Value == "" {
			return false
		}
		return strings.Contains(strings.ToLower(company), strings.ToLower(rule.Value))

	case model.RuleCustomDefault:
		return true
	}
	return false
}
