package model

// RuleKind discriminates the condition carried by an AssignmentRule.
// Evaluation switches over this tag exhaustively; adding a kind without
// handling it is a compile-time reviewable change, not a silent fallthrough.
type RuleKind string

const (
	RulePriority         RuleKind = "priority"
	RuleAmountThreshold  RuleKind = "amount_threshold"
	RuleInsuranceCompany RuleKind = "insurance_company"
	RuleCustomDefault    RuleKind = "custom_default"
)

// KnownRuleKind reports whether k is one of the defined rule kinds.
func KnownRuleKind(k RuleKind) bool {
	switch k {
	case RulePriority, RuleAmountThreshold, RuleInsuranceCompany, RuleCustomDefault:
		return true
	}
	return false
}

// AssignmentRule routes a lead to a target representative when its condition
// matches. Rules are evaluated in ascending Order, first match wins; the
// custom_default kind matches unconditionally and is conventionally given
// the highest order so specific rules are tried first.
type AssignmentRule struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Kind     RuleKind `json:"kind" yaml:"kind"`
	Value    string   `json:"value" yaml:"value"`
	TargetID string   `json:"target_id" yaml:"target_id"`
	Active   bool     `json:"active" yaml:"active"`
	Order    int      `json:"order" yaml:"order"`
}
