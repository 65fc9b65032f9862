package model

// ValidationError is a hard, disqualifying problem on one lead.
type ValidationError struct {
	LeadID  string `json:"lead_id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationWarning is a non-blocking data-quality issue. The lead stays in
// the valid partition; the warning is surfaced for awareness only.
type ValidationWarning struct {
	LeadID  string `json:"lead_id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the output of validating a batch. Valid and Invalid
// are disjoint and together cover the input; both preserve input order, and
// Errors/Warnings preserve per-lead check order (name, phone, quality).
type ValidationResult struct {
	Valid    []Lead              `json:"valid"`
	Invalid  []Lead              `json:"invalid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// DuplicateCluster groups leads sharing a duplicate key (lower-cased name +
// primary phone). Advisory output: members are not invalid, they are just
// reported together and collapsed in the unique view.
type DuplicateCluster struct {
	Key     string   `json:"key"`
	LeadIDs []string `json:"lead_ids"`
}

// DuplicateReport is the batch-level duplicate detection output.
type DuplicateReport struct {
	Clusters []DuplicateCluster `json:"clusters"`
	// Unique holds the batch with each cluster collapsed to its first
	// occurrence, input order preserved.
	Unique []Lead `json:"unique"`
}
