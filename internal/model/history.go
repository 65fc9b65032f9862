package model

import "time"

// FieldChange is one field's before/after snapshot inside a history entry.
type FieldChange struct {
	Field    string `json:"field"`
	Previous string `json:"previous"`
	New      string `json:"new"`
}

// EnrichmentHistoryEntry is an append-only audit record for one enrichment
// of one lead. Entries are never mutated; a revert appends a compensating
// entry instead.
type EnrichmentHistoryEntry struct {
	ID        string        `json:"id"`
	LeadID    string        `json:"lead_id"`
	LeadName  string        `json:"lead_name"`
	Actor     string        `json:"actor"`
	Timestamp time.Time     `json:"timestamp"`
	Changes   []FieldChange `json:"changes"`
	// RevertOf holds the id of the entry this one compensates, when the
	// entry was produced by a revert.
	RevertOf string `json:"revert_of,omitempty"`
}

// ChangedFields lists the field names touched by this entry, in order.
func (e EnrichmentHistoryEntry) ChangedFields() []string {
	names := make([]string, 0, len(e.Changes))
	for _, c := range e.Changes {
		names = append(names, c.Field)
	}
	return names
}

// AssignmentEvent is the payload published on assignment topics.
type AssignmentEvent struct {
	LeadID      string    `json:"lead_id"`
	RepID       string    `json:"rep_id"`
	PreviousRep string    `json:"previous_rep,omitempty"`
	// RuleID names the matched rule, or "fallback" when workload-based
	// selection (or the default representative) produced the target.
	RuleID    string    `json:"rule_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Assignment topics published by the engine.
const (
	TopicNewAssignment = "new-assignment"
	TopicReassignment  = "reassignment"
)
