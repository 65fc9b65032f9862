package model

import (
	"strings"
	"time"
)

// NotAvailable is the sentinel substituted for missing source values during
// intake. Downstream checks compare against it instead of testing for absence.
const NotAvailable = "N/A"

// LeadStatus represents a lead's position in the workflow.
type LeadStatus string

const (
	StatusNew        LeadStatus = "new"
	StatusAssigned   LeadStatus = "assigned"
	StatusInProgress LeadStatus = "in_progress"
	StatusQualified  LeadStatus = "qualified"
	StatusClosed     LeadStatus = "closed"
)

// LeadPriority is the routing priority of a lead.
type LeadPriority string

const (
	PriorityHigh   LeadPriority = "high"
	PriorityMedium LeadPriority = "medium"
	PriorityLow    LeadPriority = "low"
)

// PhoneType classifies a phone number entry.
type PhoneType string

const (
	PhoneMobile PhoneType = "mobile"
	PhoneHome   PhoneType = "home"
	PhoneWork   PhoneType = "work"
	PhoneOther  PhoneType = "other"
)

// PhoneNumber is one contact entry on a lead. Numbers are not deduplicated;
// a lead only needs one usable entry to pass validation.
type PhoneNumber struct {
	Number       string    `json:"number"`
	Type         PhoneType `json:"type,omitempty"`
	Relationship string    `json:"relationship,omitempty"`
	Primary      bool      `json:"primary"`
	Verified     bool      `json:"verified"`
	Notes        string    `json:"notes,omitempty"`
}

// Settlement holds the structured-settlement attributes of a lead.
type Settlement struct {
	MonthlyPayment   string `json:"monthly_payment"`
	TotalValue       string `json:"total_value"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	InsuranceCompany string `json:"insurance_company"`
	OfferAmount      string `json:"offer_amount"`
}

// Lead is the unit of work moving through intake, validation, enrichment,
// and assignment.
type Lead struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CRMID    string `json:"crm_id"`
	Campaign string `json:"campaign"`

	Phones []PhoneNumber `json:"phones"`

	Settlement     Settlement `json:"settlement"`
	TaxID          string     `json:"tax_id"`
	DateOfBirth    string     `json:"date_of_birth"`
	ProjectedNPV   string     `json:"projected_npv"`
	CompetingOffer string     `json:"competing_offer"`

	// AdditionalFields preserves source columns the schema does not model.
	AdditionalFields map[string]string `json:"additional_fields,omitempty"`

	Status       LeadStatus   `json:"status"`
	Priority     LeadPriority `json:"priority"`
	AssignedTo   string       `json:"assigned_to,omitempty"` // empty = unassigned
	Processed    bool         `json:"processed"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	AssignedAt   *time.Time   `json:"assigned_at,omitempty"`
	LastActivity time.Time    `json:"last_activity"`
}

// PrimaryPhone returns the entry flagged primary, or the first entry when
// none is flagged. ok is false for a lead with no phone entries.
func (l *Lead) PrimaryPhone() (PhoneNumber, bool) {
	if len(l.Phones) == 0 {
		return PhoneNumber{}, false
	}
	for _, p := range l.Phones {
		if p.Primary {
			return p, true
		}
	}
	return l.Phones[0], true
}

// HasUsablePhone reports whether at least one phone entry carries a real
// number rather than the intake sentinel.
func (l *Lead) HasUsablePhone() bool {
	for _, p := range l.Phones {
		if strings.TrimSpace(p.Number) != "" && p.Number != NotAvailable {
			return true
		}
	}
	return false
}

// DuplicateKey is the composite key used for batch duplicate detection:
// lower-cased client name plus the primary phone number.
func (l *Lead) DuplicateKey() string {
	phone := ""
	if p, ok := l.PrimaryPhone(); ok {
		phone = p.Number
	}
	return strings.ToLower(strings.TrimSpace(l.Name)) + "|" + phone
}
