// Package intake maps raw tabular rows into canonical leads. Missing values
// become the model.NotAvailable sentinel so validators test equality instead
// of absence; unmapped rows are skipped with a warning, never abort a batch.
package intake

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/model"
)

// RawRow is one tabular source row: heterogeneous column names mapped to
// cell values, plus the source row index for log lines.
type RawRow struct {
	Index  int
	Values map[string]string
}

// FromStrings pairs a header row with data rows, as produced by the fetcher
// package. Data rows shorter than the header are padded with empty cells.
func FromStrings(header []string, rows [][]string) []RawRow {
	out := make([]RawRow, 0, len(rows))
	for i, cells := range rows {
		values := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(cells) {
				values[col] = cells[j]
			} else {
				values[col] = ""
			}
		}
		out = append(out, RawRow{Index: i, Values: values})
	}
	return out
}

// canonicalColumns maps normalized header keys to Lead fields. Source sheets
// vary in casing and separators; keys here are matched after canonKey.
var canonicalColumns = map[string]string{
	"clientname":       "name",
	"name":             "name",
	"client":           "name",
	"crmid":            "crm_id",
	"crm":              "crm_id",
	"externalid":       "crm_id",
	"phone":            "phone",
	"phonenumber":      "phone",
	"phone1":           "phone",
	"phone2":           "phone2",
	"secondaryphone":   "phone2",
	"monthlypayment":   "monthly_payment",
	"payment":          "monthly_payment",
	"totalvalue":       "total_value",
	"startdate":        "start_date",
	"enddate":          "end_date",
	"insurancecompany": "insurance_company",
	"insurance":        "insurance_company",
	"offeramount":      "offer_amount",
	"taxid":            "tax_id",
	"ssn":              "tax_id",
	"dateofbirth":      "date_of_birth",
	"dob":              "date_of_birth",
	"npv":              "npv",
	"projectednpv":     "npv",
	"competingoffer":   "competing_offer",
	"priority":         "priority",
}

// Normalizer converts raw rows into leads.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer using wall-clock time.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (n *Normalizer) WithNow(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize maps each raw row to a Lead. Rows with no usable identity (no
// name and no phone) are skipped with a warning; the rest of the batch
// proceeds. skipped reports how many rows were dropped.
func (n *Normalizer) Normalize(rows []RawRow, campaignID string) (leads []model.Lead, skipped int) {
	leads = make([]model.Lead, 0, len(rows))
	for _, row := range rows {
		lead, ok := n.NormalizeRow(row, campaignID)
		if !ok {
			skipped++
			continue
		}
		leads = append(leads, lead)
	}
	if skipped > 0 {
		zap.L().Warn("intake: skipped unmappable rows",
			zap.Int("skipped", skipped),
			zap.Int("total", len(rows)),
			zap.String("campaign", campaignID),
		)
	}
	return leads, skipped
}

// NormalizeRow maps a single raw row to a Lead. ok is false when the row
// carries no name and no phone value at all.
func (n *Normalizer) NormalizeRow(row RawRow, campaignID string) (model.Lead, bool) {
	fields := make(map[string]string)
	extra := make(map[string]string)

	for col, val := range row.Values {
		val = strings.TrimSpace(val)
		key, known := canonicalColumns[canonKey(col)]
		if !known {
			// Unrecognized columns are preserved verbatim, not discarded.
			if val != "" {
				extra[col] = val
			}
			continue
		}
		if val != "" {
			fields[key] = val
		}
	}

	if fields["name"] == "" && fields["phone"] == "" && fields["phone2"] == "" {
		zap.L().Warn("intake: row has no mappable identity, skipping",
			zap.Int("row", row.Index),
			zap.String("campaign", campaignID),
		)
		return model.Lead{}, false
	}

	now := n.now()
	lead := model.Lead{
		ID:       uuid.NewString(),
		Name:     orSentinel(fields["name"]),
		CRMID:    orSentinel(fields["crm_id"]),
		Campaign: campaignID,
		Settlement: model.Settlement{
			MonthlyPayment:   orSentinel(fields["monthly_payment"]),
			TotalValue:       orSentinel(fields["total_value"]),
			StartDate:        orSentinel(fields["start_date"]),
			EndDate:          orSentinel(fields["end_date"]),
			InsuranceCompany: orSentinel(fields["insurance_company"]),
			OfferAmount:      orSentinel(fields["offer_amount"]),
		},
		TaxID:          orSentinel(fields["tax_id"]),
		DateOfBirth:    orSentinel(fields["date_of_birth"]),
		ProjectedNPV:   orSentinel(fields["npv"]),
		CompetingOffer: orSentinel(fields["competing_offer"]),
		Status:         model.StatusNew,
		Priority:       parsePriority(fields["priority"]),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivity:   now,
	}

	lead.Phones = []model.PhoneNumber{{Number: orSentinel(fields["phone"]), Primary: true}}
	if p2 := fields["phone2"]; p2 != "" {
		lead.Phones = append(lead.Phones, model.PhoneNumber{Number: p2})
	}

	if len(extra) > 0 {
		lead.AdditionalFields = extra
	}

	return lead, true
}

// canonKey lowercases a header and strips spaces, underscores, and dashes so
// "Client Name", "client_name", and "ClientName" all match.
func canonKey(col string) string {
	col = strings.ToLower(strings.TrimSpace(col))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '#':
			return -1
		}
		return r
	}, col)
}

func orSentinel(v string) string {
	if v == "" {
		return model.NotAvailable
	}
	return v
}

func parsePriority(v string) model.LeadPriority {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "high":
		return model.PriorityHigh
	case "low":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}
