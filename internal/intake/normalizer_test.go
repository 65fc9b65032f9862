package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestNormalizeRow_HeterogeneousHeaders(t *testing.T) {
	n := NewNormalizer().WithNow(fixedNow)

	row := RawRow{Index: 0, Values: map[string]string{
		"Client Name":       "jane roe",
		"PHONE_NUMBER":      "5551110000",
		"Monthly Payment":   "1200",
		"insurance-company": "Acme Life",
		"Priority":          "High",
	}}

	lead, ok := n.NormalizeRow(row, "spring-2026")
	require.True(t, ok)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "jane roe", lead.Name)
	assert.Equal(t, "spring-2026", lead.Campaign)
	assert.Equal(t, "1200", lead.Settlement.MonthlyPayment)
	assert.Equal(t, "Acme Life", lead.Settlement.InsuranceCompany)
	assert.Equal(t, model.PriorityHigh, lead.Priority)
	assert.Equal(t, model.StatusNew, lead.Status)
	assert.Equal(t, fixedNow(), lead.CreatedAt)

	require.Len(t, lead.Phones, 1)
	assert.Equal(t, "5551110000", lead.Phones[0].Number)
	assert.True(t, lead.Phones[0].Primary)
}

func TestNormalizeRow_MissingValuesGetSentinel(t *testing.T) {
	n := NewNormalizer().WithNow(fixedNow)

	lead, ok := n.NormalizeRow(RawRow{Values: map[string]string{"name": "John Doe"}}, "c1")
	require.True(t, ok)

	assert.Equal(t, model.NotAvailable, lead.CRMID)
	assert.Equal(t, model.NotAvailable, lead.TaxID)
	assert.Equal(t, model.NotAvailable, lead.DateOfBirth)
	assert.Equal(t, model.NotAvailable, lead.Settlement.MonthlyPayment)
	require.Len(t, lead.Phones, 1)
	assert.Equal(t, model.NotAvailable, lead.Phones[0].Number)
}

func TestNormalizeRow_ExtraColumnsPreserved(t *testing.T) {
	n := NewNormalizer().WithNow(fixedNow)

	lead, ok := n.NormalizeRow(RawRow{Values: map[string]string{
		"name":          "John Doe",
		"Referral Code": "XK-22",
		"Empty Extra":   "",
	}}, "c1")
	require.True(t, ok)

	assert.Equal(t, map[string]string{"Referral Code": "XK-22"}, lead.AdditionalFields)
}

func TestNormalizeRow_SecondaryPhone(t *testing.T) {
	n := NewNormalizer().WithNow(fixedNow)

	lead, ok := n.NormalizeRow(RawRow{Values: map[string]string{
		"name":   "John Doe",
		"phone1": "5551110000",
		"phone2": "5552220000",
	}}, "c1")
	require.True(t, ok)

	require.Len(t, lead.Phones, 2)
	assert.True(t, lead.Phones[0].Primary)
	assert.False(t, lead.Phones[1].Primary)
	assert.Equal(t, "5552220000", lead.Phones[1].Number)
}

func TestNormalize_SkipsUnmappableRows(t *testing.T) {
	n := NewNormalizer().WithNow(fixedNow)

	rows := []RawRow{
		{Index: 0, Values: map[string]string{"name": "John Doe"}},
		{Index: 1, Values: map[string]string{"Notes": "no identity here"}},
		{Index: 2, Values: map[string]string{"phone": "5551110000"}},
	}

	leads, skipped := n.Normalize(rows, "c1")
	assert.Len(t, leads, 2)
	assert.Equal(t, 1, skipped)
}

func TestFromStrings_PadsShortRows(t *testing.T) {
	header := []string{"name", "phone", "tax id"}
	rows := [][]string{
		{"John Doe", "5551110000", "123-45-6789"},
		{"Jane Roe"},
	}

	raw := FromStrings(header, rows)
	require.Len(t, raw, 2)
	assert.Equal(t, "123-45-6789", raw[0].Values["tax id"])
	assert.Equal(t, "", raw[1].Values["phone"])
	assert.Equal(t, 1, raw[1].Index)
}

func TestParsePriority_DefaultsToMedium(t *testing.T) {
	assert.Equal(t, model.PriorityMedium, parsePriority(""))
	assert.Equal(t, model.PriorityMedium, parsePriority("urgent"))
	assert.Equal(t, model.PriorityHigh, parsePriority(" HIGH "))
	assert.Equal(t, model.PriorityLow, parsePriority("low"))
}
