package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-router/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func testLead(id, name string) model.Lead {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return model.Lead{
		ID:       id,
		Name:     name,
		Campaign: "spring-mailer",
		Phones: []model.PhoneNumber{
			{Number: "(555) 010-2000", Type: model.PhoneMobile, Primary: true},
		},
		Settlement: model.Settlement{
			MonthlyPayment:   "1200",
			InsuranceCompany: "MetLife",
		},
		Status:       model.StatusNew,
		Priority:     model.PriorityMedium,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActivity: now,
	}
}

func TestSQLiteSaveGetRoundtrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	lead := testLead("l1", "Jane Roe")
	lead.AdditionalFields = map[string]string{"source": "referral"}
	require.NoError(t, s.SaveLeads(ctx, []model.Lead{lead}))

	got, err := s.GetLead(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, lead, *got)
}

func TestSQLiteGetLeadNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetLead(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteSaveLeadsUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	lead := testLead("l1", "Jane Roe")
	require.NoError(t, s.SaveLeads(ctx, []model.Lead{lead}))

	lead.Name = "Jane Roe-Smith"
	lead.Status = model.StatusQualified
	require.NoError(t, s.SaveLeads(ctx, []model.Lead{lead}))

	got, err := s.GetLead(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe-Smith", got.Name)
	assert.Equal(t, model.StatusQualified, got.Status)

	leads, err := s.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestSQLiteListLeadsFilters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := testLead("l1", "Jane Roe")
	b := testLead("l2", "John Doe")
	b.Status = model.StatusAssigned
	b.AssignedTo = "rep-east"
	c := testLead("l3", "Ann Poe")
	c.Campaign = "radio-q2"
	require.NoError(t, s.SaveLeads(ctx, []model.Lead{a, b, c}))

	byStatus, err := s.ListLeads(ctx, LeadFilter{Status: model.StatusAssigned})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "l2", byStatus[0].ID)

	byRep, err := s.ListLeads(ctx, LeadFilter{AssignedTo: "rep-east"})
	require.NoError(t, err)
	require.Len(t, byRep, 1)
	assert.Equal(t, "l2", byRep[0].ID)

	byCampaign, err := s.ListLeads(ctx, LeadFilter{Campaign: "spring-mailer"})
	require.NoError(t, err)
	assert.Len(t, byCampaign, 2)

	all, err := s.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteListLeadsLimitOffset(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var leads []model.Lead
	for i, id := range []string{"l1", "l2", "l3", "l4"} {
		lead := testLead(id, "Lead "+id)
		lead.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		leads = append(leads, lead)
	}
	require.NoError(t, s.SaveLeads(ctx, leads))

	page, err := s.ListLeads(ctx, LeadFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "l2", page[0].ID)
	assert.Equal(t, "l3", page[1].ID)
}

func TestSQLiteUpdateAssignment(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveLeads(ctx, []model.Lead{testLead("l1", "Jane Roe")}))
	require.NoError(t, s.UpdateAssignment(ctx, "l1", "rep-east", model.StatusAssigned))

	got, err := s.GetLead(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "rep-east", got.AssignedTo)
	assert.Equal(t, model.StatusAssigned, got.Status)
	require.NotNil(t, got.AssignedAt)

	// The indexed column must track the JSON document.
	byRep, err := s.ListLeads(ctx, LeadFilter{AssignedTo: "rep-east"})
	require.NoError(t, err)
	assert.Len(t, byRep, 1)

	err = s.UpdateAssignment(ctx, "missing", "rep-east", model.StatusAssigned)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteHistoryAppendOnly(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := model.EnrichmentHistoryEntry{
		ID:        "h1",
		LeadID:    "l1",
		LeadName:  "Jane Roe",
		Actor:     "importer",
		Timestamp: base,
		Changes:   []model.FieldChange{{Field: "name", Previous: "jane roe", New: "Jane Roe"}},
	}
	second := model.EnrichmentHistoryEntry{
		ID:        "h2",
		LeadID:    "l1",
		LeadName:  "Jane Roe",
		Actor:     "importer",
		Timestamp: base.Add(time.Minute),
		Changes:   []model.FieldChange{{Field: "status", Previous: "new", New: "assigned"}},
		RevertOf:  "h1",
	}
	require.NoError(t, s.AppendHistory(ctx, first))
	require.NoError(t, s.AppendHistory(ctx, second))
	require.NoError(t, s.AppendHistory(ctx, model.EnrichmentHistoryEntry{
		ID: "h3", LeadID: "l2", Timestamp: base,
	}))

	entries, err := s.ListHistory(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0])
	assert.Equal(t, second, entries[1])

	none, err := s.ListHistory(ctx, "l9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteRecordEvent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	event := model.AssignmentEvent{
		LeadID:    "l1",
		RepID:     "rep-east",
		RuleID:    "r1",
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, s.RecordEvent(ctx, model.TopicNewAssignment, event))
	assert.NoError(t, s.RecordEvent(ctx, model.TopicReassignment, event))
}
