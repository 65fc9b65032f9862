// Package enrich completes validated leads: representation normalization,
// status progression, scoring, and the append-only enrichment audit trail.
package enrich

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/model"
)

// Sink receives every appended history entry, e.g. to mirror it into the
// store. Called synchronously after the in-memory append.
type Sink func(entry model.EnrichmentHistoryEntry)

// Enricher applies field-level completion to leads. Every successful
// enrichment appends exactly one history entry; the log is append-only and
// reverts are compensating appends, never edits.
type Enricher struct {
	mu      sync.Mutex
	actor   string
	now     func() time.Time
	history []model.EnrichmentHistoryEntry
	sink    Sink
}

// NewEnricher creates an Enricher that attributes entries to actor.
func NewEnricher(actor string) *Enricher {
	return &Enricher{actor: actor, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (e *Enricher) WithNow(now func() time.Time) *Enricher {
	e.now = now
	return e
}

// WithSink attaches a history mirror.
func (e *Enricher) WithSink(sink Sink) *Enricher {
	e.sink = sink
	return e
}

// completeLead applies representation normalization and status progression
// in place, returning one change record per field actually touched.
// Un-normalizable values stay as they were.
func completeLead(out *model.Lead) []model.FieldChange {
	var changes []model.FieldChange

	if normalized := TitleCaseName(out.Name); normalized != out.Name {
		changes = append(changes, model.FieldChange{Field: "name", Previous: out.Name, New: normalized})
		out.Name = normalized
	}

	if out.Status == model.StatusNew {
		changes = append(changes, model.FieldChange{Field: "status", Previous: string(out.Status), New: string(model.StatusAssigned)})
		out.Status = model.StatusAssigned
	}

	if prev, next := joinNumbers(out.Phones), formatPhones(out.Phones); next != prev {
		changes = append(changes, model.FieldChange{Field: "phones", Previous: prev, New: next})
		for i := range out.Phones {
			out.Phones[i].Number = FormatPhone(out.Phones[i].Number)
		}
	}

	for _, d := range []struct {
		field string
		ptr   *string
	}{
		{"date_of_birth", &out.DateOfBirth},
		{"start_date", &out.Settlement.StartDate},
		{"end_date", &out.Settlement.EndDate},
	} {
		if canon := CanonicalDate(*d.ptr); canon != *d.ptr {
			changes = append(changes, model.FieldChange{Field: d.field, Previous: *d.ptr, New: canon})
			*d.ptr = canon
		}
	}

	return changes
}

// stamp marks the lead as processed at now. The assignment timestamp is set
// once; later enrichments never move it.
func stamp(out *model.Lead, now time.Time) {
	out.UpdatedAt = now
	out.LastActivity = now
	if out.AssignedAt == nil {
		at := now
		out.AssignedAt = &at
	}
	out.Processed = true
}

// EnrichOne completes a single lead: status new→assigned (enrichment is
// acceptance into active processing), timestamp stamping, and representation
// normalization. Always appends exactly one history entry listing only the
// fields actually changed.
func (e *Enricher) EnrichOne(lead model.Lead) (model.Lead, model.EnrichmentHistoryEntry, error) {
	out := cloneLead(lead)
	changes := completeLead(&out)
	stamp(&out, e.now())

	entry := e.append(out, changes, "")
	return out, entry, nil
}

// EnrichBatch runs the same completion pass as EnrichOne on every lead,
// then applies the non-empty overrides. An empty override value never
// erases a field by omission. A lead whose enrichment panics is logged and
// passed through unmodified; the batch continues. Leads the pass leaves
// untouched append nothing to the history.
func (e *Enricher) EnrichBatch(leads []model.Lead, overrides map[string]string) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		enriched, err := e.enrichLead(lead, overrides)
		if err != nil {
			zap.L().Error("enrich: lead failed, substituting original",
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
			out = append(out, lead)
			continue
		}
		out = append(out, enriched)
	}
	return out
}

func (e *Enricher) enrichLead(lead model.Lead, overrides map[string]string) (enriched model.Lead, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("enrich: panic enriching lead: %v", r)
		}
	}()

	out := cloneLead(lead)
	changes := completeLead(&out)

	for _, field := range sortedKeys(overrides) {
		value := overrides[field]
		if strings.TrimSpace(value) == "" {
			continue
		}
		prev, _ := getField(&out, field)
		if prev == value {
			continue
		}
		setField(&out, field, value)
		changes = append(changes, model.FieldChange{Field: field, Previous: prev, New: value})
	}

	stamp(&out, e.now())

	// A pass that changed nothing leaves no trace in the audit trail.
	if len(changes) > 0 {
		e.append(out, changes, "")
	}
	return out, nil
}

// Revert applies the previous values of an earlier entry back onto lead and
// appends a compensating entry. The original entry is never mutated.
func (e *Enricher) Revert(lead model.Lead, entryID string) (model.Lead, model.EnrichmentHistoryEntry, error) {
	e.mu.Lock()
	var target *model.EnrichmentHistoryEntry
	for i := range e.history {
		if e.history[i].ID == entryID {
			target = &e.history[i]
			break
		}
	}
	e.mu.Unlock()

	if target == nil {
		return lead, model.EnrichmentHistoryEntry{}, eris.Errorf("enrich: history entry %s not found", entryID)
	}
	if target.LeadID != lead.ID {
		return lead, model.EnrichmentHistoryEntry{}, eris.Errorf("enrich: entry %s belongs to lead %s", entryID, target.LeadID)
	}

	out := cloneLead(lead)
	compensating := make([]model.FieldChange, 0, len(target.Changes))
	for _, c := range target.Changes {
		current, _ := getField(&out, c.Field)
		setField(&out, c.Field, c.Previous)
		compensating = append(compensating, model.FieldChange{Field: c.Field, Previous: current, New: c.Previous})
	}
	out.UpdatedAt = e.now()

	entry := e.append(out, compensating, entryID)
	return out, entry, nil
}

// History returns a copy of the full audit log, in append order.
func (e *Enricher) History() []model.EnrichmentHistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.EnrichmentHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// HistoryFor returns the entries describing one lead, in append order.
func (e *Enricher) HistoryFor(leadID string) []model.EnrichmentHistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.EnrichmentHistoryEntry
	for _, entry := range e.history {
		if entry.LeadID == leadID {
			out = append(out, entry)
		}
	}
	return out
}

func (e *Enricher) append(lead model.Lead, changes []model.FieldChange, revertOf string) model.EnrichmentHistoryEntry {
	entry := model.EnrichmentHistoryEntry{
		ID:        uuid.NewString(),
		LeadID:    lead.ID,
		LeadName:  lead.Name,
		Actor:     e.actor,
		Timestamp: e.now(),
		Changes:   changes,
		RevertOf:  revertOf,
	}

	e.mu.Lock()
	e.history = append(e.history, entry)
	e.mu.Unlock()

	if e.sink != nil {
		e.sink(entry)
	}
	return entry
}

func cloneLead(l model.Lead) model.Lead {
	out := l
	out.Phones = make([]model.PhoneNumber, len(l.Phones))
	copy(out.Phones, l.Phones)
	if l.AdditionalFields != nil {
		out.AdditionalFields = make(map[string]string, len(l.AdditionalFields))
		for k, v := range l.AdditionalFields {
			out.AdditionalFields[k] = v
		}
	}
	return out
}

func joinNumbers(phones []model.PhoneNumber) string {
	nums := make([]string, 0, len(phones))
	for _, p := range phones {
		nums = append(nums, p.Number)
	}
	return strings.Join(nums, ", ")
}

func formatPhones(phones []model.PhoneNumber) string {
	nums := make([]string, 0, len(phones))
	for _, p := range phones {
		nums = append(nums, FormatPhone(p.Number))
	}
	return strings.Join(nums, ", ")
}
