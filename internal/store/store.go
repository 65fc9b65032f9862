package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-router/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status     model.LeadStatus `json:"status,omitempty"`
	AssignedTo string           `json:"assigned_to,omitempty"`
	Campaign   string           `json:"campaign,omitempty"`
	Limit      int              `json:"limit,omitempty"`
	Offset     int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the lead pipeline. The core
// runs fully in memory; the store mirrors leads, the enrichment audit
// trail, and assignment events for operators and restarts.
type Store interface {
	// Leads
	SaveLeads(ctx context.Context, leads []model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateAssignment(ctx context.Context, leadID, repID string, status model.LeadStatus) error

	// Enrichment history (append-only)
	AppendHistory(ctx context.Context, entry model.EnrichmentHistoryEntry) error
	ListHistory(ctx context.Context, leadID string) ([]model.EnrichmentHistoryEntry, error)

	// Assignment events (append-only)
	RecordEvent(ctx context.Context, topic string, event model.AssignmentEvent) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
