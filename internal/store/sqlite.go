package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-router/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Leads and audit
// records are stored as JSON documents with indexed routing columns
// alongside, so filters stay cheap without a full relational schema.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id          TEXT PRIMARY KEY,
	campaign    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'new',
	assigned_to TEXT NOT NULL DEFAULT '',
	data        TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS enrichment_history (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL,
	entry      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS assignment_events (
	id         TEXT PRIMARY KEY,
	topic      TEXT NOT NULL,
	event      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_assigned_to ON leads(assigned_to);
CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign);
CREATE INDEX IF NOT EXISTS idx_history_lead_id ON enrichment_history(lead_id);
CREATE INDEX IF NOT EXISTS idx_events_topic ON assignment_events(topic);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save leads")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO leads (id, campaign, status, assigned_to, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			campaign = excluded.campaign,
			status = excluded.status,
			assigned_to = excluded.assigned_to,
			data = excluded.data,
			updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare save leads")
	}
	defer stmt.Close()

	for _, lead := range leads {
		data, err := json.Marshal(lead)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal lead %s", lead.ID)
		}
		if _, err := stmt.ExecContext(ctx, lead.ID, lead.Campaign, string(lead.Status), lead.AssignedTo, string(data), lead.CreatedAt, lead.UpdatedAt); err != nil {
			return eris.Wrapf(err, "sqlite: save lead %s", lead.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save leads")
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM leads WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "lead %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}

	var lead model.Lead
	if err := json.Unmarshal([]byte(data), &lead); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal lead %s", id)
	}
	return &lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.AssignedTo != "" {
		query += ` AND assigned_to = ?`
		args = append(args, filter.AssignedTo)
	}
	if filter.Campaign != "" {
		query += ` AND campaign = ?`
		args = append(args, filter.Campaign)
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal([]byte(data), &lead); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

func (s *SQLiteStore) UpdateAssignment(ctx context.Context, leadID, repID string, status model.LeadStatus) error {
	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	lead.AssignedTo = repID
	lead.Status = status
	lead.UpdatedAt = now
	lead.LastActivity = now
	if lead.AssignedAt == nil {
		lead.AssignedAt = &now
	}

	return s.SaveLeads(ctx, []model.Lead{*lead})
}

func (s *SQLiteStore) AppendHistory(ctx context.Context, entry model.EnrichmentHistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal history entry")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enrichment_history (id, lead_id, entry, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.LeadID, string(data), entry.Timestamp,
	)
	return eris.Wrap(err, "sqlite: append history")
}

func (s *SQLiteStore) ListHistory(ctx context.Context, leadID string) ([]model.EnrichmentHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry FROM enrichment_history WHERE lead_id = ? ORDER BY created_at, id`, leadID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list history")
	}
	defer rows.Close()

	var entries []model.EnrichmentHistoryEntry
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history entry")
		}
		var entry model.EnrichmentHistoryEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal history entry")
		}
		entries = append(entries, entry)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate history")
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, topic string, event model.AssignmentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal event")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assignment_events (id, topic, event, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), topic, string(data), event.Timestamp,
	)
	return eris.Wrap(err, "sqlite: record event")
}
