package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-router/internal/db"
	"github.com/sells-group/lead-router/internal/model"
)

// PoolConfig tunes the pgx connection pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// PostgresStore implements Store on top of a pgx pool. The schema mirrors
// the SQLite driver: a JSONB document per lead with indexed routing columns.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to PostgreSQL and returns a store backed by a
// pgxpool. cfg may be nil to accept the defaults.
func NewPostgres(ctx context.Context, connString string, cfg *PoolConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse conn string")
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	if cfg != nil {
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			poolCfg.MinConns = cfg.MinConns
		}
	}
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id          TEXT PRIMARY KEY,
	campaign    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'new',
	assigned_to TEXT NOT NULL DEFAULT '',
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_history (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL,
	entry      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assignment_events (
	id         TEXT PRIMARY KEY,
	topic      TEXT NOT NULL,
	event      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_assigned_to ON leads(assigned_to);
CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign);
CREATE INDEX IF NOT EXISTS idx_history_lead_id ON enrichment_history(lead_id);
CREATE INDEX IF NOT EXISTS idx_events_topic ON assignment_events(topic);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const upsertLeadSQL = `
	INSERT INTO leads (id, campaign, status, assigned_to, data, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		campaign = EXCLUDED.campaign,
		status = EXCLUDED.status,
		assigned_to = EXCLUDED.assigned_to,
		data = EXCLUDED.data,
		updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) SaveLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save leads")
	}
	defer tx.Rollback(ctx)

	for _, lead := range leads {
		data, err := json.Marshal(lead)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal lead %s", lead.ID)
		}
		_, err = tx.Exec(ctx, upsertLeadSQL,
			lead.ID, lead.Campaign, string(lead.Status), lead.AssignedTo, data, lead.CreatedAt, lead.UpdatedAt)
		if err != nil {
			return eris.Wrapf(err, "postgres: save lead %s", lead.ID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit save leads")
}

// CopyLeads bulk-inserts brand-new leads with the COPY protocol. Unlike
// SaveLeads it does not upsert, so callers use it for fresh imports only.
func (s *PostgresStore) CopyLeads(ctx context.Context, leads []model.Lead) (int64, error) {
	rows := make([][]any, 0, len(leads))
	for _, lead := range leads {
		data, err := json.Marshal(lead)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal lead %s", lead.ID)
		}
		rows = append(rows, []any{
			lead.ID, lead.Campaign, string(lead.Status), lead.AssignedTo, data, lead.CreatedAt, lead.UpdatedAt,
		})
	}
	columns := []string{"id", "campaign", "status", "assigned_to", "data", "created_at", "updated_at"}
	return db.CopyFrom(ctx, s.pool, "leads", columns, rows)
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM leads WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "lead %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}

	var lead model.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal lead %s", id)
	}
	return &lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		query += ` AND assigned_to = $` + strconv.Itoa(len(args))
	}
	if filter.Campaign != "" {
		args = append(args, filter.Campaign)
		query += ` AND campaign = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += ` OFFSET $` + strconv.Itoa(len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal(data, &lead); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

func (s *PostgresStore) UpdateAssignment(ctx context.Context, leadID, repID string, status model.LeadStatus) error {
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

func (s *PostgresStore) AppendHistory(ctx context.Context, entry model.EnrichmentHistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal history entry")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO enrichment_history (id, lead_id, entry, created_at) VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.LeadID, data, entry.Timestamp,
	)
	return eris.Wrap(err, "postgres: append history")
}

func (s *PostgresStore) ListHistory(ctx context.Context, leadID string) ([]model.EnrichmentHistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entry FROM enrichment_history WHERE lead_id = $1 ORDER BY created_at, id`, leadID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list history")
	}
	defer rows.Close()

	var entries []model.EnrichmentHistoryEntry
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history entry")
		}
		var entry model.EnrichmentHistoryEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal history entry")
		}
		entries = append(entries, entry)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: iterate history")
}

func (s *PostgresStore) RecordEvent(ctx context.Context, topic string, event model.AssignmentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal event")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assignment_events (id, topic, event, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), topic, data, event.Timestamp,
	)
	return eris.Wrap(err, "postgres: record event")
}
