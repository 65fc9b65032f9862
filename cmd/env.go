package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/assign"
	"github.com/sells-group/lead-router/internal/cache"
	"github.com/sells-group/lead-router/internal/config"
	"github.com/sells-group/lead-router/internal/enrich"
	"github.com/sells-group/lead-router/internal/model"
	"github.com/sells-group/lead-router/internal/notify"
	"github.com/sells-group/lead-router/internal/registry"
	"github.com/sells-group/lead-router/internal/store"
)

// routerEnv bundles the wired components a command needs: the persistence
// layer, the in-memory assignment engine, and the enricher whose history
// entries mirror into the store.
type routerEnv struct {
	Store    store.Store
	Engine   *assign.Engine
	Notifier *notify.Notifier
	Cache    *cache.Cache
	Enricher *enrich.Enricher
	Reps     []model.SalesRepresentative
	Rules    []model.AssignmentRule
}

func (e *routerEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leads.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initRouter builds the full environment: store (migrated), rules and
// roster from their config paths, notifier with store-backed subscribers,
// and an engine pre-loaded with every lead already persisted.
func initRouter(ctx context.Context) (*routerEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	env, err := buildRouter(ctx, st, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	return env, nil
}

// buildRouter wires an environment around an already-open store. Split out
// from initRouter so tests can inject a temp-dir store.
func buildRouter(ctx context.Context, st store.Store, cfg *config.Config) (*routerEnv, error) {
	rules, err := registry.LoadRules(cfg.Assign.RulesPath)
	if err != nil {
		return nil, eris.Wrap(err, "load rules")
	}
	reps, err := registry.LoadRoster(cfg.Assign.RosterPath)
	if err != nil {
		return nil, eris.Wrap(err, "load roster")
	}
	zap.L().Info("registries loaded",
		zap.Int("rules", len(rules)),
		zap.Int("reps", len(reps)),
	)

	notifier := notify.New()
	recordEvent := func(topic string) notify.Handler {
		return func(event model.AssignmentEvent) {
			if err := st.RecordEvent(ctx, topic, event); err != nil {
				zap.L().Error("record assignment event failed",
					zap.String("lead", event.LeadID),
					zap.Error(err),
				)
			}
			if err := st.UpdateAssignment(ctx, event.LeadID, event.RepID, model.StatusAssigned); err != nil {
				zap.L().Error("persist assignment failed",
					zap.String("lead", event.LeadID),
					zap.Error(err),
				)
			}
		}
	}
	notifier.Subscribe(model.TopicNewAssignment, recordEvent(model.TopicNewAssignment))
	notifier.Subscribe(model.TopicReassignment, recordEvent(model.TopicReassignment))

	engine, err := assign.NewEngine(reps, rules, notifier, cfg.Assign.DefaultRep)
	if err != nil {
		return nil, eris.Wrap(err, "build engine")
	}
	c := cache.New()
	engine.WithCache(c)

	leads, err := st.ListLeads(ctx, store.LeadFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "load persisted leads")
	}
	engine.AddLeads(leads...)

	enricher := enrich.NewEnricher(cfg.Assign.Actor).WithSink(func(entry model.EnrichmentHistoryEntry) {
		if err := st.AppendHistory(ctx, entry); err != nil {
			zap.L().Error("persist history entry failed",
				zap.String("lead", entry.LeadID),
				zap.Error(err),
			)
		}
	})

	return &routerEnv{
		Store:    st,
		Engine:   engine,
		Notifier: notifier,
		Cache:    c,
		Enricher: enricher,
		Reps:     reps,
		Rules:    rules,
	}, nil
}
