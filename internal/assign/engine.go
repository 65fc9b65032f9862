// Package assign routes validated leads to sales representatives. Rules are
// evaluated first-match-wins in explicit order; when no rule lands the
// engine falls back to workload-based selection, then to a fixed default
// target, so every evaluation produces a representative.
package assign

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/cache"
	"github.com/sells-group/lead-router/internal/model"
	"github.com/sells-group/lead-router/internal/notify"
	"github.com/sells-group/lead-router/internal/workload"
)

// FallbackRuleID marks assignments produced by workload selection or the
// default target rather than a configured rule.
const FallbackRuleID = "fallback"

// workloadPrefix namespaces workload snapshots in the shared cache.
const workloadPrefix = "workload:"

// Assignment failure causes. Callers branch on these; bulk operations
// record them per pair.
var (
	ErrLeadNotFound  = eris.New("assign: lead not found")
	ErrRepNotFound   = eris.New("assign: representative not found")
	ErrRepInactive   = eris.New("assign: representative inactive")
	ErrRepAtCapacity = eris.New("assign: representative at capacity")
)

// Pair is one (lead, representative) request inside a bulk assignment.
type Pair struct {
	LeadID string `json:"lead_id" yaml:"lead_id"`
	RepID  string `json:"rep_id" yaml:"rep_id"`
}

// BulkResult separates succeeded from failed lead ids. Pairs are applied
// independently; a failure never rolls back or blocks its siblings.
type BulkResult struct {
	Success []string          `json:"success"`
	Failed  []string          `json:"failed"`
	Causes  map[string]string `json:"causes,omitempty"`
}

// Engine owns the lead collection during assignment and serializes every
// mutate-and-publish step behind one mutex, so events are never reordered
// relative to the mutation they describe. Notifier handlers run inside
// that critical section and must not call back into the engine.
type Engine struct {
	mu         sync.Mutex
	leads      map[string]*model.Lead
	order      []string
	reps       []model.SalesRepresentative
	rules      []model.AssignmentRule
	notifier   *notify.Notifier
	cache      *cache.Cache
	defaultRep string
	now        func() time.Time
}

// NewEngine validates the configuration and builds an engine. A missing
// default representative or an unknown rule kind is a configuration error
// here, never a mid-evaluation failure.
func NewEngine(reps []model.SalesRepresentative, rules []model.AssignmentRule, notifier *notify.Notifier, defaultRep string) (*Engine, error) {
	if defaultRep == "" {
		return nil, eris.New("assign: default representative is required")
	}
	if notifier == nil {
		return nil, eris.New("assign: notifier is required")
	}
	for _, r := range rules {
		if !model.KnownRuleKind(r.Kind) {
			return nil, eris.Errorf("assign: rule %s has unknown kind %q", r.ID, r.Kind)
		}
	}

	return &Engine{
		leads:      make(map[string]*model.Lead),
		reps:       reps,
		rules:      rules,
		notifier:   notifier,
		defaultRep: defaultRep,
		now:        time.Now,
	}, nil
}

// WithNow sets a fixed clock for testing.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithCache attaches a workload snapshot cache, invalidated on every
// assignment under the "workload:" prefix.
func (e *Engine) WithCache(c *cache.Cache) *Engine {
	e.cache = c
	return e
}

// AddLeads registers leads with the engine, keyed by id. Re-adding an id
// replaces the stored lead.
func (e *Engine) AddLeads(leads ...model.Lead) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range leads {
		lead := l
		if _, exists := e.leads[lead.ID]; !exists {
			e.order = append(e.order, lead.ID)
		}
		e.leads[lead.ID] = &lead
	}
}

// Lead returns a copy of the stored lead.
func (e *Engine) Lead(id string) (model.Lead, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.leads[id]
	if !ok {
		return model.Lead{}, false
	}
	return *l, true
}

// Leads returns copies of all stored leads in insertion order.
func (e *Engine) Leads() []model.Lead {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leadsLocked()
}

func (e *Engine) leadsLocked() []model.Lead {
	out := make([]model.Lead, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.leads[id])
	}
	return out
}

// Evaluate picks a target representative for lead. Pure: same rule set,
// roster, and lead collection always yield the same target. The returned
// rule id is FallbackRuleID when workload selection or the default target
// decided.
func (e *Engine) Evaluate(lead model.Lead) (repID, ruleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluateLocked(lead)
}

func (e *Engine) evaluateLocked(lead model.Lead) (string, string) {
	for _, rule := range sortedActiveRules(e.rules) {
		if !ruleMatches(rule, lead) {
			continue
		}
		if e.repAvailableLocked(rule.TargetID) {
			return rule.TargetID, rule.ID
		}
		// Matched target unavailable: workload fallback, not next rule.
		break
	}

	if id, ok := workload.Pick(e.reps, e.leadsLocked()); ok {
		return id, FallbackRuleID
	}
	return e.defaultRep, FallbackRuleID
}

// Assign routes one lead to one representative and publishes the event
// before returning. The default representative is always assignable (it is
// the overflow queue, not a roster member); any other target must exist,
// be active, and have spare capacity.
func (e *Engine) Assign(leadID, repID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assignLocked(leadID, repID, "")
}

// AutoAssign evaluates the rule set for the lead and assigns the result.
func (e *Engine) AutoAssign(leadID string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lead, ok := e.leads[leadID]
	if !ok {
		return "", eris.Wrapf(ErrLeadNotFound, "lead %s", leadID)
	}

	repID, ruleID := e.evaluateLocked(*lead)
	if err := e.assignLocked(leadID, repID, ruleID); err != nil {
		return "", err
	}
	return repID, nil
}

// Sweep auto-assigns every unassigned lead in insertion order and returns
// the number assigned.
func (e *Engine) Sweep() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	assigned := 0
	for _, id := range e.order {
		if e.leads[id].AssignedTo != "" {
			continue
		}
		repID, ruleID := e.evaluateLocked(*e.leads[id])
		if err := e.assignLocked(id, repID, ruleID); err != nil {
			zap.L().Warn("assign: sweep skipped lead",
				zap.String("lead_id", id),
				zap.Error(err),
			)
			continue
		}
		assigned++
	}
	return assigned
}

// BulkAssign applies each pair independently. The result separates
// succeeded lead ids from failed ones, with a cause per failure.
func (e *Engine) BulkAssign(pairs []Pair) BulkResult {
	result := BulkResult{
		Success: make([]string, 0, len(pairs)),
		Failed:  make([]string, 0),
		Causes:  make(map[string]string),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range pairs {
		if err := e.assignLocked(p.LeadID, p.RepID, ""); err != nil {
			result.Failed = append(result.Failed, p.LeadID)
			result.Causes[p.LeadID] = eris.Cause(err).Error()
			zap.L().Warn("assign: bulk pair failed",
				zap.String("lead_id", p.LeadID),
				zap.String("rep_id", p.RepID),
				zap.Error(err),
			)
			continue
		}
		result.Success = append(result.Success, p.LeadID)
	}
	return result
}

func (e *Engine) assignLocked(leadID, repID, ruleID string) error {
	lead, ok := e.leads[leadID]
	if !ok {
		return eris.Wrapf(ErrLeadNotFound, "lead %s", leadID)
	}

	if repID != e.defaultRep {
		rep, ok := e.repLocked(repID)
		if !ok {
			return eris.Wrapf(ErrRepNotFound, "rep %s", repID)
		}
		if !rep.Active {
			return eris.Wrapf(ErrRepInactive, "rep %s", repID)
		}
		if lead.AssignedTo != repID && !e.repHasCapacityLocked(rep) {
			return eris.Wrapf(ErrRepAtCapacity, "rep %s", repID)
		}
	}

	previous := lead.AssignedTo
	now := e.now()

	lead.AssignedTo = repID
	lead.Status = model.StatusAssigned
	lead.UpdatedAt = now
	lead.LastActivity = now
	if lead.AssignedAt == nil {
		at := now
		lead.AssignedAt = &at
	}

	if e.cache != nil {
		e.cache.InvalidatePrefix(workloadPrefix)
	}

	if ruleID == "" {
		ruleID = FallbackRuleID
	}
	topic := model.TopicNewAssignment
	if previous != "" {
		topic = model.TopicReassignment
	}
	e.notifier.Publish(topic, model.AssignmentEvent{
		LeadID:      leadID,
		RepID:       repID,
		PreviousRep: previous,
		RuleID:      ruleID,
		Timestamp:   now,
	})

	zap.L().Info("assign: lead routed",
		zap.String("lead_id", leadID),
		zap.String("rep_id", repID),
		zap.String("rule_id", ruleID),
		zap.String("previous_rep", previous),
	)
	return nil
}

// Workload projects the named representative's current load. Snapshots are
// memoized in the cache until the next assignment.
func (e *Engine) Workload(repID string) (model.RepWorkload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cache != nil {
		if v, ok := e.cache.Get(workloadPrefix + repID); ok {
			return v.(model.RepWorkload), nil
		}
	}

	rep, ok := e.repLocked(repID)
	if !ok {
		return model.RepWorkload{}, eris.Wrapf(ErrRepNotFound, "rep %s", repID)
	}

	w := workload.ForRep(rep, e.leadsLocked())
	if e.cache != nil {
		e.cache.Set(workloadPrefix+repID, w)
	}
	return w, nil
}

func (e *Engine) repLocked(id string) (model.SalesRepresentative, bool) {
	for _, r := range e.reps {
		if r.ID == id {
			return r, true
		}
	}
	return model.SalesRepresentative{}, false
}

func (e *Engine) repAvailableLocked(id string) bool {
	// The default target is the overflow queue, always assignable; the
	// same bypass assignLocked applies.
	if id == e.defaultRep {
		return true
	}
	rep, ok := e.repLocked(id)
	return ok && rep.Active && e.repHasCapacityLocked(rep)
}

func (e *Engine) repHasCapacityLocked(rep model.SalesRepresentative) bool {
	if rep.MaxLeads <= 0 {
		return false
	}
	count := 0
	for _, l := range e.leads {
		if l.AssignedTo == rep.ID {
			count++
		}
	}
	return count < rep.MaxLeads
}
