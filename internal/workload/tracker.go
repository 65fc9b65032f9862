// Package workload derives per-representative load from the lead collection.
// Everything here is a pure projection: recomputing is always safe and there
// is no counter that can drift from the leads themselves.
package workload

import (
	"sort"

	"github.com/sells-group/lead-router/internal/model"
)

// Snapshot projects the current workload of every representative in reps
// from the given lead collection. Output order follows reps.
func Snapshot(reps []model.SalesRepresentative, leads []model.Lead) []model.RepWorkload {
	byRep := make(map[string][]model.Lead)
	for _, l := range leads {
		if l.AssignedTo != "" {
			byRep[l.AssignedTo] = append(byRep[l.AssignedTo], l)
		}
	}

	out := make([]model.RepWorkload, 0, len(reps))
	for _, r := range reps {
		out = append(out, project(r, byRep[r.ID]))
	}
	return out
}

// ForRep projects the workload of a single representative.
func ForRep(rep model.SalesRepresentative, leads []model.Lead) model.RepWorkload {
	var assigned []model.Lead
	for _, l := range leads {
		if l.AssignedTo == rep.ID {
			assigned = append(assigned, l)
		}
	}
	return project(rep, assigned)
}

// Pick returns the active representative with the lowest workload score
// among those under capacity. Ties break on representative id so selection
// is deterministic. ok is false when nobody has spare capacity.
func Pick(reps []model.SalesRepresentative, leads []model.Lead) (string, bool) {
	snaps := Snapshot(reps, leads)

	active := make(map[string]bool, len(reps))
	for _, r := range reps {
		active[r.ID] = r.Active
	}

	var candidates []model.RepWorkload
	for _, w := range snaps {
		if active[w.RepID] && w.HasCapacity() {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score < candidates[j].Score
		}
		return candidates[i].RepID < candidates[j].RepID
	})
	return candidates[0].RepID, true
}

func project(rep model.SalesRepresentative, assigned []model.Lead) model.RepWorkload {
	w := model.RepWorkload{
		RepID:      rep.ID,
		TotalLeads: len(assigned),
		MaxLeads:   rep.MaxLeads,
	}

	for _, l := range assigned {
		switch l.Status {
		case model.StatusAssigned, model.StatusInProgress:
			w.ActiveLeads++
		case model.StatusClosed:
			w.CompletedLeads++
		}
	}

	if rep.MaxLeads > 0 {
		w.CapacityUsedRatio = float64(w.TotalLeads) / float64(rep.MaxLeads)
	}

	w.Score = w.CapacityUsedRatio
	if w.Score > 1 {
		w.Score = 1
	}
	if !rep.Active || rep.MaxLeads <= 0 {
		// Inactive or misconfigured reps always rank last.
		w.Score = 1
	}
	return w
}
