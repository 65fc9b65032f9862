// Package registry loads the assignment rule set and the representative
// roster from fixture files. Both are configuration inputs: mutable by the
// operator, read-only during evaluation.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-router/internal/assign"
	"github.com/sells-group/lead-router/internal/model"
)

// LoadRules reads an assignment rule set from a YAML or JSON file (by
// extension), validates it, and returns the rules sorted by ascending order.
func LoadRules(path string) ([]model.AssignmentRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read rules file")
	}

	var rules []model.AssignmentRule
	if err := unmarshalByExt(path, data, &rules); err != nil {
		return nil, eris.Wrap(err, "registry: parse rules file")
	}

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return nil, eris.New("registry: rule with empty id")
		}
		if seen[r.ID] {
			return nil, eris.Errorf("registry: duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true
		if !model.KnownRuleKind(r.Kind) {
			return nil, eris.Errorf("registry: rule %s has unknown kind %q", r.ID, r.Kind)
		}
		if r.TargetID == "" {
			return nil, eris.Errorf("registry: rule %s has no target", r.ID)
		}
	}

	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Order < rules[j].Order })
	return rules, nil
}

// LoadRoster reads the representative roster from a YAML or JSON file.
func LoadRoster(path string) ([]model.SalesRepresentative, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read roster file")
	}

	var reps []model.SalesRepresentative
	if err := unmarshalByExt(path, data, &reps); err != nil {
		return nil, eris.Wrap(err, "registry: parse roster file")
	}

	seen := make(map[string]bool, len(reps))
	for _, r := range reps {
		if r.ID == "" {
			return nil, eris.New("registry: representative with empty id")
		}
		if seen[r.ID] {
			return nil, eris.Errorf("registry: duplicate representative id %s", r.ID)
		}
		seen[r.ID] = true
	}
	return reps, nil
}

// LoadPairs reads explicit lead/representative pairs for bulk assignment
// from a YAML or JSON file.
func LoadPairs(path string) ([]assign.Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read pairs file")
	}

	var pairs []assign.Pair
	if err := unmarshalByExt(path, data, &pairs); err != nil {
		return nil, eris.Wrap(err, "registry: parse pairs file")
	}

	for _, p := range pairs {
		if p.LeadID == "" || p.RepID == "" {
			return nil, eris.New("registry: pair with empty lead or representative id")
		}
	}
	return pairs, nil
}

func unmarshalByExt(path string, data []byte, out any) error {
	if filepath.Ext(path) == ".json" {
		return json.Unmarshal(data, out)
	}
	return yaml.Unmarshal(data, out)
}
