package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-router/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRules_YAMLSortedByOrder(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
- id: r-default
  label: Everything else
  kind: custom_default
  target_id: rep-b
  active: true
  order: 999
- id: r-high
  label: High priority
  kind: priority
  value: High
  target_id: rep-a
  active: true
  order: 1
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "r-high", rules[0].ID)
	assert.Equal(t, model.RulePriority, rules[0].Kind)
	assert.Equal(t, "r-default", rules[1].ID)
}

func TestLoadRules_JSON(t *testing.T) {
	path := writeFile(t, "rules.json", `[
		{"id": "r1", "kind": "amount_threshold", "value": "50000", "target_id": "rep-a", "active": true, "order": 1}
	]`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.RuleAmountThreshold, rules[0].Kind)
}

func TestLoadRules_RejectsUnknownKind(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
- id: r1
  kind: geo_region
  target_id: rep-a
`)
	_, err := LoadRules(path)
	assert.Error(t, err)
}

func TestLoadRules_RejectsDuplicateIDs(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
- id: r1
  kind: custom_default
  target_id: rep-a
- id: r1
  kind: custom_default
  target_id: rep-b
`)
	_, err := LoadRules(path)
	assert.Error(t, err)
}

func TestLoadRules_RejectsMissingTarget(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
- id: r1
  kind: custom_default
`)
	_, err := LoadRules(path)
	assert.Error(t, err)
}

func TestLoadRoster_YAML(t *testing.T) {
	path := writeFile(t, "roster.yaml", `
- id: rep-a
  name: Rep A
  max_leads: 20
  active: true
- id: rep-b
  name: Rep B
  max_leads: 10
  active: false
`)

	reps, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, 20, reps[0].MaxLeads)
	assert.False(t, reps[1].Active)
}

func TestLoadRoster_RejectsDuplicateIDs(t *testing.T) {
	path := writeFile(t, "roster.yaml", `
- id: rep-a
- id: rep-a
`)
	_, err := LoadRoster(path)
	assert.Error(t, err)
}

func TestLoadPairs_YAML(t *testing.T) {
	path := writeFile(t, "pairs.yaml", `
- lead_id: l1
  rep_id: rep-a
- lead_id: l2
  rep_id: rep-b
`)

	pairs, err := LoadPairs(path)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "l1", pairs[0].LeadID)
	assert.Equal(t, "rep-b", pairs[1].RepID)
}

func TestLoadPairs_RejectsEmptyIDs(t *testing.T) {
	path := writeFile(t, "pairs.json", `[{"lead_id": "l1", "rep_id": ""}]`)
	_, err := LoadPairs(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	_, err = LoadRoster(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
