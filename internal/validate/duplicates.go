package validate

import (
	"github.com/sells-group/lead-router/internal/cache"
	"github.com/sells-group/lead-router/internal/model"
)

// dupPrefix namespaces duplicate-key entries in the shared cache.
const dupPrefix = "dup:"

// FindDuplicates groups leads sharing a composite key of lower-cased name
// plus primary phone number. Clusters are advisory: members stay valid, they
// are just reported together and collapsed to first occurrence in Unique.
// Cluster order follows the first appearance of each key, so detection is
// independent of how duplicates are interleaved in the input.
func FindDuplicates(leads []model.Lead) model.DuplicateReport {
	byKey := make(map[string][]string)
	var keyOrder []string

	for _, l := range leads {
		key := l.DuplicateKey()
		if _, seen := byKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		byKey[key] = append(byKey[key], l.ID)
	}

	report := model.DuplicateReport{Unique: make([]model.Lead, 0, len(leads))}
	for _, key := range keyOrder {
		if ids := byKey[key]; len(ids) > 1 {
			report.Clusters = append(report.Clusters, model.DuplicateCluster{Key: key, LeadIDs: ids})
		}
	}

	seen := make(map[string]bool, len(leads))
	for _, l := range leads {
		key := l.DuplicateKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		report.Unique = append(report.Unique, l)
	}

	return report
}

// FindDuplicatesCached memoizes each key's cluster in c under the "dup:"
// prefix. A new batch must call InvalidateDuplicates first; stale entries
// from an earlier batch would otherwise leak into the report.
func FindDuplicatesCached(leads []model.Lead, c *cache.Cache) model.DuplicateReport {
	report := FindDuplicates(leads)
	for _, cl := range report.Clusters {
		c.Set(dupPrefix+cl.Key, cl.LeadIDs)
	}
	return report
}

// InvalidateDuplicates clears all memoized duplicate keys and returns the
// number removed.
func InvalidateDuplicates(c *cache.Cache) int {
	return c.InvalidatePrefix(dupPrefix)
}
