package kernel

import (
	"sort"
	"strings"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

// ReduceToEquivalenceSets groups rule ids that share an identical
// provenance (the identical set of filterlists containing them) into a
// single EquivalenceSet, assigning ids in first-seen order.
//
// Grounded on `rules.py`'s `unique_sets_of_filterlists`: the original keys
// a dict by `frozenset(provenance)` and appends rule ids as it encounters
// them, so two rules carried by the same filterlists collapse into the
// same bucket regardless of rule ordering within a list. The key-insertion
// order of that dict becomes the equivalence-set id order; Go map
// iteration order is not stable, so first-seen order here is tracked
// explicitly via a side slice of keys instead of relying on map order.
func ReduceToEquivalenceSets(provenance map[int][]string) []models.EquivalenceSet {
	type bucket struct {
		key     string
		lists   []string
		ruleIDs []int
	}

	buckets := make(map[string]*bucket)
	var order []string

	ruleIDsSorted := make([]int, 0, len(provenance))
	for ruleID := range provenance {
		ruleIDsSorted = append(ruleIDsSorted, ruleID)
	}
	sort.Ints(ruleIDsSorted)

	for _, ruleID := range ruleIDsSorted {
		lists := append([]string(nil), provenance[ruleID]...)
		sort.Strings(lists)
		key := strings.Join(lists, "\x00")

		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key, lists: lists}
			buckets[key] = b
			order = append(order, key)
		}
		b.ruleIDs = append(b.ruleIDs, ruleID)
	}

	sets := make([]models.EquivalenceSet, 0, len(order))
	for id, key := range order {
		b := buckets[key]
		sets = append(sets, models.EquivalenceSet{
			ID:        id,
			RuleIDs:   b.ruleIDs,
			ListNames: b.lists,
		})
	}
	return sets
}
