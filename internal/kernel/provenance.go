package kernel

import "github.com/privacylab/flfp-kernel/pkg/models"

// RuleRecordSource is the pluggable boundary between the kernel and
// whatever parses filter-list syntax into rule records. The kernel never
// parses rule text itself; it only reasons about rule ids and the
// filterlists that contain them.
type RuleRecordSource interface {
	// Lists returns every filterlist this source knows about, each with the
	// rule ids it contains.
	Lists() []models.Filterlist
}

// BuildProvenanceIndex computes, for every rule id observed across the
// given filterlists, the set of filterlist names that contain it. This is
// the Rule Provenance Index (spec.md §4.1), grounded directly on
// `rules.py`'s `_rule_provenance_dict`: the original builds a
// rule -> [list indices] dict by iterating every list's membership once;
// here the same traversal produces rule id -> list-name slice.
//
// A rule id repeated within a single list's Rules only contributes that
// list's name once — spec.md §4.1 guarantees "duplicates within a single
// list count once," so a per-list seen-set guards against a list's own
// duplicate entries inflating a rule's provenance.
func BuildProvenanceIndex(lists []models.Filterlist) map[int][]string {
	provenance := make(map[int][]string)
	for _, list := range lists {
		seen := make(map[int]bool, len(list.Rules))
		for _, ruleID := range list.Rules {
			if seen[ruleID] {
				continue
			}
			seen[ruleID] = true
			provenance[ruleID] = append(provenance[ruleID], list.Name)
		}
	}
	return provenance
}
