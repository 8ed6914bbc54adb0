package kernel

import (
	"testing"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

func TestBuildProvenanceIndex(t *testing.T) {
	lists := []models.Filterlist{
		{Name: "EasyList", Rules: []int{1, 2, 3}},
		{Name: "EasyPrivacy", Rules: []int{2, 3, 4}},
	}

	provenance := BuildProvenanceIndex(lists)

	if len(provenance[2]) != 2 {
		t.Fatalf("rule 2 should be in 2 lists, got %d", len(provenance[2]))
	}
	if len(provenance[1]) != 1 || provenance[1][0] != "EasyList" {
		t.Fatalf("rule 1 should only be in EasyList, got %v", provenance[1])
	}
	if len(provenance[4]) != 1 || provenance[4][0] != "EasyPrivacy" {
		t.Fatalf("rule 4 should only be in EasyPrivacy, got %v", provenance[4])
	}
}

func TestBuildProvenanceIndex_DedupesWithinSingleList(t *testing.T) {
	lists := []models.Filterlist{
		{Name: "EasyList", Rules: []int{5, 5, 6}},
		{Name: "EasyPrivacy", Rules: []int{6}},
	}

	provenance := BuildProvenanceIndex(lists)

	if len(provenance[5]) != 1 || provenance[5][0] != "EasyList" {
		t.Fatalf("rule 5 appears twice in EasyList's own Rules but should count once, got %v", provenance[5])
	}
	if len(provenance[6]) != 2 {
		t.Fatalf("rule 6 should be in both lists exactly once each, got %v", provenance[6])
	}
}

func TestReduceToEquivalenceSets_GroupsIdenticalProvenance(t *testing.T) {
	// Rules 1 and 2 share identical provenance (both lists); rule 3 is
	// unique to EasyList; rule 4 is unique to EasyPrivacy.
	lists := []models.Filterlist{
		{Name: "EasyList", Rules: []int{1, 2, 3}},
		{Name: "EasyPrivacy", Rules: []int{1, 2, 4}},
	}
	provenance := BuildProvenanceIndex(lists)
	sets := ReduceToEquivalenceSets(provenance)

	if len(sets) != 3 {
		t.Fatalf("want 3 equivalence sets, got %d: %+v", len(sets), sets)
	}

	var sharedSet *models.EquivalenceSet
	for i := range sets {
		if len(sets[i].RuleIDs) == 2 {
			sharedSet = &sets[i]
		}
	}
	if sharedSet == nil {
		t.Fatal("expected one equivalence set containing both rule 1 and rule 2")
	}
	if sharedSet.RuleIDs[0] != 1 || sharedSet.RuleIDs[1] != 2 {
		t.Errorf("want rule ids [1 2], got %v", sharedSet.RuleIDs)
	}
}
