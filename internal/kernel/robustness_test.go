package kernel

import (
	"testing"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

func TestRunIterativeRobustness_HaltsAndNumbersIterationsConsecutively(t *testing.T) {
	subs := map[string]models.UserSubscription{
		"a": {UserID: "a", IdentifiableUniqueSets: []int{0, 3}},
		"b": {UserID: "b", IdentifiableUniqueSets: []int{3}},
		"c": {UserID: "c", IdentifiableUniqueSets: []int{1, 3}},
		"d": {UserID: "d", IdentifiableUniqueSets: []int{2, 3}},
	}
	sets := []models.EquivalenceSet{
		{ID: 0, RuleIDs: []int{10}, ListNames: []string{"ListA"}},
		{ID: 1, RuleIDs: []int{11}, ListNames: []string{"ListB"}},
		{ID: 2, RuleIDs: []int{12}, ListNames: []string{"ListC"}},
		{ID: 3, RuleIDs: []int{13}, ListNames: []string{"ListA", "ListB", "ListC"}},
	}

	result := RunIterativeRobustness(subs, sets, RobustnessConfig{
		MaxIter:             10,
		UniquenessThreshold: 1.0,
	})

	if len(result.Iterations) == 0 {
		t.Fatal("expected at least one iteration")
	}
	if result.HaltReason == "" {
		t.Fatal("expected a halt reason")
	}
	for i := 1; i < len(result.Iterations); i++ {
		if result.Iterations[i].Iteration != result.Iterations[i-1].Iteration+1 {
			t.Errorf("iterations should be numbered consecutively, got %d then %d",
				result.Iterations[i-1].Iteration, result.Iterations[i].Iteration)
		}
	}
}

func TestRunIterativeRobustness_ExhaustsWhenNoCandidatesRemain(t *testing.T) {
	subs := map[string]models.UserSubscription{
		"a": {UserID: "a", IdentifiableUniqueSets: []int{}},
		"b": {UserID: "b", IdentifiableUniqueSets: []int{}},
	}
	result := RunIterativeRobustness(subs, nil, RobustnessConfig{MaxIter: 5})

	if result.HaltReason != "exhausted" {
		t.Errorf("want halt reason 'exhausted' with no attributes at all, got %q", result.HaltReason)
	}
	if len(result.Iterations) != 0 {
		t.Errorf("want zero iterations when there is nothing to fingerprint, got %d", len(result.Iterations))
	}
}
