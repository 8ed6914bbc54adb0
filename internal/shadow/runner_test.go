package shadow

import (
	"testing"

	"github.com/privacylab/flfp-kernel/internal/kernel"
	"github.com/privacylab/flfp-kernel/pkg/models"
)

func buildTestMatrix(t *testing.T) (*kernel.AttributeMatrix, []int) {
	t.Helper()
	subs := make(map[string]models.UserSubscription)
	for i := 0; i < 8; i++ {
		var attrs []int
		if i&1 != 0 {
			attrs = append(attrs, 0)
		}
		if i&2 != 0 {
			attrs = append(attrs, 1)
		}
		if i&4 != 0 {
			attrs = append(attrs, 2)
		}
		userID := string(rune('a' + i))
		subs[userID] = models.UserSubscription{UserID: userID, IdentifiableUniqueSets: attrs}
	}
	matrix := kernel.NewAttributeMatrix(subs, 3)
	matrix.EnsureTranspose()
	return matrix, []int{0, 1, 2}
}

func TestRunner_CompareNeverUnderreportsFastAnonSet(t *testing.T) {
	matrix, candidates := buildTestMatrix(t)
	runner := NewRunner(matrix)

	for _, userID := range matrix.UserIDs() {
		result := runner.Compare(userID, candidates)
		if result.AnonSetDelta < 0 {
			t.Errorf("user %s: fast fallback reported a smaller anon set than greedy, which should be optimal (delta=%d)",
				userID, result.AnonSetDelta)
		}
	}
}

// buildDivergenceMatrix mirrors internal/kernel's
// TestFastTargeted_CanDivergeFromGreedyOnLocallyMisleadingGlobalCounts
// fixture: 6 users where the fast fallback's global-count heuristic picks
// a locally uninformative attribute and gives up a step early, while
// greedy's exhaustive rescan keeps going.
func buildDivergenceMatrix(t *testing.T) (*kernel.AttributeMatrix, []int) {
	t.Helper()
	membership := map[string][]int{
		"a": {0},
		"b": {0, 2},
		"c": {0},
		"d": {1},
		"e": {1},
		"f": {},
	}
	subs := make(map[string]models.UserSubscription, len(membership))
	for userID, attrs := range membership {
		subs[userID] = models.UserSubscription{UserID: userID, IdentifiableUniqueSets: attrs}
	}
	matrix := kernel.NewAttributeMatrix(subs, 3)
	matrix.EnsureTranspose()
	return matrix, []int{0, 1, 2}
}

func TestRunner_CompareSurfacesRealDivergence(t *testing.T) {
	matrix, candidates := buildDivergenceMatrix(t)
	runner := NewRunner(matrix)

	result := runner.Compare("a", candidates)

	if result.AnonSetDelta != 1 {
		t.Fatalf("expected fast fallback to leave an anon set exactly 1 larger than greedy for user a, got delta=%d (greedy mask len=%d, fast mask len=%d)",
			result.AnonSetDelta, result.GreedyMaskLen, result.FastMaskLen)
	}
	if result.GreedyUnique {
		t.Errorf("greedy should not uniquely identify user a on this fixture (final anon set is {a,c})")
	}
	if result.FastUnique {
		t.Errorf("fast should not uniquely identify user a either (final anon set is {a,b,c})")
	}
}

func TestRunner_CompareReportsUniqueness(t *testing.T) {
	matrix, candidates := buildTestMatrix(t)
	runner := NewRunner(matrix)

	result := runner.Compare("h", candidates)
	if !result.GreedyUnique {
		t.Errorf("expected greedy to uniquely identify user h with the fully discriminating attribute set")
	}
}
