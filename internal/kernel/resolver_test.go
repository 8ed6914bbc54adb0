package kernel

import (
	"testing"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

func TestSubscriptionResolver_AliasAndUnknown(t *testing.T) {
	sets := []models.EquivalenceSet{
		{ID: 0, RuleIDs: []int{1}, ListNames: []string{"EasyList"}},
		{ID: 1, RuleIDs: []int{2}, ListNames: []string{"EasyPrivacy"}},
	}
	aliases := AliasTable{"easylist-legacy": "EasyList"}
	resolver := NewSubscriptionResolver(aliases, sets)

	result := resolver.Resolve("user1", []string{"easylist-legacy", "EasyPrivacy", "NoSuchList"})

	if len(result.Unresolved) != 1 || result.Unresolved[0] != "NoSuchList" {
		t.Fatalf("want exactly one unresolved name, got %v", result.Unresolved)
	}
	if len(result.Subscription.IdentifiableUniqueSets) != 2 {
		t.Fatalf("want 2 resolved sets, got %v", result.Subscription.IdentifiableUniqueSets)
	}
}

func TestSubscriptionResolver_Dedup(t *testing.T) {
	sets := []models.EquivalenceSet{
		{ID: 0, RuleIDs: []int{1, 2}, ListNames: []string{"EasyList", "EasyPrivacy"}},
	}
	resolver := NewSubscriptionResolver(AliasTable{}, sets)

	result := resolver.Resolve("user1", []string{"EasyList", "EasyPrivacy"})
	if len(result.Subscription.IdentifiableUniqueSets) != 1 {
		t.Fatalf("want a single deduplicated set id, got %v", result.Subscription.IdentifiableUniqueSets)
	}
}
