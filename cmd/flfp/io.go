package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

// equivalenceSetFile mirrors spec.md §6's "Equivalence-set file" schema,
// matching `filterlists.py`'s `unique_filterlist_sets.json` structure
// exactly: {list_names, equivalent_rules, equiprobable_list_sets}.
type equivalenceSetFile struct {
	ListNames            []string         `json:"list_names"`
	EquivalentRules       map[string][]int `json:"equivalent_rules"`       // equivalence-set id (as string) -> rule ids
	EquiprobableListSets []struct {
		ID        int      `json:"id"`
		ListNames []string `json:"list_names"`
	} `json:"equiprobable_list_sets"`
}

func loadEquivalenceSets(path string) ([]models.EquivalenceSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read equivalence-set file: %w", err)
	}
	var f equivalenceSetFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse equivalence-set file: %w", err)
	}

	sets := make([]models.EquivalenceSet, 0, len(f.EquiprobableListSets))
	for _, eq := range f.EquiprobableListSets {
		ruleIDs := f.EquivalentRules[fmt.Sprint(eq.ID)]
		sets = append(sets, models.EquivalenceSet{
			ID:        eq.ID,
			RuleIDs:   ruleIDs,
			ListNames: eq.ListNames,
		})
	}
	return sets, nil
}

// userSubscriptionFile is a simple {user_id: [list_names]} map, the raw
// form subscriptions take before resolution.
type userSubscriptionFile map[string][]string

func loadUserSubscriptions(path string) (userSubscriptionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read user subscriptions file: %w", err)
	}
	var f userSubscriptionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse user subscriptions file: %w", err)
	}
	return f, nil
}

func loadAliasTable(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}
	var aliases map[string]string
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	return aliases, nil
}
