package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/privacylab/flfp-kernel/internal/config"
	"github.com/privacylab/flfp-kernel/internal/kernel"
	"github.com/privacylab/flfp-kernel/pkg/models"
)

// rawFilterlistFile is the simplest possible RuleRecordSource-backing
// format: a named list of rule texts. Syntactic rule parsing itself
// (ABP/uBlock rule-pattern matching) is out of scope (spec.md Non-goals);
// this file format lets a caller hand over already-parsed rule texts,
// which the parse command maps to dense rule ids in first-seen order.
type rawFilterlistFile struct {
	Name  string   `json:"name"`
	Rules []string `json:"rules"`
}

func newFiltlistsParseCmd(cfg *config.Config) *cobra.Command {
	var registryPath, out string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Build the rule provenance index and equivalence sets from a registry of filterlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(registryPath)
			if err != nil {
				return fmt.Errorf("read registry: %w", err)
			}
			var raw []rawFilterlistFile
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("parse registry: %w", err)
			}

			ruleIDs := make(map[string]int)
			nextID := 0
			lists := make([]models.Filterlist, 0, len(raw))
			for _, rf := range raw {
				ids := make([]int, 0, len(rf.Rules))
				for _, text := range rf.Rules {
					id, ok := ruleIDs[text]
					if !ok {
						id = nextID
						ruleIDs[text] = id
						nextID++
					}
					ids = append(ids, id)
				}
				lists = append(lists, models.Filterlist{Name: rf.Name, Rules: ids})
			}

			provenance := kernel.BuildProvenanceIndex(lists)
			sets := kernel.ReduceToEquivalenceSets(provenance)

			listNames := make([]string, 0, len(lists))
			for _, l := range lists {
				listNames = append(listNames, l.Name)
			}

			equivalentRules := make(map[string][]int, len(sets))
			equiprobable := make([]struct {
				ID        int      `json:"id"`
				ListNames []string `json:"list_names"`
			}, 0, len(sets))
			for _, s := range sets {
				equivalentRules[fmt.Sprint(s.ID)] = s.RuleIDs
				equiprobable = append(equiprobable, struct {
					ID        int      `json:"id"`
					ListNames []string `json:"list_names"`
				}{ID: s.ID, ListNames: s.ListNames})
			}

			outFile := equivalenceSetFile{
				ListNames:            listNames,
				EquivalentRules:      equivalentRules,
				EquiprobableListSets: equiprobable,
			}

			payload, err := json.MarshalIndent(outFile, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, payload, 0o644); err != nil {
				return fmt.Errorf("write equivalence-set file: %w", err)
			}

			fmt.Printf("parsed %d filterlists into %d equivalence sets (%d rules)\n", len(lists), len(sets), nextID)
			return nil
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", "", "path to the raw filterlist registry JSON")
	cmd.Flags().StringVar(&out, "out", "unique_filterlist_sets.json", "output equivalence-set file")
	_ = cmd.MarkFlagRequired("registry")

	return cmd
}
