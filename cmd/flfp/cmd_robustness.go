package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/privacylab/flfp-kernel/internal/config"
	"github.com/privacylab/flfp-kernel/internal/events"
	"github.com/privacylab/flfp-kernel/internal/kernel"
	"github.com/privacylab/flfp-kernel/internal/storage"
	"github.com/privacylab/flfp-kernel/pkg/models"
)

func newIterativeRobustnessCmd(cfg *config.Config) *cobra.Command {
	var (
		source    string
		equivFile string
		aliasFile string
		outDir    string
		maxIter   int
		uniqueness float64
		entropy    float64
	)

	cmd := &cobra.Command{
		Use:   "iterative-robustness",
		Short: "Simulate repeated general-fingerprinting rounds, burning used rules each round",
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := loadEquivalenceSets(equivFile)
			if err != nil {
				return err
			}
			aliases, err := loadAliasTable(aliasFile)
			if err != nil {
				return err
			}
			rawSubs, err := loadUserSubscriptions(source)
			if err != nil {
				return err
			}

			resolver := kernel.NewSubscriptionResolver(aliases, sets)
			subs, _ := resolver.ResolveAll(rawSubs)

			archive, err := maybeConnectPostgres(cfg)
			if err != nil {
				return err
			}
			if archive != nil {
				defer archive.Close()
			}

			em := events.NewManager(nil)
			runID := fmt.Sprintf("robustness-%d", time.Now().Unix())
			em.RunStarted(runID, "iterative-robustness", cfg.Encoding)

			if archive != nil {
				if err := archive.SaveRun(context.Background(), models.RunMetadata{
					RunID:     runID,
					CreatedAt: time.Now().Unix(),
					Encoding:  cfg.Encoding,
					Method:    "iterative-robustness",
					Status:    "running",
				}); err != nil {
					return err
				}
			}

			result := kernel.RunIterativeRobustness(subs, sets, kernel.RobustnessConfig{
				MaxIter:             maxIter,
				UniquenessThreshold: uniqueness,
				EntropyThreshold:    entropy,
			})

			for _, iter := range result.Iterations {
				path := fmt.Sprintf("%s/summary.json", storage.IterationDirPath(outDir, iter.Iteration))
				if err := storage.WriteAtomicJSON(path, iter); err != nil {
					return err
				}
				em.IterationComplete(runID, iter.Iteration, iter.NUniqueUsers)
				if archive != nil {
					if err := archive.SaveIterationSummary(context.Background(), runID, iter); err != nil {
						return err
					}
				}
			}
			em.Halted(runID, result.HaltReason)

			if archive != nil {
				if err := archive.SaveRun(context.Background(), models.RunMetadata{
					RunID:     runID,
					CreatedAt: time.Now().Unix(),
					Encoding:  cfg.Encoding,
					Method:    "iterative-robustness",
					Status:    "complete",
				}); err != nil {
					return err
				}
			}

			fmt.Printf("iterative robustness complete: iterations=%d halt=%s\n", len(result.Iterations), result.HaltReason)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "path to user subscriptions JSON")
	cmd.Flags().StringVar(&equivFile, "equivalence-sets", "", "path to equivalence-set JSON")
	cmd.Flags().StringVar(&aliasFile, "aliases", "", "path to filterlist alias table JSON")
	cmd.Flags().StringVar(&outDir, "out", "out", "output directory")
	cmd.Flags().IntVar(&maxIter, "max-iter", cfg.MaxIter, "maximum iterations")
	cmd.Flags().Float64Var(&uniqueness, "uniqueness", cfg.UniquenessThreshold, "halt once this fraction of users are unique")
	cmd.Flags().Float64Var(&entropy, "entropy", cfg.EntropyThreshold, "halt once class-size entropy drops to this value")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("equivalence-sets")

	return cmd
}
