package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/privacylab/flfp-kernel/internal/config"
	"github.com/privacylab/flfp-kernel/internal/kernel"
	"github.com/privacylab/flfp-kernel/internal/shadow"
	"github.com/privacylab/flfp-kernel/internal/storage"
	"github.com/privacylab/flfp-kernel/internal/worker"
	"github.com/privacylab/flfp-kernel/pkg/models"
)

func newFingerprintTargetedCmd(cfg *config.Config) *cobra.Command {
	var (
		source    string
		equivFile string
		aliasFile string
		outDir    string
		fast      bool
		filterlistAware bool
		shadowCompare   bool
	)

	cmd := &cobra.Command{
		Use:   "targeted",
		Short: "Compute per-user targeted fingerprints",
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
			subs, unresolved := resolver.ResolveAll(rawSubs)
			for userID, names := range unresolved {
				fmt.Printf("warning: user %s has unresolved filterlists: %v\n", userID, names)
			}

			numAttrs := 0
			for _, s := range sets {
				if s.ID+1 > numAttrs {
					numAttrs = s.ID + 1
				}
			}
			matrix := kernel.NewAttributeMatrix(subs, numAttrs)
			matrix.EnsureTranspose()
			candidates := matrix.NonEmptyAttrs()

			registry, err := storage.OpenRegistry(cfg.RegistryFile)
			if err != nil {
				return err
			}
			defer registry.Close()

			archive, err := maybeConnectPostgres(cfg)
			if err != nil {
				return err
			}
			if archive != nil {
				defer archive.Close()
			}

			runID := fmt.Sprintf("targeted-%d", time.Now().Unix())
			if archive != nil {
				if err := archive.SaveRun(context.Background(), models.RunMetadata{
					RunID:     runID,
					CreatedAt: time.Now().Unix(),
					Encoding:  cfg.Encoding,
					Method:    "targeted",
					Status:    "running",
				}); err != nil {
					return err
				}
			}

			userIDs := matrix.UserIDs()
			sort.Strings(userIDs)

			pool := &worker.Pool{Concurrency: cfg.WorkerCount}
			var shadowRunner *shadow.Runner
			if shadowCompare {
				shadowRunner = shadow.NewRunner(matrix)
			}

			progress := pool.Run(context.Background(), userIDs, func(ctx context.Context, userID string) error {
				if registry.UserComplete(runID, userID) {
					return nil
				}
				path := storage.UserArtifactPath(outDir, userID)
				if storage.Exists(path) {
					return registry.MarkUserComplete(runID, userID)
				}

				start := time.Now()
				var fp = computeTargeted(matrix, userID, candidates, fast, filterlistAware)
				fp.TimeSecs = time.Since(start).Seconds()

				if err := storage.WriteAtomicJSON(path, fp); err != nil {
					return err
				}

				if shadowRunner != nil {
					result := shadowRunner.Compare(userID, candidates)
					_ = storage.WriteAtomicJSON(fmt.Sprintf("%s/shadow/%s.json", outDir, userID), result)
				}

				return registry.MarkUserComplete(runID, userID)
			})

			fmt.Printf("targeted fingerprinting complete: dispatched=%d completed=%d failed=%d\n",
				progress.TotalDispatched, progress.Completed, progress.Failed)

			if archive != nil {
				status := "complete"
				if progress.Failed > 0 {
					status = "failed"
				}
				if err := archive.SaveRun(context.Background(), models.RunMetadata{
					RunID:     runID,
					CreatedAt: time.Now().Unix(),
					Encoding:  cfg.Encoding,
					Method:    "targeted",
					Status:    status,
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "path to user subscriptions JSON")
	cmd.Flags().StringVar(&equivFile, "equivalence-sets", "", "path to equivalence-set JSON")
	cmd.Flags().StringVar(&aliasFile, "aliases", "", "path to filterlist alias table JSON")
	cmd.Flags().StringVar(&outDir, "out", "out", "output directory")
	cmd.Flags().BoolVar(&fast, "fast", false, "use the fast fallback algorithm instead of the exhaustive greedy one")
	cmd.Flags().BoolVar(&filterlistAware, "filterlist-aware", false, "restrict candidate pool each step")
	cmd.Flags().BoolVar(&shadowCompare, "shadow", false, "also run the opposite algorithm and record the divergence")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("equivalence-sets")

	return cmd
}

func computeTargeted(matrix *kernel.AttributeMatrix, userID string, candidates []int, fast, filterlistAware bool) models.TargetedFingerprint {
	switch {
	case fast:
		return kernel.FastTargeted(matrix, userID, candidates)
	case filterlistAware:
		return kernel.GreedyTargetedFilterlistAware(matrix, userID, candidates)
	default:
		return kernel.GreedyTargeted(matrix, userID, candidates)
	}
}
