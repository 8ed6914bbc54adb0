package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/privacylab/flfp-kernel/internal/config"
	"github.com/privacylab/flfp-kernel/internal/kernel"
	"github.com/privacylab/flfp-kernel/internal/storage"
	"github.com/privacylab/flfp-kernel/pkg/models"
)

func newFingerprintGeneralCmd(cfg *config.Config) *cobra.Command {
	var (
		source    string
		equivFile string
		aliasFile string
		outDir    string
		maxSig    int
	)

	cmd := &cobra.Command{
		Use:   "general",
		Short: "Compute the population-wide general fingerprint",
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

			numAttrs := 0
			for _, s := range sets {
				if s.ID+1 > numAttrs {
					numAttrs = s.ID + 1
				}
			}
			matrix := kernel.NewAttributeMatrix(subs, numAttrs)
			matrix.EnsureTranspose()
			candidates := matrix.NonEmptyAttrs()

			gf := kernel.GeneralFingerprint(matrix, candidates, kernel.GeneralOptions{MaxSignatureLen: maxSig})

			path := fmt.Sprintf("%s/fingerprint.json", outDir)
			if err := storage.WriteAtomicJSON(path, gf); err != nil {
				return err
			}

			archive, err := maybeConnectPostgres(cfg)
			if err != nil {
				return err
			}
			if archive != nil {
				defer archive.Close()
				runID := fmt.Sprintf("general-%d", time.Now().Unix())
				if err := archive.SaveRun(context.Background(), models.RunMetadata{
					RunID:     runID,
					CreatedAt: time.Now().Unix(),
					Encoding:  cfg.Encoding,
					Method:    "general",
					Status:    "complete",
				}); err != nil {
					return err
				}
				numUnique := 0
				for _, class := range gf.Classes {
					if len(class.UserIDs) == 1 {
						numUnique++
					}
				}
				if err := archive.SaveIterationSummary(context.Background(), runID, models.IterationSummary{
					Iteration:                 0,
					NUniqueUsers:              numUnique,
					NUsableRules:              len(gf.Signature),
					NParticipatingFilterlists: gf.Stats.NumClasses,
				}); err != nil {
					return err
				}
			}

			fmt.Printf("general fingerprint complete: classes=%d entropy=%.4f\n", gf.Stats.NumClasses, gf.Stats.AnonSetEntropy)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "path to user subscriptions JSON")
	cmd.Flags().StringVar(&equivFile, "equivalence-sets", "", "path to equivalence-set JSON")
	cmd.Flags().StringVar(&aliasFile, "aliases", "", "path to filterlist alias table JSON")
	cmd.Flags().StringVar(&outDir, "out", "out", "output directory")
	cmd.Flags().IntVar(&maxSig, "general.max-size", cfg.GeneralMaxSignature, "max signature length (0 = unbounded)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("equivalence-sets")

	return cmd
}
