package kernel

import (
	"github.com/privacylab/flfp-kernel/pkg/models"
)

// RobustnessConfig bounds the iterative robustness driver, grounded on
// `iterative_robustness.py`'s hydra CLI loop (`max_iter`, `uniqueness`,
// `entropy` thresholds).
type RobustnessConfig struct {
	MaxIter             int
	UniquenessThreshold float64 // halt once n_unique_users/n_users >= this
	EntropyThreshold    float64 // halt once AnonSetEntropy <= this
	GeneralOpts         GeneralOptions
}

// RobustnessResult is the full record of an iterative-robustness run: one
// IterationSummary per iteration plus the reason it stopped.
type RobustnessResult struct {
	Iterations []models.IterationSummary
	HaltReason string // "max_iter" | "uniqueness" | "entropy" | "exhausted"
}

// RunIterativeRobustness simulates an attacker repeatedly running the
// general fingerprinter, "burning" the equivalence sets it used (removing
// them from every user's subscription so they can't be used again), and
// re-running against what remains — modeling a population whose most
// identifying filterlists get normalized away or blocked round after
// round.
//
// Grounded on `iterative_robustness.py`'s `main` loop: each round calls
// the general fingerprinter, calls `update_user_subscriptions` to strip
// the signature's equivalence-set ids from every user, and calls
// `report_iteration` to compute `n_unique_users` (count of size-1
// classes), `n_usable_rules` (rules newly burned this round, i.e. rules
// in this round's signature sets that were not already burned), and
// `n_participating_filterlists` (distinct filterlist names still backing
// at least one remaining candidate attribute). The loop halts once
// max_iter is reached, the uniqueness fraction clears the configured
// threshold, or the class-size entropy drops to the configured threshold
// — matching the original's three hydra-configured stop conditions
// exactly.
func RunIterativeRobustness(
	subs map[string]models.UserSubscription,
	sets []models.EquivalenceSet,
	cfg RobustnessConfig,
) RobustnessResult {
	setByID := make(map[int]models.EquivalenceSet, len(sets))
	numAttrs := 0
	for _, s := range sets {
		setByID[s.ID] = s
		if s.ID+1 > numAttrs {
			numAttrs = s.ID + 1
		}
	}

	burned := make(map[int]bool)
	current := copySubs(subs)

	var summaries []models.IterationSummary
	var stats []models.GeneralStats
	haltReason := "max_iter"

	for iter := 0; cfg.MaxIter <= 0 || iter < cfg.MaxIter; iter++ {
		matrix := NewAttributeMatrix(current, numAttrs)
		matrix.EnsureTranspose()
		candidates := activeCandidates(matrix, burned)

		if len(candidates) == 0 {
			haltReason = "exhausted"
			break
		}

		gf := GeneralFingerprint(matrix, candidates, cfg.GeneralOpts)

		nUnique := 0
		for _, c := range gf.Classes {
			if len(c.UserIDs) == 1 {
				nUnique++
			}
		}

		newlyBurnedRules := 0
		participating := make(map[string]bool)
		for _, attr := range gf.Signature {
			if !burned[attr] {
				burned[attr] = true
				newlyBurnedRules += len(setByID[attr].RuleIDs)
			}
		}
		for _, attr := range candidates {
			for _, name := range setByID[attr].ListNames {
				participating[name] = true
			}
		}

		summaries = append(summaries, models.IterationSummary{
			Iteration:                 iter,
			NUniqueUsers:              nUnique,
			NUsableRules:              newlyBurnedRules,
			NParticipatingFilterlists: len(participating),
		})
		stats = append(stats, gf.Stats)

		uniquenessFrac := 0.0
		if matrix.NumUsers() > 0 {
			uniquenessFrac = float64(nUnique) / float64(matrix.NumUsers())
		}

		if cfg.UniquenessThreshold > 0 && uniquenessFrac >= cfg.UniquenessThreshold {
			haltReason = "uniqueness"
			break
		}
		if cfg.EntropyThreshold > 0 && gf.Stats.AnonSetEntropy <= cfg.EntropyThreshold {
			haltReason = "entropy"
			break
		}
		if len(gf.Signature) == 0 {
			haltReason = "exhausted"
			break
		}

		current = updateUserSubscriptions(current, burned)
	}

	computeAnonSetTrend(summaries, stats)

	return RobustnessResult{Iterations: summaries, HaltReason: haltReason}
}

func copySubs(subs map[string]models.UserSubscription) map[string]models.UserSubscription {
	out := make(map[string]models.UserSubscription, len(subs))
	for k, v := range subs {
		ids := append([]int(nil), v.IdentifiableUniqueSets...)
		out[k] = models.UserSubscription{UserID: v.UserID, RawListNames: v.RawListNames, IdentifiableUniqueSets: ids}
	}
	return out
}

// updateUserSubscriptions strips every burned equivalence-set id from each
// user's subscription, grounded on `iterative_robustness.py`'s
// `update_user_subscriptions`.
func updateUserSubscriptions(subs map[string]models.UserSubscription, burned map[int]bool) map[string]models.UserSubscription {
	out := make(map[string]models.UserSubscription, len(subs))
	for id, sub := range subs {
		kept := sub.IdentifiableUniqueSets[:0:0]
		for _, attr := range sub.IdentifiableUniqueSets {
			if !burned[attr] {
				kept = append(kept, attr)
			}
		}
		out[id] = models.UserSubscription{UserID: sub.UserID, RawListNames: sub.RawListNames, IdentifiableUniqueSets: kept}
	}
	return out
}

func activeCandidates(matrix *AttributeMatrix, burned map[int]bool) []int {
	var out []int
	for _, a := range matrix.NonEmptyAttrs() {
		if !burned[a] {
			out = append(out, a)
		}
	}
	return out
}

// computeAnonSetTrend fills each iteration's AnonSetTrend by looking ahead
// to iterations +1/+3/+5/+10 and copying that iteration's class-size
// statistics (stats is index-aligned with summaries), adapted from the
// teacher's `anonset_tracker.go` windowed-decay pattern (there: wall-clock
// windows; here: iteration-index windows). Purely descriptive — does not
// affect halting or mask selection.
func computeAnonSetTrend(summaries []models.IterationSummary, stats []models.GeneralStats) {
	offsets := []int{1, 3, 5, 10}
	for i := range summaries {
		trend := make(map[string]models.ClassSizeSnapshot)
		for _, off := range offsets {
			j := i + off
			if j >= len(summaries) {
				continue
			}
			key := offsetKey(off)
			trend[key] = models.ClassSizeSnapshot{
				MeanSize: stats[j].MeanSize,
				MaxSize:  stats[j].MaxSize,
				Entropy:  stats[j].AnonSetEntropy,
			}
		}
		if len(trend) > 0 {
			summaries[i].AnonSetTrend = trend
		}
	}
}

func offsetKey(off int) string {
	switch off {
	case 1:
		return "iter+1"
	case 3:
		return "iter+3"
	case 5:
		return "iter+5"
	case 10:
		return "iter+10"
	default:
		return "iter+?"
	}
}
