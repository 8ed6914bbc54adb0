package kernel

import (
	"math"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

// GeneralOptions bounds the general fingerprinter's search.
type GeneralOptions struct {
	// MaxSignatureLen is the hard cap on signature attributes (k in the
	// original); zero means unbounded.
	MaxSignatureLen int
}

// GeneralFingerprint partitions the entire user population into
// equivalence classes by greedily picking, at each round, the attribute
// that most evenly splits the current classes.
//
// Grounded on `general_rules.py` (the numpy/bitset-matrix counterpart of
// `general.py`'s list-mode `greedy_group_fingerprinting`): the first
// attribute chosen is whichever has a user count closest to N/2 (the seed
// that can split the full population most evenly); every subsequent round
// computes, for each remaining candidate attribute and each current class,
// a separation score `occurrence * (class_size - occurrence)` and sums it
// across classes, picking the attribute with the highest total score, with
// ties broken by lowest attribute id (matching `Counter.most_common(1)`'s
// first-encountered-on-tie behavior given ascending iteration order).
// The round terminates the whole search when the best score is zero (no
// candidate can split any class further), the signature hits
// opts.MaxSignatureLen, or every user is already in their own class.
func GeneralFingerprint(matrix *AttributeMatrix, candidates []int, opts GeneralOptions) models.GeneralFingerprint {
	matrix.EnsureTranspose()
	numUsers := matrix.NumUsers()

	remaining := append([]int(nil), candidates...)
	sort.Ints(remaining)

	seed, seedIdx := -1, -1
	bestDist := math.MaxInt64
	for i, a := range remaining {
		count := int(matrix.ColAt(a).Count())
		dist := count - numUsers/2
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist, seed, seedIdx = dist, a, i
		}
	}

	var signature []int
	var classes []*bitset.BitSet

	all := bitset.New(uint(numUsers)).Complement()
	if seed == -1 {
		classes = []*bitset.BitSet{all}
	} else {
		signature = append(signature, seed)
		col := matrix.ColAt(seed)
		withAttr := col.Intersection(all)
		withoutAttr := col.Complement().Intersection(all)
		classes = nonEmptyClasses(withAttr, withoutAttr)
		remaining = append(remaining[:seedIdx], remaining[seedIdx+1:]...)
	}

	for len(remaining) > 0 && len(classes) < numUsers {
		if opts.MaxSignatureLen > 0 && len(signature) >= opts.MaxSignatureLen {
			break
		}

		bestAttr, bestIdx := -1, -1
		bestScore := -1.0

		for i, attr := range remaining {
			col := matrix.ColAt(attr)
			score := 0.0
			for _, class := range classes {
				classSize := class.Count()
				if classSize == 0 {
					continue
				}
				occurrence := col.Intersection(class).Count()
				score += float64(occurrence) * float64(classSize-occurrence)
			}
			if score > bestScore {
				bestScore, bestAttr, bestIdx = score, attr, i
			}
		}

		if bestAttr == -1 || bestScore == 0 {
			break
		}

		signature = append(signature, bestAttr)
		col := matrix.ColAt(bestAttr)
		var nextClasses []*bitset.BitSet
		for _, class := range classes {
			withAttr := col.Intersection(class)
			withoutAttr := col.Complement().Intersection(class)
			nextClasses = append(nextClasses, nonEmptyClasses(withAttr, withoutAttr)...)
		}
		classes = nextClasses
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	userIDs := matrix.UserIDs()
	modelClasses := make([]models.EquivalenceClass, 0, len(classes))
	sizes := make([]int, 0, len(classes))
	for _, class := range classes {
		var members []string
		for i, ok := class.NextSet(0); ok; i, ok = class.NextSet(i + 1) {
			members = append(members, userIDs[i])
		}
		modelClasses = append(modelClasses, models.EquivalenceClass{UserIDs: members})
		sizes = append(sizes, len(members))
	}

	return models.GeneralFingerprint{
		Signature: signature,
		Classes:   modelClasses,
		Stats:     classSizeStats(numUsers, sizes),
	}
}

func nonEmptyClasses(bitsets ...*bitset.BitSet) []*bitset.BitSet {
	var out []*bitset.BitSet
	for _, b := range bitsets {
		if b.Count() > 0 {
			out = append(out, b)
		}
	}
	return out
}

// classSizeStats computes the normalized Shannon entropy and distribution
// statistics of a class-size vector, grounded on `fingerprinting.py`'s
// stats block: `scipy.stats.entropy(anon_set_sizes) / np.log(N)`.
func classSizeStats(numUsers int, sizes []int) models.GeneralStats {
	stats := models.GeneralStats{NumUsers: numUsers, NumClasses: len(sizes)}
	if len(sizes) == 0 || numUsers == 0 {
		return stats
	}

	total := 0
	maxSize := 0
	for _, s := range sizes {
		total += s
		if s > maxSize {
			maxSize = s
		}
	}
	stats.MaxSize = maxSize
	stats.MeanSize = float64(total) / float64(len(sizes))

	sorted := append([]int(nil), sizes...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		stats.MedianSize = float64(sorted[mid-1]+sorted[mid]) / 2
	} else {
		stats.MedianSize = float64(sorted[mid])
	}

	var variance float64
	for _, s := range sizes {
		d := float64(s) - stats.MeanSize
		variance += d * d
	}
	variance /= float64(len(sizes))
	stats.StdSize = math.Sqrt(variance)

	var entropy float64
	for _, s := range sizes {
		if s == 0 {
			continue
		}
		p := float64(s) / float64(total)
		entropy -= p * math.Log(p)
	}
	if numUsers > 1 {
		stats.AnonSetEntropy = entropy / math.Log(float64(numUsers))
	}

	return stats
}
