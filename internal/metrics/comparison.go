package metrics

import "github.com/privacylab/flfp-kernel/pkg/models"

// LabelsFromClasses turns a general fingerprint's equivalence classes into
// a per-user integer label slice (ordered by userOrder), suitable for
// AdjustedRandIndex/VariationOfInformation. Used to compare how stable a
// general fingerprint's partition is across two runs over the same
// population — e.g. before and after a filterlist set update.
func LabelsFromClasses(classes []models.EquivalenceClass, userOrder []string) []int {
	classOf := make(map[string]int, len(userOrder))
	for classID, c := range classes {
		for _, u := range c.UserIDs {
			classOf[u] = classID
		}
	}
	labels := make([]int, len(userOrder))
	for i, u := range userOrder {
		labels[i] = classOf[u]
	}
	return labels
}

// CompareGeneralFingerprints reports how much two general fingerprints'
// partitions of the same population agree, using the Adjusted Rand Index
// and Variation of Information already defined in this package.
func CompareGeneralFingerprints(a, b models.GeneralFingerprint, userOrder []string) (ari, vi float64) {
	la := LabelsFromClasses(a.Classes, userOrder)
	lb := LabelsFromClasses(b.Classes, userOrder)
	return AdjustedRandIndex(la, lb), VariationOfInformation(la, lb)
}
