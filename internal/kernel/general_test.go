package kernel

import "testing"

func TestGeneralFingerprint_NeverExceedsPopulation(t *testing.T) {
	matrix, candidates := buildTestMatrix(t)

	gf := GeneralFingerprint(matrix, candidates, GeneralOptions{})

	total := 0
	for _, c := range gf.Classes {
		total += len(c.UserIDs)
	}
	if total != matrix.NumUsers() {
		t.Fatalf("classes must partition every user exactly once: got %d total across classes, want %d", total, matrix.NumUsers())
	}
	if gf.Stats.NumClasses != len(gf.Classes) {
		t.Errorf("stats.NumClasses (%d) should match len(classes) (%d)", gf.Stats.NumClasses, len(gf.Classes))
	}
}

func TestGeneralFingerprint_FullAttributeSetUniquelyPartitions(t *testing.T) {
	matrix, candidates := buildTestMatrix(t)

	gf := GeneralFingerprint(matrix, candidates, GeneralOptions{})

	for _, c := range gf.Classes {
		if len(c.UserIDs) > 1 {
			t.Errorf("with a fully discriminating attribute set every class should be a singleton, got class %v", c.UserIDs)
		}
	}
}

func TestGeneralFingerprint_RespectsMaxSignatureLen(t *testing.T) {
	matrix, candidates := buildTestMatrix(t)

	gf := GeneralFingerprint(matrix, candidates, GeneralOptions{MaxSignatureLen: 1})

	if len(gf.Signature) > 1 {
		t.Fatalf("signature length should be capped at 1, got %d: %v", len(gf.Signature), gf.Signature)
	}
}

func TestClassSizeStats_EntropyIsNormalized(t *testing.T) {
	stats := classSizeStats(8, []int{1, 1, 1, 1, 1, 1, 1, 1})
	if stats.AnonSetEntropy < 0.99 || stats.AnonSetEntropy > 1.01 {
		t.Errorf("uniform singleton classes should have normalized entropy ~1.0, got %f", stats.AnonSetEntropy)
	}

	stats = classSizeStats(8, []int{8})
	if stats.AnonSetEntropy != 0 {
		t.Errorf("a single class covering everyone should have entropy 0, got %f", stats.AnonSetEntropy)
	}
}
