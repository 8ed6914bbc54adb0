package kernel

import (
	"testing"

	"github.com/bits-and-blooms/bitset"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

func TestEncodeDecodeRuleVector_RoundTrip(t *testing.T) {
	nRules := 37
	bits := bitset.New(uint(nRules))
	for _, i := range []uint{0, 1, 7, 8, 9, 15, 16, 36} {
		bits.Set(i)
	}

	encoded, err := EncodeRuleVector(bits, nRules)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeRuleVector(encoded, nRules, DecodeBitset)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	for i := 0; i < nRules; i++ {
		if bits.Test(uint(i)) != decoded.Bits.Test(uint(i)) {
			t.Errorf("bit %d mismatch: want %v got %v", i, bits.Test(uint(i)), decoded.Bits.Test(uint(i)))
		}
	}
}

func TestEncodeDecodeRuleVector_Indices(t *testing.T) {
	nRules := 16
	bits := bitset.New(uint(nRules))
	bits.Set(2)
	bits.Set(10)
	bits.Set(15)

	encoded, err := EncodeRuleVector(bits, nRules)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeRuleVector(encoded, nRules, DecodeIndices)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	want := []int{2, 10, 15}
	if len(decoded.Indices) != len(want) {
		t.Fatalf("want %d indices, got %d: %v", len(want), len(decoded.Indices), decoded.Indices)
	}
	for i, w := range want {
		if decoded.Indices[i] != w {
			t.Errorf("index %d: want %d got %d", i, w, decoded.Indices[i])
		}
	}
}

func TestSignedMaskAlias_LegacyZeroSentinel(t *testing.T) {
	mask := SignedMaskAlias(models.SignedMask{
		{AttributeID: 0, Polarity: models.SignNegative},
		{AttributeID: 5, Polarity: models.SignPositive},
		{AttributeID: 7, Polarity: models.SignNegative},
	})

	data, err := mask.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var roundTrip SignedMaskAlias
	if err := roundTrip.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(roundTrip) != len(mask) {
		t.Fatalf("length mismatch: want %d got %d", len(mask), len(roundTrip))
	}
	for i := range mask {
		if roundTrip[i] != mask[i] {
			t.Errorf("entry %d: want %+v got %+v", i, mask[i], roundTrip[i])
		}
	}
}
