package kernel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/klauspost/compress/flate"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

// EncodeRuleVector bit-packs a boolean rule-membership vector (one bit per
// rule id, true meaning "user's subscriptions include this rule") into a
// compressed byte stream.
//
// Grounded on `filterlist_subscriptions.py`'s `encode_rules`: each byte
// packs 8 consecutive rule flags LSB-first (`sum(b << i for i, b in
// enumerate(vector[j:j+8]))`), and the packed buffer is then compressed.
// The original uses `zlib`; this uses `klauspost/compress/flate`; see
// DESIGN.md for why.
func EncodeRuleVector(rules *bitset.BitSet, nRules int) ([]byte, error) {
	packed := make([]byte, (nRules+7)/8)
	for i := 0; i < nRules; i++ {
		if rules.Test(uint(i)) {
			packed[i/8] |= 1 << uint(i%8)
		}
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("flfp: codec: open compressor: %w", err)
	}
	if _, err := w.Write(packed); err != nil {
		return nil, fmt.Errorf("flfp: codec: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flfp: codec: flush compressor: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMode selects the representation DecodeRuleVector returns.
type DecodeMode int

const (
	// DecodeIndices returns the rule ids that are set, ascending.
	DecodeIndices DecodeMode = iota
	// DecodeBytes returns the raw packed bytes, uncompressed.
	DecodeBytes
	// DecodeBitset returns a fully expanded BitSet of width nRules.
	DecodeBitset
)

// DecodedRuleVector holds whichever representation DecodeRuleVector was
// asked for; only the field matching the requested DecodeMode is populated.
type DecodedRuleVector struct {
	Indices []int
	Bytes   []byte
	Bits    *bitset.BitSet
}

// DecodeRuleVector reverses EncodeRuleVector, optionally skipping the
// final bit-expansion step when the caller only needs the raw bytes (mode
// DecodeBytes), matching `decode_rules`'s three output modes ("indeces",
// "bytes", "bool").
func DecodeRuleVector(packed []byte, nRules int, mode DecodeMode) (DecodedRuleVector, error) {
	r := flate.NewReader(bytes.NewReader(packed))
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return DecodedRuleVector{}, fmt.Errorf("flfp: codec: decompress: %w", err)
	}

	if mode == DecodeBytes {
		return DecodedRuleVector{Bytes: raw}, nil
	}

	bits := bitset.New(uint(nRules))
	for i := 0; i < nRules; i++ {
		byteIdx := i / 8
		if byteIdx >= len(raw) {
			break
		}
		if raw[byteIdx]&(1<<uint(i%8)) != 0 {
			bits.Set(uint(i))
		}
	}

	if mode == DecodeBitset {
		return DecodedRuleVector{Bits: bits}, nil
	}

	indices := make([]int, 0)
	for i, ok := bits.NextSet(0); ok; i, ok = bits.NextSet(i + 1) {
		indices = append(indices, int(i))
	}
	return DecodedRuleVector{Indices: indices}, nil
}

// legacyZeroNegativeSentinel is the on-disk value a signed mask entry for
// attribute id 0 with negative polarity historically took. A plain
// `attributeID * sign` encoding collides at id 0: "+0" and "-0" are the
// same float. The legacy artifact format broke the tie by writing -0.01
// for that single case; every other attribute id is unambiguous since its
// magnitude is >= 1.
const legacyZeroNegativeSentinel = -0.01

// MarshalJSON implements the legacy on-disk representation of a signed
// mask: each step is a single float, `attributeID` for a positive match
// and `-attributeID` for a negative one, with the id-0 sentinel above.
// Internally the kernel always works with the explicit
// {AttributeID, Polarity} struct (spec.md §9); this method provides the
// legacy format for callers that convert a mask at the I/O boundary. The
// TargetedFingerprint artifacts the CLI writes hold a plain
// models.SignedMask and are marshaled as explicit
// {attribute_id, polarity} objects, not in this legacy form.
func (m SignedMaskAlias) MarshalJSON() ([]byte, error) {
	out := make([]float64, len(m))
	for i, a := range m {
		switch {
		case a.AttributeID == 0 && a.Polarity == models.SignNegative:
			out[i] = legacyZeroNegativeSentinel
		default:
			out[i] = float64(a.AttributeID) * float64(a.Polarity)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (m *SignedMaskAlias) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(models.SignedMask, len(raw))
	for i, v := range raw {
		switch {
		case v == legacyZeroNegativeSentinel:
			out[i] = models.SignedAttribute{AttributeID: 0, Polarity: models.SignNegative}
		case v < 0:
			out[i] = models.SignedAttribute{AttributeID: int(-v), Polarity: models.SignNegative}
		default:
			out[i] = models.SignedAttribute{AttributeID: int(v), Polarity: models.SignPositive}
		}
	}
	*m = SignedMaskAlias(out)
	return nil
}

// SignedMaskAlias is models.SignedMask with the legacy marshaling attached.
// It is a distinct named type (not an alias assignment) so that
// models.SignedMask itself stays free of JSON-format opinions and can be
// marshaled plainly wherever the legacy sentinel does not apply (e.g. the
// BestMask of models.TargetedFingerprint).
type SignedMaskAlias models.SignedMask
