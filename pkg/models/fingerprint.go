package models

// Rule is a single filter-list rule, identified by its literal text.
type Rule struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Filterlist is a named, ordered collection of rules as published by a
// maintainer (e.g. "EasyList", "EasyPrivacy").
type Filterlist struct {
	Name  string `json:"name"`
	Rules []int  `json:"rules"` // rule ids contained in this list
}

// EquivalenceSet groups rule ids that share an identical provenance (the
// same set of filterlists contain every rule in the group). Members of an
// equivalence set are indistinguishable from the perspective of a user's
// subscription set and are collapsed into a single fingerprinting
// attribute.
type EquivalenceSet struct {
	ID         int    `json:"id"`
	RuleIDs    []int  `json:"rule_ids"`
	ListNames  []string `json:"list_names"` // the provenance: filterlists containing every rule here
}

// UserSubscription is the set of equivalence-set ids a user's enabled
// filterlists resolve to, after alias resolution and unknown-name
// filtering.
type UserSubscription struct {
	UserID                 string `json:"user_id"`
	RawListNames           []string `json:"raw_list_names"`
	IdentifiableUniqueSets []int    `json:"identifiable_unique_lists"`
}

// Sign is the polarity of an attribute within a signed mask: whether the
// attribute must be present (Positive) or absent (Negative) for a user to
// match. There is no zero sign: the legacy on-disk form, where attribute
// id 0 with negative polarity is written as -0.01 because +0 and -0 are the
// same float, is handled by internal/kernel's SignedMaskAlias.
type Sign int8

const (
	SignPositive Sign = 1
	SignNegative Sign = -1
)

// SignedAttribute is one step of a signed mask: attribute `AttributeID`
// must be present (SignPositive) or absent (SignNegative).
type SignedAttribute struct {
	AttributeID int  `json:"attribute_id"`
	Polarity    Sign `json:"polarity"`
}

// SignedMask is the ordered sequence of signed attributes a fingerprinting
// algorithm has selected, in selection order. It is the "question set" that
// narrows a user's anonymity set.
type SignedMask []SignedAttribute

// AnonSetSample is one step of a targeted-fingerprinting history: the size
// of the anonymity set and the mask length after that step.
type AnonSetSample struct {
	LenAnonSet int `json:"len_anon_set"`
	LenMask    int `json:"len_mask"`
}

// TargetedFingerprint is the per-user targeted fingerprinting artifact
// (spec.md §6, "Per-user targeted fingerprint artifact").
type TargetedFingerprint struct {
	UserID     string          `json:"user_id"`
	BestMask   SignedMask      `json:"best_mask"`
	History    []AnonSetSample `json:"history"`
	MaxSize    int             `json:"max_size"`
	MinAnonSet int             `json:"min_anon_set"`
	Unique     bool            `json:"unique"`
	TimeSecs   float64         `json:"time,omitempty"`
}

// EquivalenceClass is one partition of the user population produced by the
// general fingerprinter: every user in the class shares the same answers
// to the signature attributes chosen so far.
type EquivalenceClass struct {
	UserIDs []string `json:"user_ids"`
}

// GeneralFingerprint is the population-wide general fingerprinting
// artifact (spec.md §6, "General fingerprint artifact").
type GeneralFingerprint struct {
	Signature []int              `json:"signature"` // attribute ids, in selection order
	Classes   []EquivalenceClass `json:"classes"`
	Stats     GeneralStats       `json:"stats"`
}

// GeneralStats summarizes the class-size distribution of a general
// fingerprint.
type GeneralStats struct {
	NumUsers      int     `json:"n_users"`
	NumClasses    int     `json:"n_classes"`
	AnonSetEntropy float64 `json:"anon_set_entropy"` // normalized Shannon entropy of class sizes
	MeanSize      float64 `json:"mean_size"`
	MedianSize    float64 `json:"median_size"`
	StdSize       float64 `json:"std_size"`
	MaxSize       int     `json:"max_size"`
}

// IterationSummary is the per-iteration artifact produced by the iterative
// robustness driver (spec.md §6, "Iteration artifact").
type IterationSummary struct {
	Iteration               int     `json:"iteration"`
	NUniqueUsers            int     `json:"n_unique_users"`
	NUsableRules            int     `json:"n_usable_rules"`
	NParticipatingFilterlists int   `json:"n_participating_filterlists"`
	AnonSetTrend            map[string]ClassSizeSnapshot `json:"anon_set_trend,omitempty"`
}

// ClassSizeSnapshot is a windowed reading of the class-size distribution
// taken at a later iteration, used to report how fast anonymity erodes
// once a given iteration's rules have been burned.
type ClassSizeSnapshot struct {
	MeanSize float64 `json:"mean_size"`
	MaxSize  int     `json:"max_size"`
	Entropy  float64 `json:"entropy"`
}

// RunMetadata is bookkeeping for the status/control API and the
// persistence layer: it is not a fingerprinting concept, only a record of
// "what run is this and is it done".
type RunMetadata struct {
	RunID     string `json:"run_id"`
	CreatedAt int64  `json:"created_at"`
	Encoding  string `json:"encoding"` // "filterlist" | "rule"
	Method    string `json:"method"`   // "targeted" | "general" | "iterative-robustness"
	Status    string `json:"status"`   // "running" | "complete" | "failed" | "cancelled"
}
