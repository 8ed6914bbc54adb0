package kernel

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

// AttributeMatrix is the shared, read-only user x attribute membership
// matrix every worker-pool task reads from. It is built once per run and
// handed to workers as a plain pointer: every exported method only reads,
// so Go's memory model (the happens-before edge established by the
// errgroup.Go call that launches each worker) is sufficient without a
// mutex or an emulated shared-memory segment, unlike the original's
// multiprocessing SharedMemoryManager buffers (spec.md §9).
type AttributeMatrix struct {
	userIDs    []string
	userRow    map[string]int       // user id -> row index, for O(1) lookup
	rows       []*bitset.BitSet     // row index -> attributes the user has
	cols       []*bitset.BitSet     // attribute id -> users that have it (transpose, lazily built)
	numAttrs   int
	colsBuilt  bool
}

// NewAttributeMatrix builds the matrix from resolved subscriptions. The
// user ordering is the sorted order of user ids, matching spec.md §5's
// requirement that worker dispatch order be deterministic ascending-id
// order.
func NewAttributeMatrix(subs map[string]models.UserSubscription, numAttrs int) *AttributeMatrix {
	userIDs := make([]string, 0, len(subs))
	for id := range subs {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	userRow := make(map[string]int, len(userIDs))
	rows := make([]*bitset.BitSet, len(userIDs))
	for i, id := range userIDs {
		userRow[id] = i
		row := bitset.New(uint(numAttrs))
		for _, attr := range subs[id].IdentifiableUniqueSets {
			if attr >= 0 && attr < numAttrs {
				row.Set(uint(attr))
			}
		}
		rows[i] = row
	}

	return &AttributeMatrix{
		userIDs:  userIDs,
		userRow:  userRow,
		rows:     rows,
		numAttrs: numAttrs,
	}
}

// UserIDs returns the matrix's ascending, fixed user ordering.
func (m *AttributeMatrix) UserIDs() []string { return m.userIDs }

// NumUsers returns the number of rows (users).
func (m *AttributeMatrix) NumUsers() int { return len(m.rows) }

// NumAttrs returns the number of columns (equivalence-set attributes).
func (m *AttributeMatrix) NumAttrs() int { return m.numAttrs }

// RowByUser returns the attribute bitset for a user id, or nil if unknown.
func (m *AttributeMatrix) RowByUser(userID string) *bitset.BitSet {
	idx, ok := m.userRow[userID]
	if !ok {
		return nil
	}
	return m.rows[idx]
}

// RowAt returns the attribute bitset for the user at row index i.
func (m *AttributeMatrix) RowAt(i int) *bitset.BitSet { return m.rows[i] }

// buildTranspose lazily computes, for each attribute, the bitset of user
// row indices that have it. Computed once and cached; safe to call
// concurrently from multiple read-only workers because the first caller
// to need it is always the single-threaded setup step before the worker
// pool starts (EnsureTranspose is called explicitly by callers before
// dispatch).
func (m *AttributeMatrix) buildTranspose() {
	cols := make([]*bitset.BitSet, m.numAttrs)
	for a := 0; a < m.numAttrs; a++ {
		cols[a] = bitset.New(uint(len(m.rows)))
	}
	for rowIdx, row := range m.rows {
		for a, ok := row.NextSet(0); ok; a, ok = row.NextSet(a + 1) {
			if int(a) < m.numAttrs {
				cols[a].Set(uint(rowIdx))
			}
		}
	}
	m.cols = cols
	m.colsBuilt = true
}

// EnsureTranspose builds the attribute -> users column view if it has not
// been built yet. Call this once, single-threaded, before handing the
// matrix to a worker pool.
func (m *AttributeMatrix) EnsureTranspose() {
	if !m.colsBuilt {
		m.buildTranspose()
	}
}

// ColAt returns the bitset of user row indices carrying attribute a.
// Requires EnsureTranspose to have been called.
func (m *AttributeMatrix) ColAt(a int) *bitset.BitSet { return m.cols[a] }

// NonEmptyAttrs returns the ids of attributes at least one user carries.
// Requires EnsureTranspose to have been called. Grounded on
// `targeted_rules.py`'s `non_empty_attrs`, used to skip attributes no user
// has when restricting candidate pools.
func (m *AttributeMatrix) NonEmptyAttrs() []int {
	var out []int
	for a := 0; a < m.numAttrs; a++ {
		if m.cols[a].Count() > 0 {
			out = append(out, a)
		}
	}
	return out
}
