package kernel

import (
	"sort"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

// AliasTable maps a raw, as-typed filterlist name (lowercased, slugged by
// the caller) to its canonical name. Grounded on
// `filterlist_parser/utils.py`'s `get_filterlist_name_resolutions`, which
// builds exactly this alias -> canonical dict from a manually maintained
// table of known historical renames and regional mirrors.
type AliasTable map[string]string

// Canonicalize resolves name through the alias table, falling through to
// the name itself if it is not an alias (it may already be canonical).
func (t AliasTable) Canonicalize(name string) string {
	if canon, ok := t[name]; ok {
		return canon
	}
	return name
}

// SubscriptionResolver turns a user's raw, user-supplied filterlist names
// into the equivalence-set ids their subscription resolves to.
type SubscriptionResolver struct {
	Aliases AliasTable
	// ListToSets maps a canonical filterlist name to the equivalence-set
	// ids it participates in.
	ListToSets map[string][]int
}

// NewSubscriptionResolver builds a resolver from the equivalence sets
// produced by ReduceToEquivalenceSets.
func NewSubscriptionResolver(aliases AliasTable, sets []models.EquivalenceSet) *SubscriptionResolver {
	listToSets := make(map[string][]int)
	for _, set := range sets {
		for _, name := range set.ListNames {
			listToSets[name] = append(listToSets[name], set.ID)
		}
	}
	return &SubscriptionResolver{Aliases: aliases, ListToSets: listToSets}
}

// ResolveResult is the outcome of resolving one user's raw subscription.
// Grounded on `filterlist_subscriptions.py`'s
// `filter_unique_identifiable_filterlist_set_subscriptions`, which tracks
// resolved list sets and a running `bad_names` collection side by side
// rather than failing the whole resolution on the first unknown name.
type ResolveResult struct {
	Subscription models.UserSubscription
	Unresolved   []string
}

// Resolve canonicalizes and resolves one user's raw filterlist names into
// a deduplicated, sorted set of equivalence-set ids. Names that resolve to
// no known list are reported in Unresolved rather than aborting
// resolution for the user (spec.md's unknown-name policy).
func (r *SubscriptionResolver) Resolve(userID string, rawNames []string) ResolveResult {
	seen := make(map[int]bool)
	var setIDs []int
	var unresolved []string

	for _, raw := range rawNames {
		canon := r.Aliases.Canonicalize(raw)
		ids, ok := r.ListToSets[canon]
		if !ok || len(ids) == 0 {
			unresolved = append(unresolved, raw)
			continue
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				setIDs = append(setIDs, id)
			}
		}
	}
	sort.Ints(setIDs)

	return ResolveResult{
		Subscription: models.UserSubscription{
			UserID:                 userID,
			RawListNames:           rawNames,
			IdentifiableUniqueSets: setIDs,
		},
		Unresolved: unresolved,
	}
}

// ResolveAll resolves every user in users, keyed by user id to raw names.
// The iteration order of users is not significant to the result; callers
// that need deterministic artifact ordering should sort by user id
// themselves.
func (r *SubscriptionResolver) ResolveAll(users map[string][]string) (map[string]models.UserSubscription, map[string][]string) {
	subs := make(map[string]models.UserSubscription, len(users))
	unresolved := make(map[string][]string)
	for userID, raw := range users {
		res := r.Resolve(userID, raw)
		subs[userID] = res.Subscription
		if len(res.Unresolved) > 0 {
			unresolved[userID] = res.Unresolved
		}
	}
	return subs, unresolved
}
