package core

import "sort"

// DefaultRetentionLimit is the number of datasets kept in the history window.
const DefaultRetentionLimit = 5

// EvictionPlan decides which datasets must be evicted so that after admitting
// one new dataset at most keep remain. Existing datasets are considered
// oldest-first by creation timestamp; if there are currently >= keep, the
// oldest count-keep+1 are returned.
//
// This is a pure decision: applying the evictions atomically with the insert
// is the store's job. Callers run it only after the incoming upload has
// parsed successfully, so a rejected upload never destroys history.
func EvictionPlan(existing []DatasetMeta, keep int) []DatasetMeta {
	if keep <= 0 {
		keep = DefaultRetentionLimit
	}
	if len(existing) < keep {
		return nil
	}

	ordered := make([]DatasetMeta, len(existing))
	copy(ordered, existing)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	return ordered[:len(ordered)-keep+1]
}
