package service

import "collection-tracker/internal/collection/domain/model"

// ToggleSubgroup upserts the collecting flag for subgroupID and returns a new
// slice. Applying the same values twice yields the same result.
func ToggleSubgroup(subgroups []model.SubgroupFlag, subgroupID string, collecting bool, count int) []model.SubgroupFlag {
	out := make([]model.SubgroupFlag, len(subgroups), len(subgroups)+1)
	copy(out, subgroups)

	flag := model.SubgroupFlag{SubgroupID: subgroupID, Collecting: collecting, Count: count}
	for i := range out {
		if out[i].SubgroupID == subgroupID {
			out[i] = flag
			return out
		}
	}
	return append(out, flag)
}

// ApplySubgroupToggle returns a copy of agg with the toggle applied; a nil
// toggle leaves the subgroups unchanged.
func ApplySubgroupToggle(agg *model.UserSetAggregateRecord, toggle *model.SubgroupToggle) *model.UserSetAggregateRecord {
	next := agg.Clone()
	next.Normalize()
	if toggle == nil {
		return next
	}
	next.CollectingSubgroups = ToggleSubgroup(next.CollectingSubgroups, toggle.SubgroupID, toggle.Collecting, toggle.Count)
	return next
}
