package service

import "collection-tracker/internal/collection/domain/model"

// BuildSetAggregate recomputes a set aggregate from the user's card records in
// that set. Subgroup flags are not derivable from cards and are left empty.
//
// A card sits in the (rarity, finish) bucket when it owns at least one copy in
// that finish. Records without a known rarity still count towards TotalCards
// but cannot be placed in a bucket.
func BuildSetAggregate(userID, setID string, records []*model.UserCardRecord) *model.UserSetAggregateRecord {
	agg := model.NewSetAggregate(userID, setID)
	for _, rec := range records {
		agg.TotalCards += rec.TotalCount()
		if !rec.Rarity.Valid() {
			continue
		}
		for _, finish := range model.Finishes {
			if rec.FinishCount(finish) > 0 {
				agg.FinishGroups.Add(rec.Rarity, finish, rec.CardID)
			}
		}
	}

	seen := make(map[string]struct{})
	for _, byFinish := range agg.FinishGroups {
		for _, ids := range byFinish {
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}
	}
	agg.UniqueCards = len(seen)
	return agg
}
