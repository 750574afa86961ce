package service

import "collection-tracker/internal/collection/domain/model"

// MembershipChange is the per-card projection of a command onto its set aggregate.
type MembershipChange struct {
	CardID     string
	Rarity     model.Rarity
	Finish     model.Finish
	CountDelta int
	// OwnedAfter is the card's owned copies in Finish after the card write.
	OwnedAfter int
}

// MembershipResult carries the updated buckets and the unique-card movement.
type MembershipResult struct {
	FinishGroups model.FinishGroups
	UniqueDelta  int
}

// ResolveMembership decides whether the card enters or leaves the
// (rarity, finish) bucket. The aggregate is not modified.
//
// A card enters on a positive delta when absent and leaves on a negative delta
// when present and no copies remain in that finish. Adding while present or
// removing while absent leaves the bucket alone, so a variant already counted
// is never counted twice. UniqueDelta moves only when the card's presence in
// any bucket of the set flips.
func ResolveMembership(agg *model.UserSetAggregateRecord, change MembershipChange) MembershipResult {
	groups := agg.FinishGroups.Clone()
	if change.CountDelta == 0 {
		return MembershipResult{FinishGroups: groups}
	}

	presentBefore := groups.ContainsAnywhere(change.CardID)
	inBucket := groups.Contains(change.Rarity, change.Finish, change.CardID)

	switch {
	case change.CountDelta > 0 && !inBucket:
		groups.Add(change.Rarity, change.Finish, change.CardID)
	case change.CountDelta < 0 && inBucket && change.OwnedAfter <= 0:
		groups.Remove(change.Rarity, change.Finish, change.CardID)
	default:
		return MembershipResult{FinishGroups: groups}
	}

	presentAfter := groups.ContainsAnywhere(change.CardID)
	uniqueDelta := 0
	switch {
	case presentAfter && !presentBefore:
		uniqueDelta = 1
	case !presentAfter && presentBefore:
		uniqueDelta = -1
	}
	return MembershipResult{FinishGroups: groups, UniqueDelta: uniqueDelta}
}

// ApplyMembership returns a copy of agg with the membership resolution and the
// copy-count delta applied. TotalCards moves by CountDelta regardless of
// membership since it counts physical copies.
func ApplyMembership(agg *model.UserSetAggregateRecord, change MembershipChange) *model.UserSetAggregateRecord {
	next := agg.Clone()
	next.Normalize()
	if change.CountDelta == 0 {
		return next
	}

	res := ResolveMembership(next, change)
	next.FinishGroups = res.FinishGroups
	next.UniqueCards = clampCount(next.UniqueCards + res.UniqueDelta)
	next.TotalCards = clampCount(next.TotalCards + change.CountDelta)
	return next
}
