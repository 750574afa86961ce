package service

import (
	"time"

	"collection-tracker/internal/collection/domain/model"
)

// MergeVariants applies a variant change to the owned variants and returns a
// new slice; the input is never modified.
//
// Entries are keyed by (finish, special). Counts are clamped at zero and an
// entry that reaches zero is kept so later changes merge into it.
func MergeVariants(existing []model.VariantEntry, change model.VariantChange) []model.VariantEntry {
	merged := make([]model.VariantEntry, len(existing), len(existing)+1)
	copy(merged, existing)

	for i := range merged {
		if merged[i].Matches(change.Finish, change.Special) {
			merged[i].Count = clampCount(merged[i].Count + change.CountDelta)
			return merged
		}
	}

	return append(merged, model.VariantEntry{
		Finish:  change.Finish,
		Special: change.Special,
		Count:   clampCount(change.CountDelta),
	})
}

// CardMerge is the outcome of applying a command to a card record.
type CardMerge struct {
	Record *model.UserCardRecord
	// EffectiveDelta is the change actually applied to the variant after
	// clamping; compensation and the set aggregate use it instead of the
	// requested delta.
	EffectiveDelta int
	// FinishCountAfter is the card's owned copies in the command's finish,
	// across all special treatments, after the merge.
	FinishCountAfter int
	// Before is a copy of the stored record the merge started from, nil on a
	// first add.
	Before *model.UserCardRecord
}

// MergeCardRecord builds the next card record from the stored one (nil when
// absent) and a command. Identifiers and denormalised keys come from the
// command and catalog entry, falling back to the stored record's values when
// the catalog has none. The rarity is taken from the catalog, then the stored
// record, then the command, so a card keeps one rarity bucket.
func MergeCardRecord(current *model.UserCardRecord, cmd model.CollectionChange, catalog *model.CatalogCard, now time.Time) CardMerge {
	before := current.Clone()
	if current == nil {
		current = model.NewCardRecord(cmd.UserID, cmd.CardID, cmd.SetID)
	}
	next := current.Clone()
	next.ID = model.CardRecordID(cmd.UserID, cmd.CardID)
	next.UserID = cmd.UserID
	next.CardID = cmd.CardID
	next.SetID = cmd.SetID
	next.Rarity = ResolveRarity(current, cmd.Rarity, catalog)
	if catalog != nil {
		next.ArtistIDs = append([]string{}, catalog.ArtistIDs...)
		next.CardNameGUID = catalog.CardNameGUID
	}

	oldCount := current.CountFor(cmd.Finish, cmd.Special)
	next.OwnedVariants = MergeVariants(current.OwnedVariants, cmd.Variant())
	next.UpdatedAt = now

	return CardMerge{
		Record:           next,
		EffectiveDelta:   next.CountFor(cmd.Finish, cmd.Special) - oldCount,
		FinishCountAfter: next.FinishCount(cmd.Finish),
		Before:           before,
	}
}

// ResolveRarity picks the rarity a card record is bucketed under.
func ResolveRarity(current *model.UserCardRecord, requested model.Rarity, catalog *model.CatalogCard) model.Rarity {
	if catalog != nil && catalog.Rarity.Valid() {
		return catalog.Rarity
	}
	if current != nil && current.Rarity.Valid() {
		return current.Rarity
	}
	return requested
}

// RestoreKeys copies the denormalised keys of before onto rec so an undo
// leaves the record as it was before the forward write. A nil before leaves
// rec unchanged.
func RestoreKeys(rec, before *model.UserCardRecord) {
	if rec == nil || before == nil {
		return
	}
	rec.SetID = before.SetID
	rec.Rarity = before.Rarity
	rec.ArtistIDs = append([]string{}, before.ArtistIDs...)
	rec.CardNameGUID = before.CardNameGUID
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
