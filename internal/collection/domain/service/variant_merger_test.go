package service

import (
	"testing"
	"time"

	"collection-tracker/internal/collection/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeVariants_NoOpDelta(t *testing.T) {
	existing := []model.VariantEntry{
		{Finish: model.FinishFoil, Special: model.SpecialNone, Count: 2},
		{Finish: model.FinishNonfoil, Special: model.SpecialSigned, Count: 1},
	}

	merged := MergeVariants(existing, model.VariantChange{Finish: model.FinishFoil, Special: model.SpecialNone})
	assert.ElementsMatch(t, existing, merged)
}

func TestMergeVariants_UpdatesMatchingEntryOnly(t *testing.T) {
	existing := []model.VariantEntry{
		{Finish: model.FinishFoil, Special: model.SpecialNone, Count: 2},
		{Finish: model.FinishFoil, Special: model.SpecialSigned, Count: 1},
	}

	merged := MergeVariants(existing, model.VariantChange{Finish: model.FinishFoil, Special: model.SpecialSigned, CountDelta: 3})
	require.Len(t, merged, 2)
	assert.Equal(t, 2, merged[0].Count)
	assert.Equal(t, 4, merged[1].Count)
	assert.Equal(t, 1, existing[1].Count, "input must not be mutated")
}

func TestMergeVariants_AppendsNewEntry(t *testing.T) {
	merged := MergeVariants(nil, model.VariantChange{Finish: model.FinishEtched, Special: model.SpecialNone, CountDelta: 2})
	assert.Equal(t, []model.VariantEntry{{Finish: model.FinishEtched, Special: model.SpecialNone, Count: 2}}, merged)
}

func TestMergeVariants_NegativeOnAbsentCreatesZeroEntry(t *testing.T) {
	merged := MergeVariants(nil, model.VariantChange{Finish: model.FinishFoil, Special: model.SpecialNone, CountDelta: -4})
	assert.Equal(t, []model.VariantEntry{{Finish: model.FinishFoil, Special: model.SpecialNone, Count: 0}}, merged)
}

func TestMergeVariants_NeverNegativeAndKeepsZeroEntries(t *testing.T) {
	variants := []model.VariantEntry{}
	deltas := []int{3, -1, -5, 2, -2, -1, 4}
	for _, d := range deltas {
		variants = MergeVariants(variants, model.VariantChange{Finish: model.FinishNonfoil, Special: model.SpecialNone, CountDelta: d})
		for _, v := range variants {
			assert.GreaterOrEqual(t, v.Count, 0)
		}
		assert.Len(t, variants, 1)
	}
	assert.Equal(t, 4, variants[0].Count)
}

func TestMergeCardRecord_FirstAdd(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cmd := model.CollectionChange{
		UserID: "u1", CardID: "c1", SetID: "s1", Rarity: model.RarityRare,
		Finish: model.FinishNonfoil, Special: model.SpecialNone, CountDelta: 2,
	}
	catalog := &model.CatalogCard{CardID: "c1", ArtistIDs: []string{"a1"}, CardNameGUID: "g1"}

	res := MergeCardRecord(nil, cmd, catalog, now)
	assert.Equal(t, "u1/c1", res.Record.ID)
	assert.Equal(t, model.RarityRare, res.Record.Rarity)
	assert.Equal(t, []string{"a1"}, res.Record.ArtistIDs)
	assert.Equal(t, "g1", res.Record.CardNameGUID)
	assert.Equal(t, now, res.Record.UpdatedAt)
	assert.Equal(t, 2, res.EffectiveDelta)
	assert.Equal(t, 2, res.FinishCountAfter)
	assert.Zero(t, res.Record.Version)
}

func TestMergeCardRecord_ClampedRemovalReportsEffectiveDelta(t *testing.T) {
	current := model.NewCardRecord("u1", "c1", "s1")
	current.Version = 4
	current.CardNameGUID = "kept"
	current.OwnedVariants = []model.VariantEntry{
		{Finish: model.FinishFoil, Special: model.SpecialNone, Count: 2},
		{Finish: model.FinishFoil, Special: model.SpecialSigned, Count: 1},
	}
	cmd := model.CollectionChange{
		UserID: "u1", CardID: "c1", SetID: "s1", Rarity: model.RarityMythic,
		Finish: model.FinishFoil, Special: model.SpecialNone, CountDelta: -5,
	}

	res := MergeCardRecord(current, cmd, nil, time.Now())
	assert.Equal(t, -2, res.EffectiveDelta)
	assert.Equal(t, 1, res.FinishCountAfter)
	assert.Equal(t, int64(4), res.Record.Version)
	assert.Equal(t, "kept", res.Record.CardNameGUID)
	assert.Equal(t, 2, current.CountFor(model.FinishFoil, model.SpecialNone), "stored record must not be mutated")
}

func TestMergeCardRecord_RarityPrecedence(t *testing.T) {
	cmd := model.CollectionChange{
		UserID: "u1", CardID: "c1", SetID: "s1", Rarity: model.RarityUncommon,
		Finish: model.FinishNonfoil, Special: model.SpecialNone, CountDelta: 1,
	}
	stored := model.NewCardRecord("u1", "c1", "s1")
	stored.Rarity = model.RarityCommon

	res := MergeCardRecord(stored, cmd, &model.CatalogCard{CardID: "c1", Rarity: model.RarityRare}, time.Now())
	assert.Equal(t, model.RarityRare, res.Record.Rarity, "catalog rarity wins")

	res = MergeCardRecord(stored, cmd, nil, time.Now())
	assert.Equal(t, model.RarityCommon, res.Record.Rarity, "stored rarity wins over the command")

	res = MergeCardRecord(nil, cmd, &model.CatalogCard{CardID: "c1"}, time.Now())
	assert.Equal(t, model.RarityUncommon, res.Record.Rarity, "command rarity when nothing else is known")
}

func TestMergeCardRecord_KeepsPreImage(t *testing.T) {
	cmd := model.CollectionChange{
		UserID: "u1", CardID: "c1", SetID: "s1", Rarity: model.RarityRare,
		Finish: model.FinishFoil, Special: model.SpecialNone, CountDelta: 1,
	}

	first := MergeCardRecord(nil, cmd, nil, time.Now())
	assert.Nil(t, first.Before)

	stored := model.NewCardRecord("u1", "c1", "s1")
	stored.CardNameGUID = "old-guid"
	stored.ArtistIDs = []string{"old-artist"}
	second := MergeCardRecord(stored, cmd, &model.CatalogCard{CardID: "c1", CardNameGUID: "new-guid", ArtistIDs: []string{"new-artist"}}, time.Now())
	require.NotNil(t, second.Before)
	assert.Equal(t, "old-guid", second.Before.CardNameGUID)
	assert.Equal(t, "new-guid", second.Record.CardNameGUID)

	stored.ArtistIDs[0] = "mutated"
	assert.Equal(t, []string{"old-artist"}, second.Before.ArtistIDs)
}

func TestRestoreKeys(t *testing.T) {
	before := model.NewCardRecord("u1", "c1", "s1")
	before.Rarity = model.RarityRare
	before.CardNameGUID = "old-guid"
	before.ArtistIDs = []string{"old-artist"}

	rec := before.Clone()
	rec.Rarity = model.RarityMythic
	rec.CardNameGUID = "new-guid"
	rec.ArtistIDs = []string{"new-artist"}

	RestoreKeys(rec, before)
	assert.Equal(t, model.RarityRare, rec.Rarity)
	assert.Equal(t, "old-guid", rec.CardNameGUID)
	assert.Equal(t, []string{"old-artist"}, rec.ArtistIDs)

	RestoreKeys(rec, nil)
	assert.Equal(t, "old-guid", rec.CardNameGUID)
}
