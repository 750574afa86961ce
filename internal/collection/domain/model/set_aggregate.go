package model

import (
	"sort"
	"time"
)

// SubgroupFlag records whether a user is collecting a visual subgroup of a set.
type SubgroupFlag struct {
	SubgroupID string `bson:"subgroupId" json:"subgroupId"`
	Collecting bool   `bson:"collecting" json:"collecting"`
	Count      int    `bson:"count" json:"count"`
}

// FinishGroups maps rarity then finish to the sorted ids of cards owned in that bucket.
type FinishGroups map[Rarity]map[Finish][]string

// UserSetAggregateRecord is the per-(user, set) projection over the user's card records.
type UserSetAggregateRecord struct {
	ID                  string         `bson:"_id" json:"id"`
	UserID              string         `bson:"userId" json:"userId"`
	SetID               string         `bson:"setId" json:"setId"`
	TotalCards          int            `bson:"totalCards" json:"totalCards"`
	UniqueCards         int            `bson:"uniqueCards" json:"uniqueCards"`
	FinishGroups        FinishGroups   `bson:"finishGroups" json:"finishGroups"`
	CollectingSubgroups []SubgroupFlag `bson:"collectingSubgroups" json:"collectingSubgroups"`
	Version             int64          `bson:"version" json:"version"`
	UpdatedAt           time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// SetAggregateID is the document key of a user-set aggregate.
func SetAggregateID(userID, setID string) string {
	return userID + "/" + setID
}

// NewSetAggregate returns the canonical zero-value aggregate.
func NewSetAggregate(userID, setID string) *UserSetAggregateRecord {
	return &UserSetAggregateRecord{
		ID:                  SetAggregateID(userID, setID),
		UserID:              userID,
		SetID:               setID,
		FinishGroups:        FinishGroups{},
		CollectingSubgroups: []SubgroupFlag{},
	}
}

// Normalize replaces nil collections with empty ones. Documents decoded from
// storage may omit empty fields.
func (a *UserSetAggregateRecord) Normalize() {
	if a.FinishGroups == nil {
		a.FinishGroups = FinishGroups{}
	}
	if a.CollectingSubgroups == nil {
		a.CollectingSubgroups = []SubgroupFlag{}
	}
}

// Clone returns a deep copy so callers can mutate it freely.
func (a *UserSetAggregateRecord) Clone() *UserSetAggregateRecord {
	if a == nil {
		return nil
	}
	out := *a
	out.FinishGroups = a.FinishGroups.Clone()
	out.CollectingSubgroups = append([]SubgroupFlag{}, a.CollectingSubgroups...)
	return &out
}

// Clone deep-copies the bucket map.
func (g FinishGroups) Clone() FinishGroups {
	out := make(FinishGroups, len(g))
	for rarity, byFinish := range g {
		inner := make(map[Finish][]string, len(byFinish))
		for finish, ids := range byFinish {
			inner[finish] = append([]string{}, ids...)
		}
		out[rarity] = inner
	}
	return out
}

// Contains reports whether cardID is in the (rarity, finish) bucket.
func (g FinishGroups) Contains(rarity Rarity, finish Finish, cardID string) bool {
	ids := g[rarity][finish]
	i := sort.SearchStrings(ids, cardID)
	return i < len(ids) && ids[i] == cardID
}

// ContainsAnywhere reports whether cardID is in any bucket.
func (g FinishGroups) ContainsAnywhere(cardID string) bool {
	for rarity, byFinish := range g {
		for finish := range byFinish {
			if g.Contains(rarity, finish, cardID) {
				return true
			}
		}
	}
	return false
}

// Add inserts cardID into the bucket, keeping it sorted and duplicate free.
func (g FinishGroups) Add(rarity Rarity, finish Finish, cardID string) {
	byFinish, ok := g[rarity]
	if !ok {
		byFinish = make(map[Finish][]string)
		g[rarity] = byFinish
	}
	ids := byFinish[finish]
	i := sort.SearchStrings(ids, cardID)
	if i < len(ids) && ids[i] == cardID {
		return
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = cardID
	byFinish[finish] = ids
}

// Remove deletes cardID from the bucket. The emptied bucket is kept as an empty list.
func (g FinishGroups) Remove(rarity Rarity, finish Finish, cardID string) {
	byFinish, ok := g[rarity]
	if !ok {
		return
	}
	ids := byFinish[finish]
	i := sort.SearchStrings(ids, cardID)
	if i >= len(ids) || ids[i] != cardID {
		return
	}
	byFinish[finish] = append(ids[:i:i], ids[i+1:]...)
}
