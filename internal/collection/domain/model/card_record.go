package model

import "time"

// UserCardRecord is one user's ownership of one catalog card.
type UserCardRecord struct {
	ID            string         `bson:"_id" json:"id"`
	UserID        string         `bson:"userId" json:"userId"`
	CardID        string         `bson:"cardId" json:"cardId"`
	SetID         string         `bson:"setId" json:"setId"`
	Rarity        Rarity         `bson:"rarity" json:"rarity"`
	ArtistIDs     []string       `bson:"artistIds" json:"artistIds"`
	CardNameGUID  string         `bson:"cardNameGuid" json:"cardNameGuid"`
	OwnedVariants []VariantEntry `bson:"ownedVariants" json:"ownedVariants"`
	// Version is the stored revision the record was read at; 0 means the
	// record has never been written.
	Version   int64     `bson:"version" json:"version"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CardRecordID is the document key of a user-card record.
func CardRecordID(userID, cardID string) string {
	return userID + "/" + cardID
}

// NewCardRecord returns the empty record a first add starts from.
func NewCardRecord(userID, cardID, setID string) *UserCardRecord {
	return &UserCardRecord{
		ID:            CardRecordID(userID, cardID),
		UserID:        userID,
		CardID:        cardID,
		SetID:         setID,
		ArtistIDs:     []string{},
		OwnedVariants: []VariantEntry{},
	}
}

// CountFor returns the owned copies of one variant.
func (r *UserCardRecord) CountFor(finish Finish, special Special) int {
	for _, v := range r.OwnedVariants {
		if v.Matches(finish, special) {
			return v.Count
		}
	}
	return 0
}

// FinishCount sums the owned copies in a finish across all special treatments.
func (r *UserCardRecord) FinishCount(finish Finish) int {
	total := 0
	for _, v := range r.OwnedVariants {
		if v.Finish == finish {
			total += v.Count
		}
	}
	return total
}

// TotalCount sums every owned copy of the card.
func (r *UserCardRecord) TotalCount() int {
	total := 0
	for _, v := range r.OwnedVariants {
		total += v.Count
	}
	return total
}

// Clone returns a deep copy so callers can mutate it freely.
func (r *UserCardRecord) Clone() *UserCardRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.ArtistIDs = append([]string{}, r.ArtistIDs...)
	out.OwnedVariants = append([]VariantEntry{}, r.OwnedVariants...)
	return &out
}

// CardResult is the caller-facing view of a written card record.
type CardResult struct {
	UserID        string         `json:"userId"`
	CardID        string         `json:"cardId"`
	SetID         string         `json:"setId"`
	OwnedVariants []VariantEntry `json:"ownedVariants"`
	Version       int64          `json:"version"`
}

// ToResult projects the record onto the caller-facing shape.
func (r *UserCardRecord) ToResult() *CardResult {
	return &CardResult{
		UserID:        r.UserID,
		CardID:        r.CardID,
		SetID:         r.SetID,
		OwnedVariants: append([]VariantEntry{}, r.OwnedVariants...),
		Version:       r.Version,
	}
}
