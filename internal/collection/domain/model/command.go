package model

import (
	"strings"

	apperrors "collection-tracker/internal/shared/errors"
)

// SubgroupToggle declares whether the user collects a subgroup of the set.
type SubgroupToggle struct {
	SubgroupID string `bson:"subgroupId" json:"subgroupId"`
	Collecting bool   `bson:"collecting" json:"collecting"`
	Count      int    `bson:"count" json:"count"`
}

// CollectionChange is the command "user adds or removes CountDelta copies of a
// variant of a card". A negative delta removes copies.
type CollectionChange struct {
	UserID     string          `bson:"userId" json:"userId"`
	CardID     string          `bson:"cardId" json:"cardId"`
	SetID      string          `bson:"setId" json:"setId"`
	Rarity     Rarity          `bson:"rarity" json:"rarity"`
	Finish     Finish          `bson:"finish" json:"finish"`
	Special    Special         `bson:"special" json:"special"`
	CountDelta int             `bson:"countDelta" json:"countDelta"`
	Subgroup   *SubgroupToggle `bson:"subgroup,omitempty" json:"subgroup,omitempty"`
}

// VariantChange is the part of a command the variant merge consumes.
type VariantChange struct {
	Finish     Finish
	Special    Special
	CountDelta int
}

// Variant extracts the variant-level change.
func (c CollectionChange) Variant() VariantChange {
	return VariantChange{Finish: c.Finish, Special: c.Special, CountDelta: c.CountDelta}
}

// Negate returns the command that undoes delta copies of the same variant.
// The subgroup toggle is carried unchanged so the compensating command is
// keyed identically.
func (c CollectionChange) Negate(delta int) CollectionChange {
	out := c
	out.CountDelta = -delta
	return out
}

// Normalize fills defaults the transport may have left blank.
func (c *CollectionChange) Normalize() {
	c.UserID = strings.TrimSpace(c.UserID)
	c.CardID = strings.TrimSpace(c.CardID)
	c.SetID = strings.TrimSpace(c.SetID)
	if c.Special == "" {
		c.Special = SpecialNone
	}
}

// Validate checks identifiers and enum membership. Unknown finishes,
// treatments and rarities are rejected so buckets cannot proliferate.
func (c CollectionChange) Validate() *apperrors.AppError {
	ve := apperrors.NewValidationErrors()
	if c.UserID == "" {
		ve.Add("userId", "userId is required", c.UserID)
	}
	if c.CardID == "" {
		ve.Add("cardId", "cardId is required", c.CardID)
	}
	if c.SetID == "" {
		ve.Add("setId", "setId is required", c.SetID)
	}
	if !c.Rarity.Valid() {
		ve.Add("rarity", "rarity is not a known rarity", c.Rarity)
	}
	if !c.Finish.Valid() {
		ve.Add("finish", "finish must be one of nonfoil, foil, etched", c.Finish)
	}
	if !c.Special.Valid() {
		ve.Add("special", "special is not a known treatment", c.Special)
	}
	if c.CountDelta == 0 && c.Subgroup == nil {
		ve.Add("countDelta", "countDelta must be non-zero", c.CountDelta)
	}
	if c.Subgroup != nil {
		if strings.TrimSpace(c.Subgroup.SubgroupID) == "" {
			ve.Add("subgroup.subgroupId", "subgroupId is required", c.Subgroup.SubgroupID)
		}
		if c.Subgroup.Count < 0 {
			ve.Add("subgroup.count", "count must not be negative", c.Subgroup.Count)
		}
	}
	return ve.ToAppError()
}
