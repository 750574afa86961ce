package model

import (
	"fmt"
	"strings"
)

// Finish is the physical surface treatment of a printed card.
type Finish string

const (
	FinishNonfoil Finish = "nonfoil"
	FinishFoil    Finish = "foil"
	FinishEtched  Finish = "etched"
)

// Finishes lists every supported finish in display order.
var Finishes = []Finish{FinishNonfoil, FinishFoil, FinishEtched}

// Valid reports whether f is one of the known finishes.
func (f Finish) Valid() bool {
	switch f {
	case FinishNonfoil, FinishFoil, FinishEtched:
		return true
	}
	return false
}

// ParseFinish normalises s and rejects unknown finishes.
func ParseFinish(s string) (Finish, error) {
	f := Finish(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown finish %q", s)
	}
	return f, nil
}

// Special is a treatment applied to an individual copy after printing.
type Special string

const (
	SpecialNone        Special = "none"
	SpecialSigned      Special = "signed"
	SpecialAltered     Special = "altered"
	SpecialArtistProof Special = "artist_proof"
	SpecialMisprint    Special = "misprint"
)

// Valid reports whether s is one of the known special treatments.
func (s Special) Valid() bool {
	switch s {
	case SpecialNone, SpecialSigned, SpecialAltered, SpecialArtistProof, SpecialMisprint:
		return true
	}
	return false
}

// ParseSpecial normalises s; an empty value means no special treatment.
func ParseSpecial(s string) (Special, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "" {
		return SpecialNone, nil
	}
	sp := Special(normalized)
	if !sp.Valid() {
		return "", fmt.Errorf("unknown special treatment %q", s)
	}
	return sp, nil
}

// Rarity is the catalog rarity of a card within its set.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityMythic   Rarity = "mythic"
	RaritySpecial  Rarity = "special"
	RarityBonus    Rarity = "bonus"
)

// Valid reports whether r is one of the known rarities.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityMythic, RaritySpecial, RarityBonus:
		return true
	}
	return false
}

// ParseRarity normalises s and rejects unknown rarities.
func ParseRarity(s string) (Rarity, error) {
	r := Rarity(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown rarity %q", s)
	}
	return r, nil
}

// VariantEntry counts the copies a user owns of one (finish, special) variant.
type VariantEntry struct {
	Finish  Finish  `bson:"finish" json:"finish"`
	Special Special `bson:"special" json:"special"`
	Count   int     `bson:"count" json:"count"`
}

// Matches reports whether the entry is keyed by finish and special.
func (v VariantEntry) Matches(finish Finish, special Special) bool {
	return v.Finish == finish && v.Special == special
}
