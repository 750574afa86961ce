package model

// CatalogCard is the reference data a card record denormalises at write time.
type CatalogCard struct {
	CardID       string   `bson:"_id" json:"cardId"`
	SetID        string   `bson:"setId" json:"setId"`
	Name         string   `bson:"name" json:"name"`
	CardNameGUID string   `bson:"cardNameGuid" json:"cardNameGuid"`
	ArtistIDs    []string `bson:"artistIds" json:"artistIds"`
	Rarity       Rarity   `bson:"rarity" json:"rarity"`
}
