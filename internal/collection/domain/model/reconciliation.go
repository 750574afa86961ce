package model

import "time"

// ReconciliationStatus tracks an outbox entry through repair.
type ReconciliationStatus string

const (
	ReconciliationPending  ReconciliationStatus = "pending"
	ReconciliationResolved ReconciliationStatus = "resolved"
)

// ReconciliationRecord is written when a compensating card write could not be
// applied, leaving the card record ahead of its set aggregate.
type ReconciliationRecord struct {
	ID         string               `bson:"_id" json:"id"`
	UserID     string               `bson:"userId" json:"userId"`
	CardID     string               `bson:"cardId" json:"cardId"`
	SetID      string               `bson:"setId" json:"setId"`
	Change     CollectionChange     `bson:"change" json:"change"`
	Reason     string               `bson:"reason" json:"reason"`
	Status     ReconciliationStatus `bson:"status" json:"status"`
	Attempts   int                  `bson:"attempts" json:"attempts"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	ResolvedAt *time.Time           `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

// CardChangedEvent is published after both documents of a change were written.
type CardChangedEvent struct {
	UserID      string    `json:"userId"`
	CardID      string    `json:"cardId"`
	SetID       string    `json:"setId"`
	Finish      Finish    `json:"finish"`
	Special     Special   `json:"special"`
	CountDelta  int       `json:"countDelta"`
	NewCount    int       `json:"newCount"`
	TotalCards  int       `json:"totalCards"`
	UniqueCards int       `json:"uniqueCards"`
	OccurredAt  time.Time `json:"occurredAt"`
}
