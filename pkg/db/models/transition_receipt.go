package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransitionReceipt records an applied lifecycle transition keyed by a
// client-supplied token. Inserting the receipt inside the transition
// transaction makes retries detectable: a replay hits the unique index
// and the stored result is returned instead of re-applying the change.
type TransitionReceipt struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Token        string    `gorm:"type:varchar(80);not null;uniqueIndex:ux_transition_receipts_token"`
	Kind         string    `gorm:"type:varchar(40);not null"`
	UserID       uuid.UUID `gorm:"type:uuid;not null"`
	OrderNumbers []string  `gorm:"serializer:json;type:jsonb"`
	AppliedAt    time.Time `gorm:"autoCreateTime"`
}

func (r *TransitionReceipt) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (TransitionReceipt) TableName() string { return "transition_receipts" }
