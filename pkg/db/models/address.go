package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a saved shipping address in the user's address book. At most
// one address per user carries IsDefault; checkout snapshots the chosen
// address into the order so later edits never rewrite history.
type Address struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:ix_addresses_user" json:"user_id"`
	RecipientName string    `gorm:"type:varchar(120);not null" json:"recipient_name"`
	Phone         string    `gorm:"type:varchar(32);not null" json:"phone"`
	Line1         string    `gorm:"type:varchar(200);not null" json:"line1"`
	Line2         *string   `gorm:"type:varchar(200)" json:"line2,omitempty"`
	City          string    `gorm:"type:varchar(80);not null" json:"city"`
	Province      string    `gorm:"type:varchar(80);not null" json:"province"`
	PostalCode    string    `gorm:"type:varchar(16);not null" json:"postal_code"`
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (a *Address) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (Address) TableName() string { return "addresses" }
