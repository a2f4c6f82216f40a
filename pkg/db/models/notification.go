package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/enums"
)

// Notification is a persisted in-app notification produced by the
// order-event consumer. Rows are append-only; ReadAt is the only
// mutable column.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null;index:ix_notifications_user_created" json:"user_id"`
	Type      enums.NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title     string                 `gorm:"type:varchar(120);not null" json:"title"`
	Message   string                 `gorm:"type:text;not null" json:"message"`
	OrderID   *uuid.UUID             `gorm:"type:uuid" json:"order_id,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `gorm:"index:ix_notifications_user_created" json:"created_at"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (Notification) TableName() string { return "notifications" }
