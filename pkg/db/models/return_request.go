package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/enums"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// ReturnRequest is one returned line item from a completed order.
// Settlement is external; rows stay "pending" here.
type ReturnRequest struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID     uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	OrderNumber string                  `gorm:"column:order_number;not null"`
	Line        types.OrderLineSnapshot `gorm:"column:line;type:jsonb;serializer:json"`
	Reason      enums.ReturnReason      `gorm:"column:reason;not null"`
	Description string                  `gorm:"column:description;not null"`
	Method      enums.ReturnMethod      `gorm:"column:method;not null"`
	PickupDate  *time.Time              `gorm:"column:pickup_date"`
	Carrier     *string                 `gorm:"column:carrier"`
	Address     types.ShippingAddress   `gorm:"column:address;type:jsonb;serializer:json"`
	RefundCents int                     `gorm:"column:refund_cents;not null"`
	Status      enums.ReturnStatus      `gorm:"column:status;not null;default:'pending'"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id when the caller did not.
func (r *ReturnRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
