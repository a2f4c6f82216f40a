package models

import (
	"time"

	"github.com/google/uuid"
)

// Measurement stores a user's body measurements (centimeters and
// kilograms) together with the derived size recommendations. The
// derived values are a convenience, not authoritative; re-saving
// recomputes them.
type Measurement struct {
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	HeightCM   float64   `gorm:"column:height_cm;not null"`
	WeightKG   float64   `gorm:"column:weight_kg;not null"`
	WaistCM    float64   `gorm:"column:waist_cm;not null"`
	ShoulderCM float64   `gorm:"column:shoulder_cm;not null"`
	ChestCM    float64   `gorm:"column:chest_cm;not null"`
	HipsCM     float64   `gorm:"column:hips_cm;not null"`
	BustCM     float64   `gorm:"column:bust_cm;not null"`
	TopSize    string    `gorm:"column:top_size;not null"`
	BottomSize string    `gorm:"column:bottom_size;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
