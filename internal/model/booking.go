package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingStatus enum constants
const (
	BookingPending           = "PENDING"
	BookingVerified          = "VERIFIED"
	BookingCompleted         = "COMPLETED"
	BookingCompletedNoVerify = "COMPLETED_NO_VERIFICATION"
	BookingCancelled         = "CANCELLED"
)

// Booking represents a rental reservation. The verification code is generated
// once at creation, stored digits-only and globally unique; it is presented to
// the customer as "XXX XXX" and entered by staff at the counter to complete
// the rental and award points.
//
// Invariants:
//   - IsVerified == true implies Status is VERIFIED or COMPLETED
//   - PointsAwarded > 0 only when IsVerified == true
//   - a terminal status (COMPLETED, COMPLETED_NO_VERIFICATION, CANCELLED) is never left
type Booking struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User              User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	VehicleType       string          `gorm:"type:varchar(50);not null" json:"vehicle_type"`
	VehicleID         string          `gorm:"type:varchar(50);not null" json:"vehicle_id"`
	StartTime         time.Time       `gorm:"not null" json:"start_time"`
	EndTime           time.Time       `gorm:"not null;index" json:"end_time"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_price"` // EUR
	DurationHours     float64         `gorm:"not null" json:"duration_hours"`
	EstimatedKm       float64         `gorm:"not null;default:0" json:"estimated_km"`
	VerificationCode  string          `gorm:"type:varchar(6);uniqueIndex;not null" json:"-"` // digits only
	IsVerified        bool            `gorm:"not null;default:false;index" json:"is_verified"`
	PointsAwarded     int64           `gorm:"not null;default:0" json:"points_awarded"`
	Status            string          `gorm:"type:varchar(30);not null;default:'PENDING';index" json:"status"`
	ResolutionNote    string          `gorm:"type:text" json:"resolution_note,omitempty"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
	ExpiryPromptedAt  *time.Time      `json:"-"` // set once the expiry confirmation has been offered
	VerifyIdempotency *string         `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether the booking can no longer change status.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingCompleted, BookingCompletedNoVerify, BookingCancelled:
		return true
	}
	return false
}
