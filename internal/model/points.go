package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger reason tags
const (
	ReasonRentalCompletion   = "rental_completion"
	ReasonDiscountRedemption = "discount_redemption"
)

// PointsLedgerEntry is one signed transaction in the append-only points ledger.
// A user's balance is always the sum of their entries; there is no materialized
// counter. Entries are never updated or deleted outside the bulk history wipe.
type PointsLedgerEntry struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BookingID   *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"` // set for earn-on-completion entries
	Points      int64      `gorm:"not null" json:"points"`                      // positive = earned, negative = spent
	Reason      string     `gorm:"type:varchar(50);not null;index" json:"reason"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (e *PointsLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
