package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountStatus enum constants
const (
	DiscountPending   = "PENDING"
	DiscountValidated = "VALIDATED"
	DiscountExpired   = "EXPIRED"
	DiscountCancelled = "CANCELLED"
)

// Reward kind constants. A FREE_RENTAL discount carries Amount = 0 and the
// entitlement is described by Description.
const (
	RewardEuroAmount = "EURO_AMOUNT"
	RewardFreeRental = "FREE_RENTAL"
)

// Discount is a single-use redemption artifact minted from a points balance.
// Status moves PENDING→VALIDATED (staff action), PENDING→EXPIRED (lazily, at
// lookup once ExpiresAt has passed) or PENDING→CANCELLED; all three are terminal.
type Discount struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User           User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PointsSpent    int64           `gorm:"not null" json:"points_spent"`
	RewardKind     string          `gorm:"type:varchar(20);not null" json:"reward_kind"`    // EURO_AMOUNT, FREE_RENTAL
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`       // EUR, 0 for FREE_RENTAL
	Description    string          `gorm:"type:text;not null" json:"description"`
	Code           string          `gorm:"type:varchar(6);uniqueIndex;not null" json:"code"` // digits only
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ExpiresAt      time.Time       `gorm:"not null" json:"expires_at"`
	ValidatedAt    *time.Time      `json:"validated_at,omitempty"`
	ValidatedBy    *uuid.UUID      `gorm:"type:uuid" json:"validated_by,omitempty"`
	Validator      *User           `gorm:"foreignKey:ValidatedBy" json:"-"`
	IdempotencyKey *string         `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Discount) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
