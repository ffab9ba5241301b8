package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceRequestStatus enum constants
const (
	ServicePending    = "PENDING"
	ServiceConfirmed  = "CONFIRMED"
	ServiceInProgress = "IN_PROGRESS"
	ServiceCompleted  = "COMPLETED"
	ServiceCancelled  = "CANCELLED"
)

// ServiceRequest is a technical service ticket (battery swap, repair pickup,
// maintenance). It carries no points or discount interaction.
type ServiceRequest struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Category     string    `gorm:"type:varchar(50);not null" json:"category"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	ContactName  string    `gorm:"type:varchar(255)" json:"contact_name"`
	ContactPhone string    `gorm:"type:varchar(20)" json:"contact_phone"`
	Status       string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *ServiceRequest) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
