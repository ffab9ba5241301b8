package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthMethod enum constants
const (
	AuthMethodEmail  = "EMAIL"
	AuthMethodGoogle = "GOOGLE"
)

// Role enum constants
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// User represents the central identity record for customers and operators
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Phone       string     `gorm:"type:varchar(20)" json:"phone"`
	AuthMethod  string     `gorm:"type:varchar(20);not null;default:'EMAIL'" json:"auth_method"` // EMAIL, GOOGLE
	GoogleID    *string    `gorm:"type:varchar(255);index" json:"-"`                             // external provider id, GOOGLE only
	Password    string     `gorm:"type:varchar(255)" json:"-"`                                   // bcrypt hash, EMAIL only
	Role        string     `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`     // customer, staff, admin
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the UUID in-process so the model works on both the
// postgres and sqlite drivers.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
