package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleHousehold = "HOUSEHOLD"
	RoleBusiness  = "BUSINESS"
	RoleCollector = "COLLECTOR"
	RoleNGO       = "NGO"
	RoleAdmin     = "ADMIN"
)

const (
	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
)

// AllRoles lists every role a token may carry.
var AllRoles = []string{RoleHousehold, RoleBusiness, RoleCollector, RoleNGO, RoleAdmin}

// User is the account shared by every role; role-specific state lives in the detail tables.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Address   string         `gorm:"type:varchar(500)" json:"address"`
	City      string         `gorm:"type:varchar(100);index" json:"city"`
	Role      string         `gorm:"type:varchar(20);not null;index" json:"role"`
	Status    string         `gorm:"type:varchar(20);not null;default:ACTIVE" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// ensureID assigns a fresh UUID when the caller left the key empty.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
