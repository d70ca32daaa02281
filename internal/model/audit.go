package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionRegisterUser      = "REGISTER_USER"
	ActionUpdateUserStatus  = "UPDATE_USER_STATUS"
	ActionCreatePickup      = "CREATE_PICKUP"
	ActionDeletePickup      = "DELETE_PICKUP"
	ActionAssignPickup      = "ASSIGN_PICKUP"
	ActionRejectPickup      = "REJECT_PICKUP"
	ActionUpdatePickupState = "UPDATE_PICKUP_STATUS"
	ActionCompletePickup    = "COMPLETE_PICKUP"
	ActionGenerateBill      = "GENERATE_BILL"
	ActionVerifyPayment     = "VERIFY_PAYMENT"
)

// AuditLog tracks Who, What, and When for state changes on pickups, payments and users
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for gateway callbacks
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
