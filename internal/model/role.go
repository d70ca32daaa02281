package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission codes checked by middleware.RequirePermission.
const (
	PermPickupsAssign = "pickups.assign"
	PermPickupsRead   = "pickups.read"
	PermUsersManage   = "users.manage"
	PermAnalyticsRead = "analytics.read"
	PermReportsWrite  = "reports.write"
	PermMessagesRead  = "messages.read"
	PermAuditRead     = "audit.read"
)

// Role mirrors a User.Role value and carries the permissions granted to it
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Permission represents a single permission that can be assigned to roles
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"`
}

func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// DefaultRolePermissions is the grant table seeded at startup.
var DefaultRolePermissions = map[string][]string{
	RoleAdmin: {
		PermPickupsAssign, PermPickupsRead, PermUsersManage, PermAnalyticsRead,
		PermReportsWrite, PermMessagesRead, PermAuditRead,
	},
	RoleNGO:       {PermAnalyticsRead, PermReportsWrite},
	RoleCollector: {PermPickupsRead},
	RoleHousehold: {},
	RoleBusiness:  {},
}
