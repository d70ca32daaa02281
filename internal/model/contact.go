package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a message submitted through the public contact form
type Contact struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Subject   string    `gorm:"type:varchar(200);not null" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
