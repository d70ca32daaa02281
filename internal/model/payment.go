package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentSuccess   = "SUCCESS"
	PaymentFailed    = "FAILED"
)

const (
	PaymentModeOnline = "ONLINE"
	PaymentModeUPI    = "UPI"
	PaymentModeCard   = "CARD"
	PaymentModeWallet = "WALLET"
)

// Payment is a bill or checkout order. COMPLETED and SUCCESS are terminal.
type Payment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	BusinessID       *uuid.UUID      `gorm:"type:uuid;index" json:"business_id"`
	PickupID         *uuid.UUID      `gorm:"type:uuid;index" json:"pickup_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Mode             string          `gorm:"type:varchar(20);not null" json:"mode"`
	Status           string          `gorm:"type:varchar(20);not null;index" json:"status"`
	GatewayOrderID   string          `gorm:"type:varchar(255);index" json:"gateway_order_id"`
	GatewayPaymentID string          `gorm:"type:varchar(255)" json:"gateway_payment_id"`
	GatewaySignature string          `gorm:"type:varchar(255)" json:"-"`
	PaymentDate      time.Time       `gorm:"not null;index" json:"payment_date"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = PaymentPending
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	return nil
}

// IsSettled reports whether the payment reached a terminal paid state.
func (p *Payment) IsSettled() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentSuccess
}
