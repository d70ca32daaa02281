package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PickupStatus is the lifecycle state of a PickupRequest.
type PickupStatus string

const (
	PickupPending        PickupStatus = "PENDING"
	PickupAssigned       PickupStatus = "ASSIGNED"
	PickupPaymentPending PickupStatus = "PAYMENT_PENDING"
	PickupPaid           PickupStatus = "PAID"
	PickupCompleted      PickupStatus = "COMPLETED"
)

// pickupTransitions lists the forward moves allowed from each state.
// ASSIGNED -> PENDING is the only backward edge (reject/unassign).
var pickupTransitions = map[PickupStatus][]PickupStatus{
	PickupPending:        {PickupAssigned},
	PickupAssigned:       {PickupPending, PickupPaymentPending, PickupCompleted},
	PickupPaymentPending: {PickupPaymentPending, PickupPaid, PickupCompleted},
	PickupPaid:           {PickupCompleted},
	PickupCompleted:      nil,
}

// ParsePickupStatus reports whether s names a known status.
func ParsePickupStatus(s string) (PickupStatus, bool) {
	st := PickupStatus(s)
	_, ok := pickupTransitions[st]
	return st, ok
}

// CanTransition reports whether a pickup may move from one status to another.
func CanTransition(from, to PickupStatus) bool {
	for _, next := range pickupTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PickupRequest is a scheduled waste pickup raised by a household or business.
type PickupRequest struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User            User             `gorm:"foreignKey:UserID" json:"-"`
	CollectorID     *uuid.UUID       `gorm:"type:uuid;index" json:"collector_id"`
	Collector       *Collector       `gorm:"foreignKey:CollectorID" json:"-"`
	WasteType       string           `gorm:"type:varchar(50);not null;index" json:"waste_type"`
	ScheduledAt     time.Time        `gorm:"not null;index" json:"scheduled_at"`
	Notes           string           `gorm:"type:varchar(500)" json:"notes"`
	PickupFrequency string           `gorm:"type:varchar(20)" json:"pickup_frequency"`
	Latitude        *decimal.Decimal `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude       *decimal.Decimal `gorm:"type:decimal(10,7)" json:"longitude"`
	Status          PickupStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *PickupRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = PickupPending
	}
	return nil
}

// TrackingLog is a collector position recorded against a pickup.
type TrackingLog struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PickupID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"pickup_id"`
	Latitude  decimal.Decimal `gorm:"type:decimal(10,7);not null" json:"latitude"`
	Longitude decimal.Decimal `gorm:"type:decimal(10,7);not null" json:"longitude"`
	Timestamp time.Time       `gorm:"not null;index" json:"timestamp"`
}

func (t *TrackingLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	return nil
}

// WasteLog records the weight actually collected for a pickup.
type WasteLog struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PickupID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"pickup_id"`
	Pickup      PickupRequest   `gorm:"foreignKey:PickupID" json:"-"`
	WasteType   string          `gorm:"type:varchar(50);not null;index" json:"waste_type"`
	WeightKg    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"weight_kg"`
	CollectedAt time.Time       `gorm:"not null" json:"collected_at"`
	PhotoURL    string          `gorm:"type:varchar(500)" json:"photo_url"`
	Notes       string          `gorm:"type:varchar(500)" json:"notes"`
}

func (w *WasteLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	if w.CollectedAt.IsZero() {
		w.CollectedAt = time.Now()
	}
	return nil
}

// EcoReward is an append-only ledger entry of points granted to a user.
type EcoReward struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	PickupID     *uuid.UUID `gorm:"type:uuid;index" json:"pickup_id"`
	PointsEarned int        `gorm:"not null" json:"points_earned"`
	RewardType   string     `gorm:"type:varchar(100);not null" json:"reward_type"`
	EarnedOn     time.Time  `gorm:"not null;index" json:"earned_on"`
}

func (e *EcoReward) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	if e.EarnedOn.IsZero() {
		e.EarnedOn = time.Now()
	}
	return nil
}

// RewardLabelPrefix prefixes EcoReward.RewardType for collection rewards.
const RewardLabelPrefix = "Waste Collection - "
