package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FrequencyDaily   = "DAILY"
	FrequencyWeekly  = "WEEKLY"
	FrequencyMonthly = "MONTHLY"
)

const (
	CollectorActive = "ACTIVE"
	CollectorBusy   = "BUSY"
)

// MaxSustainabilityScore caps BusinessDetail.SustainabilityScore.
const MaxSustainabilityScore = 100

// HouseholdDetail holds the running reward totals of a household.
// LeaderboardRank is derived and only as fresh as the last recompute.
type HouseholdDetail struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User            User            `gorm:"foreignKey:UserID" json:"-"`
	TotalWasteKg    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_waste_kg"`
	EcoPoints       int             `gorm:"not null;default:0;index" json:"eco_points"`
	LeaderboardRank int             `gorm:"not null;default:0" json:"leaderboard_rank"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (h *HouseholdDetail) BeforeCreate(tx *gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

type BusinessDetail struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User                User      `gorm:"foreignKey:UserID" json:"-"`
	BusinessType        string    `gorm:"type:varchar(100)" json:"business_type"`
	PickupFrequency     string    `gorm:"type:varchar(20);not null;default:WEEKLY" json:"pickup_frequency"`
	SustainabilityScore int       `gorm:"not null;default:0" json:"sustainability_score"`
	PaymentEnabled      bool      `gorm:"not null;default:true" json:"payment_enabled"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (b *BusinessDetail) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	if b.PickupFrequency == "" {
		b.PickupFrequency = FrequencyWeekly
	}
	return nil
}

type Collector struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User       User             `gorm:"foreignKey:UserID" json:"-"`
	Status     string           `gorm:"type:varchar(20);not null;default:ACTIVE" json:"status"`
	CurrentLat *decimal.Decimal `gorm:"type:decimal(10,7)" json:"current_lat"`
	CurrentLng *decimal.Decimal `gorm:"type:decimal(10,7)" json:"current_lng"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (c *Collector) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	if c.Status == "" {
		c.Status = CollectorActive
	}
	return nil
}

type NGO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Name      string    `gorm:"type:varchar(150)" json:"name"`
	City      string    `gorm:"type:varchar(100);index" json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *NGO) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// NGOReport is a snapshot an NGO files for its city.
type NGOReport struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	NGOID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"ngo_id"`
	NGO         NGO             `gorm:"foreignKey:NGOID" json:"-"`
	TotalWaste  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_waste"`
	CarbonSaved decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"carbon_saved"`
	GeneratedOn time.Time       `gorm:"index" json:"generated_on"`
}

func (r *NGOReport) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.GeneratedOn.IsZero() {
		r.GeneratedOn = time.Now()
	}
	return nil
}
