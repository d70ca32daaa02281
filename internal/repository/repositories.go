package repository

import "gorm.io/gorm"

// Repositories bundles every repository over one *gorm.DB.
type Repositories struct {
	Users       UserRepository
	Roles       RoleRepository
	Households  HouseholdRepository
	Businesses  BusinessRepository
	Collectors  CollectorRepository
	NGOs        NGORepository
	Pickups     PickupRepository
	WasteLogs   WasteLogRepository
	Rewards     RewardRepository
	Payments    PaymentRepository
	Revenue     RevenueRepository
	Tracking    TrackingRepository
	Contacts    ContactRepository
	Audit       AuditRepository
	Statistics  StatisticsRepository
	Transaction TransactionManager
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(db),
		Roles:       NewRoleRepository(db),
		Households:  NewHouseholdRepository(db),
		Businesses:  NewBusinessRepository(db),
		Collectors:  NewCollectorRepository(db),
		NGOs:        NewNGORepository(db),
		Pickups:     NewPickupRepository(db),
		WasteLogs:   NewWasteLogRepository(db),
		Rewards:     NewRewardRepository(db),
		Payments:    NewPaymentRepository(db),
		Revenue:     NewRevenueRepository(db),
		Tracking:    NewTrackingRepository(db),
		Contacts:    NewContactRepository(db),
		Audit:       NewAuditRepository(db),
		Statistics:  NewStatisticsRepository(db),
		Transaction: NewTransactionManager(db),
	}
}
