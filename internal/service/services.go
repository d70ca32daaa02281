package service

import (
	"log/slog"
	"time"

	"bintobloom/internal/events"
	"bintobloom/internal/lock"
	"bintobloom/internal/payment"
	"bintobloom/internal/repository"
	"bintobloom/internal/reward"
)

// Options carries the collaborators shared by the services. Zero values fall back to
// in-process defaults: no-op events, an in-memory lock and the system clock.
type Options struct {
	Calculator    *reward.Calculator
	Gateway       payment.Gateway
	Locker        lock.Locker
	Publisher     events.Publisher
	Searcher      PickupSearcher
	Clock         Clock
	JWTSecret     string
	TokenTTL      time.Duration
	Currency      string
	VerifyLockTTL time.Duration
	Logger        *slog.Logger
}

// Services is every domain service wired over one set of repositories.
type Services struct {
	Users       UserService
	Roles       RoleService
	Pickups     PickupService
	Billing     BillingService
	Leaderboard LeaderboardService
	Households  HouseholdService
	Businesses  BusinessService
	Collectors  CollectorService
	NGOs        NGOService
	Analytics   AnalyticsService
	Revenue     RevenueService
	Admin       AdminService
	Contacts    ContactService
	Audit       AuditService
}

func New(repos *repository.Repositories, opts Options) *Services {
	if opts.Calculator == nil {
		opts.Calculator = reward.NewCalculator(nil)
	}
	if opts.Locker == nil {
		opts.Locker = lock.NewMemory()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Clock.Now == nil {
		opts.Clock = SystemClock(opts.Clock.Location)
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Currency == "" {
		opts.Currency = "inr"
	}
	if opts.VerifyLockTTL <= 0 {
		opts.VerifyLockTTL = VerifyLockTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	leaderboard := &leaderboardService{households: repos.Households, businesses: repos.Businesses, txManager: repos.Transaction}
	completer := &completer{repos: repos, calc: opts.Calculator, leaderboard: leaderboard}
	analytics := NewAnalyticsService(repos.Statistics)

	return &Services{
		Users:       newUserService(repos, opts.JWTSecret, opts.TokenTTL, opts.Clock),
		Roles:       NewRoleService(repos.Roles),
		Pickups:     newPickupService(repos, completer, opts.Publisher, opts.Clock, opts.Logger),
		Leaderboard: leaderboard,
		Billing: &billingService{
			repos:     repos,
			completer: completer,
			gateway:   opts.Gateway,
			locker:    opts.Locker,
			lockTTL:   opts.VerifyLockTTL,
			publisher: opts.Publisher,
			currency:  opts.Currency,
			clock:     opts.Clock,
			log:       opts.Logger,
		},
		Households: &householdService{repos: repos, leaderboard: leaderboard},
		Businesses: &businessService{repos: repos, completer: completer},
		Collectors: &collectorService{repos: repos},
		NGOs:       &ngoService{repos: repos, clock: opts.Clock},
		Analytics:  analytics,
		Revenue:    NewRevenueService(repos.Revenue, opts.Clock),
		Admin:      &adminService{repos: repos, analytics: analytics, searcher: opts.Searcher, clock: opts.Clock},
		Contacts:   NewContactService(repos.Contacts),
		Audit:      NewAuditService(repos.Audit),
	}
}
