package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PickupFilter narrows List. Empty fields are ignored.
type PickupFilter struct {
	UserID      *uuid.UUID
	CollectorID *uuid.UUID
	Status      model.PickupStatus
	Page        int
	Limit       int
}

type PickupRepository interface {
	Create(ctx context.Context, p *model.PickupRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PickupRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PickupRequest, error)
	Update(ctx context.Context, p *model.PickupRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter PickupFilter) ([]model.PickupRequest, int64, error)
	ListAvailable(ctx context.Context) ([]model.PickupRequest, error)
	CountByCollector(ctx context.Context, collectorID uuid.UUID) (map[model.PickupStatus]int64, error)
	CountByStatus(ctx context.Context) (map[model.PickupStatus]int64, error)
}

type pickupRepository struct {
	db *gorm.DB
}

func NewPickupRepository(db *gorm.DB) PickupRepository {
	return &pickupRepository{db: db}
}

func (r *pickupRepository) Create(ctx context.Context, p *model.PickupRequest) error {
	return GetDB(ctx, r.db).Omit("User", "Collector").Create(p).Error
}

func (r *pickupRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PickupRequest, error) {
	var p model.PickupRequest
	if err := GetDB(ctx, r.db).Preload("User").Preload("Collector.User").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDForUpdate loads the pickup with a row lock where the dialect supports one.
// Call it inside RunInTx.
func (r *pickupRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PickupRequest, error) {
	var p model.PickupRequest
	if err := forUpdate(GetDB(ctx, r.db)).Preload("User").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pickupRepository) Update(ctx context.Context, p *model.PickupRequest) error {
	return GetDB(ctx, r.db).Omit("User", "Collector").Save(p).Error
}

func (r *pickupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PickupRequest{}).Error
}

func (r *pickupRepository) List(ctx context.Context, filter PickupFilter) ([]model.PickupRequest, int64, error) {
	var pickups []model.PickupRequest
	var total int64

	db := GetDB(ctx, r.db)
	scope := func(q *gorm.DB) *gorm.DB {
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		if filter.CollectorID != nil {
			q = q.Where("collector_id = ?", *filter.CollectorID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}

	if err := scope(db.Model(&model.PickupRequest{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := scope(db.Preload("User").Preload("Collector.User")).Order("created_at DESC")
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		fetch = fetch.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}
	if err := fetch.Find(&pickups).Error; err != nil {
		return nil, 0, err
	}

	return pickups, total, nil
}

// ListAvailable returns unassigned PENDING pickups, soonest first.
func (r *pickupRepository) ListAvailable(ctx context.Context) ([]model.PickupRequest, error) {
	var pickups []model.PickupRequest
	if err := GetDB(ctx, r.db).Preload("User").
		Where("status = ? AND collector_id IS NULL", model.PickupPending).
		Order("scheduled_at ASC").
		Find(&pickups).Error; err != nil {
		return nil, err
	}
	return pickups, nil
}

func (r *pickupRepository) CountByCollector(ctx context.Context, collectorID uuid.UUID) (map[model.PickupStatus]int64, error) {
	return r.countByStatus(GetDB(ctx, r.db).Model(&model.PickupRequest{}).Where("collector_id = ?", collectorID))
}

func (r *pickupRepository) CountByStatus(ctx context.Context) (map[model.PickupStatus]int64, error) {
	return r.countByStatus(GetDB(ctx, r.db).Model(&model.PickupRequest{}))
}

func (r *pickupRepository) countByStatus(q *gorm.DB) (map[model.PickupStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := q.Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[model.PickupStatus]int64, len(rows))
	for _, row := range rows {
		out[model.PickupStatus(row.Status)] = row.Count
	}
	return out, nil
}
