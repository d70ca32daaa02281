package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrackingRepository interface {
	Append(ctx context.Context, entry *model.TrackingLog) error
	ListByPickup(ctx context.Context, pickupID uuid.UUID) ([]model.TrackingLog, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.TrackingLog, error)
}

type trackingRepository struct {
	db *gorm.DB
}

func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

func (r *trackingRepository) Append(ctx context.Context, entry *model.TrackingLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *trackingRepository) ListByPickup(ctx context.Context, pickupID uuid.UUID) ([]model.TrackingLog, error) {
	var logs []model.TrackingLog
	if err := GetDB(ctx, r.db).
		Where("pickup_id = ?", pickupID).
		Order("timestamp ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// ListByUser returns the latest positions recorded on any pickup the user requested.
func (r *trackingRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.TrackingLog, error) {
	var logs []model.TrackingLog
	if err := GetDB(ctx, r.db).
		Joins("JOIN pickup_requests ON pickup_requests.id = tracking_logs.pickup_id").
		Where("pickup_requests.user_id = ?", userID).
		Order("tracking_logs.timestamp DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
