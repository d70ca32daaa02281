package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, c *model.Contact) error
	List(ctx context.Context, page, limit int) ([]model.Contact, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context) (int64, error)
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, c *model.Contact) error {
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *contactRepository) List(ctx context.Context, page, limit int) ([]model.Contact, int64, error) {
	var messages []model.Contact
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Contact{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *contactRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Model(&model.Contact{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contactRepository) CountUnread(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Contact{}).Where("is_read = ?", false).Count(&total).Error
	return total, err
}
