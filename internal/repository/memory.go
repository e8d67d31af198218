package repository

import (
	"context"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"gorm.io/gorm"
)

// MemoryRepository 会员回忆查询仓储，回忆本身由回忆模块维护
type MemoryRepository interface {
	BaseRepository
	Create(ctx context.Context, memory *models.Memory) error
	FindGeotaggedWithImages(ctx context.Context, userID uint) ([]*models.Memory, error)
	CountGeotaggedWithImages(ctx context.Context, userID uint) (int64, error)
}

type memoryRepo struct {
	*BaseRepo
}

// NewMemoryRepository 创建回忆仓储
func NewMemoryRepository(db *gorm.DB) MemoryRepository {
	return &memoryRepo{BaseRepo: NewBaseRepo(db)}
}

// Create 创建回忆（连同地点和照片）
func (r *memoryRepo) Create(ctx context.Context, memory *models.Memory) error {
	if err := r.db.WithContext(ctx).Create(memory).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	return nil
}

// geotaggedWithImages 带地点且至少有一张照片的回忆
func geotaggedWithImages(userID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("memories.user_id = ? AND memories.location_id IS NOT NULL", userID).
			Where("EXISTS (SELECT 1 FROM locations WHERE locations.id = memories.location_id AND locations.deleted_at IS NULL)").
			Where("EXISTS (SELECT 1 FROM memory_images WHERE memory_images.memory_id = memories.id)")
	}
}

// FindGeotaggedWithImages 按ID顺序返回可出题的回忆
func (r *memoryRepo) FindGeotaggedWithImages(ctx context.Context, userID uint) ([]*models.Memory, error) {
	var memories []*models.Memory
	err := r.db.WithContext(ctx).
		Scopes(geotaggedWithImages(userID)).
		Preload("Location").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Order("memories.id ASC").
		Find(&memories).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return memories, nil
}

// CountGeotaggedWithImages 可出题的回忆数量
func (r *memoryRepo) CountGeotaggedWithImages(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Memory{}).
		Scopes(geotaggedWithImages(userID)).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return count, nil
}
