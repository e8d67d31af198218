package repository

import (
	"context"
	"math/rand"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"gorm.io/gorm"
)

// CityRepository 世界城市参考数据仓储
type CityRepository interface {
	BaseRepository
	Create(ctx context.Context, city *models.City) error
	Count(ctx context.Context) (int64, error)
	// FindRandom 随机返回一个城市，没有城市时返回nil
	FindRandom(ctx context.Context) (*models.City, error)
}

type cityRepo struct {
	*BaseRepo
	pick func(n int64) int64
}

// NewCityRepository 创建城市仓储
func NewCityRepository(db *gorm.DB) CityRepository {
	return &cityRepo{BaseRepo: NewBaseRepo(db), pick: rand.Int63n}
}

// Create 创建城市
func (r *cityRepo) Create(ctx context.Context, city *models.City) error {
	if err := r.db.WithContext(ctx).Create(city).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	return nil
}

// Count 城市数量
func (r *cityRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.City{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return count, nil
}

// FindRandom 按随机偏移取一条
func (r *cityRepo) FindRandom(ctx context.Context) (*models.City, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	var city models.City
	err = r.db.WithContext(ctx).
		Order("id ASC").
		Offset(int(r.pick(count))).
		Limit(1).
		Find(&city).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if city.ID == 0 {
		// 计数与读取之间城市被删除
		return nil, nil
	}
	return &city, nil
}
