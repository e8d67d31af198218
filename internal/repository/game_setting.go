package repository

import (
	"context"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"gorm.io/gorm"
)

// GameSettingRepository 游戏设置仓储接口
type GameSettingRepository interface {
	BaseRepository
	Create(ctx context.Context, setting *models.GameSetting) error
	Update(ctx context.Context, setting *models.GameSetting) error
	FindByID(ctx context.Context, id uint) (*models.GameSetting, error)
	FindActiveByMode(ctx context.Context, mode models.GameMode) (*models.GameSetting, error)
	List(ctx context.Context, mode models.GameMode, p *Pagination) ([]*models.GameSetting, error)
}

type gameSettingRepo struct {
	*BaseRepo
}

// NewGameSettingRepository 创建游戏设置仓储
func NewGameSettingRepository(db *gorm.DB) GameSettingRepository {
	return &gameSettingRepo{BaseRepo: NewBaseRepo(db)}
}

// Create 创建设置，同模式已有启用设置时返回冲突
func (r *gameSettingRepo) Create(ctx context.Context, setting *models.GameSetting) error {
	err := r.db.WithContext(ctx).Create(setting).Error
	return writeError(err, apperrors.ErrSettingConflict, apperrors.ErrDatabaseInsert)
}

// Update 更新设置
func (r *gameSettingRepo) Update(ctx context.Context, setting *models.GameSetting) error {
	err := r.db.WithContext(ctx).Save(setting).Error
	return writeError(err, apperrors.ErrSettingConflict, apperrors.ErrDatabaseUpdate)
}

// FindByID 根据ID查找
func (r *gameSettingRepo) FindByID(ctx context.Context, id uint) (*models.GameSetting, error) {
	var setting models.GameSetting
	if err := r.db.WithContext(ctx).First(&setting, id).Error; err != nil {
		return nil, queryError(err, apperrors.ErrSettingNotFound)
	}
	return &setting, nil
}

// FindActiveByMode 查找模式当前启用的设置
func (r *gameSettingRepo) FindActiveByMode(ctx context.Context, mode models.GameMode) (*models.GameSetting, error) {
	var setting models.GameSetting
	err := r.db.WithContext(ctx).
		Where("game_mode = ? AND is_active = ?", mode, true).
		First(&setting).Error
	if err != nil {
		return nil, queryError(err, apperrors.ErrSettingNotFound)
	}
	return &setting, nil
}

// List 分页列出设置，mode为空时列出全部
func (r *gameSettingRepo) List(ctx context.Context, mode models.GameMode, p *Pagination) ([]*models.GameSetting, error) {
	byMode := func(db *gorm.DB) *gorm.DB {
		if mode != "" {
			return db.Where("game_mode = ?", mode)
		}
		return db
	}

	err := r.db.WithContext(ctx).Model(&models.GameSetting{}).Scopes(byMode).Count(&p.Total).Error
	if err != nil {
		return nil, queryError(err, apperrors.ErrSettingNotFound)
	}

	var settings []*models.GameSetting
	err = r.db.WithContext(ctx).
		Scopes(byMode, Paginate(p)).
		Order("game_mode, id").
		Find(&settings).Error
	if err != nil {
		return nil, queryError(err, apperrors.ErrSettingNotFound)
	}
	return settings, nil
}
