package service

import (
	"context"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"github.com/wfunc/geo-guess/internal/repository"
	"go.uber.org/zap"
)

// gameSettingService 游戏设置服务实现
type gameSettingService struct {
	repos *repository.Manager
	log   *zap.Logger
}

// NewGameSettingService 创建游戏设置服务
func NewGameSettingService(repos *repository.Manager, log *zap.Logger) GameSettingService {
	return &gameSettingService{
		repos: repos,
		log:   log,
	}
}

// CreateSetting 创建设置
func (s *gameSettingService) CreateSetting(ctx context.Context, req *CreateSettingRequest) (*models.GameSetting, error) {
	setting := &models.GameSetting{
		GameMode:                  req.GameMode,
		MaxQuestions:              req.MaxQuestions,
		TimeLimitSeconds:          req.TimeLimitSeconds,
		MaxDistanceForFullScoreKm: req.MaxDistanceForFullScoreKm,
		IsActive:                  req.IsActive,
		Description:               req.Description,
	}
	if err := setting.Validate(); err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidSetting, err.Error())
	}

	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		if err := s.checkActivation(ctx, tx, setting); err != nil {
			return err
		}
		return tx.GameSetting().Create(ctx, setting)
	})
	if err != nil {
		s.log.Warn("Failed to create game setting", zap.Error(err), zap.String("mode", string(req.GameMode)))
		return nil, err
	}

	s.log.Info("Game setting created",
		zap.Uint("settingID", setting.ID),
		zap.String("mode", string(setting.GameMode)),
		zap.Bool("active", setting.IsActive),
	)
	return setting, nil
}

// UpdateSetting 更新设置
func (s *gameSettingService) UpdateSetting(ctx context.Context, id uint, req *UpdateSettingRequest) (*models.GameSetting, error) {
	var setting *models.GameSetting
	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		var err error
		setting, err = tx.GameSetting().FindByID(ctx, id)
		if err != nil {
			return err
		}

		applyUpdate(setting, req)
		if err := setting.Validate(); err != nil {
			return apperrors.New(apperrors.ErrInvalidSetting, err.Error())
		}
		if err := s.checkActivation(ctx, tx, setting); err != nil {
			return err
		}
		return tx.GameSetting().Update(ctx, setting)
	})
	if err != nil {
		s.log.Warn("Failed to update game setting", zap.Error(err), zap.Uint("settingID", id))
		return nil, err
	}

	s.log.Info("Game setting updated",
		zap.Uint("settingID", setting.ID),
		zap.String("mode", string(setting.GameMode)),
		zap.Bool("active", setting.IsActive),
	)
	return setting, nil
}

// GetSetting 获取设置
func (s *gameSettingService) GetSetting(ctx context.Context, id uint) (*models.GameSetting, error) {
	return s.repos.GameSetting().FindByID(ctx, id)
}

// ListSettings 分页列出设置
func (s *gameSettingService) ListSettings(ctx context.Context, mode models.GameMode, page, pageSize int) ([]*models.GameSetting, int64, error) {
	if mode != "" && !mode.Valid() {
		return nil, 0, apperrors.Newf(apperrors.ErrUnsupportedMode, "mode=%s", mode)
	}

	p := repository.NewPagination(page, pageSize)
	settings, err := s.repos.GameSetting().List(ctx, mode, p)
	if err != nil {
		s.log.Error("Failed to list game settings", zap.Error(err))
		return nil, 0, err
	}
	return settings, p.Total, nil
}

// checkActivation 同一模式只能有一条启用的设置，数据库唯一索引兜底
func (s *gameSettingService) checkActivation(ctx context.Context, tx *repository.Transaction, setting *models.GameSetting) error {
	if !setting.IsActive {
		return nil
	}

	active, err := tx.GameSetting().FindActiveByMode(ctx, setting.GameMode)
	switch {
	case apperrors.Is(err, apperrors.ErrSettingNotFound):
		return nil
	case err != nil:
		return err
	case active.ID != setting.ID:
		return apperrors.Newf(apperrors.ErrSettingConflict, "active_setting_id=%d", active.ID)
	}
	return nil
}

func applyUpdate(setting *models.GameSetting, req *UpdateSettingRequest) {
	if req.MaxQuestions != nil {
		setting.MaxQuestions = *req.MaxQuestions
	}
	if req.TimeLimitSeconds != nil {
		setting.TimeLimitSeconds = *req.TimeLimitSeconds
	}
	if req.MaxDistanceForFullScoreKm != nil {
		setting.MaxDistanceForFullScoreKm = *req.MaxDistanceForFullScoreKm
	}
	if req.IsActive != nil {
		setting.IsActive = *req.IsActive
	}
	if req.Description != nil {
		setting.Description = *req.Description
	}
}
