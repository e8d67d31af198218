package service

import (
	"context"

	"github.com/wfunc/geo-guess/internal/models"
)

// GameSettingService 游戏设置管理服务接口（管理员使用）
type GameSettingService interface {
	// CreateSetting 创建设置，启用时同模式不能已有启用设置
	CreateSetting(ctx context.Context, req *CreateSettingRequest) (*models.GameSetting, error)
	// UpdateSetting 部分更新设置，包括启用和停用
	UpdateSetting(ctx context.Context, id uint, req *UpdateSettingRequest) (*models.GameSetting, error)
	GetSetting(ctx context.Context, id uint) (*models.GameSetting, error)
	// ListSettings 分页列出设置，mode为空时列出全部
	ListSettings(ctx context.Context, mode models.GameMode, page, pageSize int) ([]*models.GameSetting, int64, error)
}

// CreateSettingRequest 创建设置请求
type CreateSettingRequest struct {
	GameMode                  models.GameMode `json:"game_mode" binding:"required"`
	MaxQuestions              int             `json:"max_questions"`
	TimeLimitSeconds          int             `json:"time_limit_seconds"`
	MaxDistanceForFullScoreKm float64         `json:"max_distance_for_full_score_km"`
	IsActive                  bool            `json:"is_active"`
	Description               string          `json:"description" binding:"max=255"`
}

// UpdateSettingRequest 更新设置请求，为空的字段保持不变
type UpdateSettingRequest struct {
	MaxQuestions              *int     `json:"max_questions"`
	TimeLimitSeconds          *int     `json:"time_limit_seconds"`
	MaxDistanceForFullScoreKm *float64 `json:"max_distance_for_full_score_km"`
	IsActive                  *bool    `json:"is_active"`
	Description               *string  `json:"description"`
}
