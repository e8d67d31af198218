package service

import (
	"github.com/wfunc/geo-guess/internal/repository"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	GameSetting GameSettingService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Manager, log *zap.Logger) *Services {
	if log == nil {
		log = zap.NewNop()
	}
	return &Services{
		GameSetting: NewGameSettingService(repos, log.Named("setting")),
	}
}
