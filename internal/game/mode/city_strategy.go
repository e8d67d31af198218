package mode

import (
	"context"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"github.com/wfunc/geo-guess/internal/repository"
)

// CityStrategy 从世界城市随机出题，允许重复
type CityStrategy struct{}

// NewCityStrategy 创建城市模式策略
func NewCityStrategy() *CityStrategy {
	return &CityStrategy{}
}

// Mode 对应模式
func (s *CityStrategy) Mode() models.GameMode {
	return models.GameModeCity
}

// CanStartSession 城市模式除启用的设置外没有开局条件
func (s *CityStrategy) CanStartSession(ctx context.Context, repos repository.Repositories, userID uint) error {
	return nil
}

// NextQuestion 随机取一个城市
func (s *CityStrategy) NextQuestion(ctx context.Context, repos repository.Repositories, session *models.GameSession, setting *models.GameSetting, order int) (*models.GameQuestion, error) {
	city, err := repos.City().FindRandom(ctx)
	if err != nil {
		return nil, err
	}
	if city == nil {
		return nil, apperrors.New(apperrors.ErrCatalogEmpty)
	}

	return &models.GameQuestion{
		SessionID:           session.ID,
		QuestionOrder:       order,
		CorrectLatitude:     city.Latitude,
		CorrectLongitude:    city.Longitude,
		CorrectLocationName: city.DisplayName(),
		ImageURLs:           models.StringList{},
	}, nil
}
