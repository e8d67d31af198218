package mode

import (
	"context"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"github.com/wfunc/geo-guess/internal/repository"
)

// DefaultMinGeotaggedMemories 回忆模式开局所需的最少回忆数
const DefaultMinGeotaggedMemories = 3

// MemoryStrategy 从玩家自己带地点和照片的回忆出题，同一局内不重复
type MemoryStrategy struct {
	minMemories int
}

// NewMemoryStrategy 创建回忆模式策略
func NewMemoryStrategy(minMemories int) *MemoryStrategy {
	if minMemories < 1 {
		minMemories = DefaultMinGeotaggedMemories
	}
	return &MemoryStrategy{minMemories: minMemories}
}

// Mode 对应模式
func (s *MemoryStrategy) Mode() models.GameMode {
	return models.GameModeMemory
}

// CanStartSession 玩家至少要有minMemories条可出题的回忆
func (s *MemoryStrategy) CanStartSession(ctx context.Context, repos repository.Repositories, userID uint) error {
	count, err := repos.Memory().CountGeotaggedWithImages(ctx, userID)
	if err != nil {
		return err
	}
	if count < int64(s.minMemories) {
		return apperrors.Newf(apperrors.ErrInsufficientData,
			"至少需要%d条带地点和照片的回忆，当前%d条", s.minMemories, count)
	}
	return nil
}

// NextQuestion 取第一条本局未出过的回忆
func (s *MemoryStrategy) NextQuestion(ctx context.Context, repos repository.Repositories, session *models.GameSession, setting *models.GameSetting, order int) (*models.GameQuestion, error) {
	memories, err := repos.Memory().FindGeotaggedWithImages(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	used := session.UsedMemoryIDs()
	for _, memory := range memories {
		if _, ok := used[memory.ID]; ok || !memory.IsGeotagged() {
			continue
		}

		memoryID := memory.ID
		return &models.GameQuestion{
			SessionID:           session.ID,
			MemoryID:            &memoryID,
			QuestionOrder:       order,
			CorrectLatitude:     memory.Location.Latitude,
			CorrectLongitude:    memory.Location.Longitude,
			CorrectLocationName: memory.Location.Name,
			ImageURLs:           memory.ImageURLs(),
		}, nil
	}

	return nil, apperrors.Newf(apperrors.ErrInsufficientSourceData, "已使用%d条回忆", len(used))
}
