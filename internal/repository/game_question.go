package repository

import (
	"context"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"gorm.io/gorm"
)

// GameQuestionRepository 游戏题目仓储接口
type GameQuestionRepository interface {
	BaseRepository
	Create(ctx context.Context, question *models.GameQuestion) error
	FindNextOrder(ctx context.Context, sessionID uint) (int, error)
	FindByIDAndSession(ctx context.Context, id, sessionID uint) (*models.GameQuestion, error)
	RecordAnswer(ctx context.Context, question *models.GameQuestion) error
}

type gameQuestionRepo struct {
	*BaseRepo
}

// NewGameQuestionRepository 创建游戏题目仓储
func NewGameQuestionRepository(db *gorm.DB) GameQuestionRepository {
	return &gameQuestionRepo{BaseRepo: NewBaseRepo(db)}
}

// Create 创建题目，同一会话题号重复时返回冲突
func (r *gameQuestionRepo) Create(ctx context.Context, question *models.GameQuestion) error {
	err := r.db.WithContext(ctx).Create(question).Error
	return writeError(err, apperrors.ErrConflict, apperrors.ErrDatabaseInsert)
}

// FindNextOrder 下一题的题号（从1开始）
func (r *gameQuestionRepo) FindNextOrder(ctx context.Context, sessionID uint) (int, error) {
	var next int
	err := r.db.WithContext(ctx).
		Model(&models.GameQuestion{}).
		Select("COALESCE(MAX(question_order), 0) + 1").
		Where("session_id = ?", sessionID).
		Scan(&next).Error
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return next, nil
}

// FindByIDAndSession 查找属于指定会话的题目
func (r *gameQuestionRepo) FindByIDAndSession(ctx context.Context, id, sessionID uint) (*models.GameQuestion, error) {
	var question models.GameQuestion
	err := r.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", id, sessionID).
		First(&question).Error
	if err != nil {
		return nil, queryError(err, apperrors.ErrQuestionNotFound)
	}
	return &question, nil
}

// RecordAnswer 写入作答字段，仅当题目尚未作答时生效
func (r *gameQuestionRepo) RecordAnswer(ctx context.Context, question *models.GameQuestion) error {
	result := r.db.WithContext(ctx).
		Model(&models.GameQuestion{}).
		Where("id = ? AND session_id = ? AND answered_at IS NULL", question.ID, question.SessionID).
		Updates(map[string]interface{}{
			"player_latitude":    question.PlayerLatitude,
			"player_longitude":   question.PlayerLongitude,
			"distance_km":        question.DistanceKm,
			"score":              question.Score,
			"time_taken_seconds": question.TimeTakenSeconds,
			"answered_at":        question.AnsweredAt,
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrQuestionAnswered)
	}
	return nil
}
