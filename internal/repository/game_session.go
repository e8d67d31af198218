package repository

import (
	"context"

	"github.com/wfunc/geo-guess/internal/database"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameSessionRepository 游戏会话仓储接口
type GameSessionRepository interface {
	BaseRepository
	Create(ctx context.Context, session *models.GameSession) error
	Update(ctx context.Context, session *models.GameSession) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.GameSession, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.GameSession, error)
	FindInProgressByUser(ctx context.Context, userID uint) (*models.GameSession, error)
	ListByUser(ctx context.Context, filter SessionFilter) ([]*models.GameSession, error)
}

// SessionFilter 会话列表条件，按ID倒序游标分页
type SessionFilter struct {
	UserID uint
	Mode   models.GameMode // 为空时不过滤模式
	Cursor uint            // 上一页最后一条的ID，不包含；0表示第一页
	Limit  int
}

// gameSessionRepo 游戏会话仓储实现
type gameSessionRepo struct {
	*BaseRepo
}

// NewGameSessionRepository 创建游戏会话仓储
func NewGameSessionRepository(db *gorm.DB) GameSessionRepository {
	return &gameSessionRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建游戏会话，玩家已有进行中的会话时返回冲突
func (r *gameSessionRepo) Create(ctx context.Context, session *models.GameSession) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
	return writeError(err, apperrors.ErrSessionInProgress, apperrors.ErrDatabaseInsert)
}

// Update 更新会话字段，题目由题目仓储单独维护
func (r *gameSessionRepo) Update(ctx context.Context, session *models.GameSession) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(session).Error
	return writeError(err, apperrors.ErrSessionInProgress, apperrors.ErrDatabaseUpdate)
}

// Delete 删除会话及其题目
func (r *gameSessionRepo) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Select("Questions").
		Delete(&models.GameSession{ID: id}).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseDelete)
	}
	return nil
}

// FindByID 根据ID查找，题目按题号排序
func (r *gameSessionRepo) FindByID(ctx context.Context, id uint) (*models.GameSession, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate 在事务中查找并锁定会话行，同一会话的写操作串行执行
// SQLite不支持行锁，驱动会忽略FOR UPDATE，串行由其库级写锁保证
func (r *gameSessionRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.GameSession, error) {
	return r.findByID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *gameSessionRepo) findByID(db *gorm.DB, id uint) (*models.GameSession, error) {
	var session models.GameSession
	err := db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		First(&session, id).Error
	if err != nil {
		return nil, queryError(err, apperrors.ErrSessionNotFound)
	}
	return &session, nil
}

// FindInProgressByUser 查找玩家进行中的会话（任意模式），没有时返回nil
func (r *gameSessionRepo) FindInProgressByUser(ctx context.Context, userID uint) (*models.GameSession, error) {
	var session models.GameSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SessionInProgress).
		Order("id DESC").
		First(&session).Error

	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &session, nil
}

// ListByUser 按ID倒序列出玩家的会话，不加载题目
func (r *gameSessionRepo) ListByUser(ctx context.Context, filter SessionFilter) ([]*models.GameSession, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", filter.UserID)
	if filter.Mode != "" {
		query = query.Where("game_mode = ?", filter.Mode)
	}
	if filter.Cursor > 0 {
		query = query.Where("id < ?", filter.Cursor)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var sessions []*models.GameSession
	if err := query.Order("id DESC").Find(&sessions).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return sessions, nil
}
