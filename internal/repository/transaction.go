package repository

import (
	"context"
	"fmt"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"gorm.io/gorm"
)

// TransactionManager 事务管理器接口
type TransactionManager interface {
	// Begin 开始事务
	Begin(ctx context.Context) (*Transaction, error)
	// WithTransaction 在事务中执行函数，fn返回错误时回滚
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
}

// Transaction 事务包装器，提供绑定到本事务的仓储
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	committed  bool
	rolledback bool

	// 事务中的仓储实例
	user         UserRepository
	gameSetting  GameSettingRepository
	gameSession  GameSessionRepository
	gameQuestion GameQuestionRepository
	memory       MemoryRepository
	city         CityRepository
}

// txManager 事务管理器实现
type txManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

// Begin 开始事务
func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.Wrap(tx.Error, apperrors.ErrTransaction)
	}

	return &Transaction{
		tx:  tx,
		ctx: ctx,
	}, nil
}

// WithTransaction 在事务中执行函数
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	// 确保panic时也会回滚
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if !tx.committed && !tx.rolledback {
			tx.Rollback()
		}
	}()

	// 执行业务逻辑
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	// 提交事务
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransaction)
	}
	return nil
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("事务已提交")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Commit().Error; err != nil {
		return err
	}

	t.committed = true
	return nil
}

// Rollback 回滚事务
func (t *Transaction) Rollback() error {
	if t.committed {
		return fmt.Errorf("事务已提交，无法回滚")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Rollback().Error; err != nil {
		return err
	}

	t.rolledback = true
	return nil
}

// GetDB 获取事务中的数据库实例
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// User 获取事务中的用户仓储
func (t *Transaction) User() UserRepository {
	if t.user == nil {
		t.user = NewUserRepository(t.tx)
	}
	return t.user
}

// GameSetting 获取事务中的游戏设置仓储
func (t *Transaction) GameSetting() GameSettingRepository {
	if t.gameSetting == nil {
		t.gameSetting = NewGameSettingRepository(t.tx)
	}
	return t.gameSetting
}

// GameSession 获取事务中的游戏会话仓储
func (t *Transaction) GameSession() GameSessionRepository {
	if t.gameSession == nil {
		t.gameSession = NewGameSessionRepository(t.tx)
	}
	return t.gameSession
}

// GameQuestion 获取事务中的游戏题目仓储
func (t *Transaction) GameQuestion() GameQuestionRepository {
	if t.gameQuestion == nil {
		t.gameQuestion = NewGameQuestionRepository(t.tx)
	}
	return t.gameQuestion
}

// Memory 获取事务中的回忆仓储
func (t *Transaction) Memory() MemoryRepository {
	if t.memory == nil {
		t.memory = NewMemoryRepository(t.tx)
	}
	return t.memory
}

// City 获取事务中的城市仓储
func (t *Transaction) City() CityRepository {
	if t.city == nil {
		t.city = NewCityRepository(t.tx)
	}
	return t.city
}
