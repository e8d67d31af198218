package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Repositories 游戏引擎依赖的仓储集合，Manager和Transaction都实现该接口
type Repositories interface {
	User() UserRepository
	GameSetting() GameSettingRepository
	GameSession() GameSessionRepository
	GameQuestion() GameQuestionRepository
	Memory() MemoryRepository
	City() CityRepository
}

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 事务管理器
	txManager TransactionManager

	// 仓储实例（使用懒加载）
	userOnce sync.Once
	user     UserRepository

	gameSettingOnce sync.Once
	gameSetting     GameSettingRepository

	gameSessionOnce sync.Once
	gameSession     GameSessionRepository

	gameQuestionOnce sync.Once
	gameQuestion     GameQuestionRepository

	memoryOnce sync.Once
	memory     MemoryRepository

	cityOnce sync.Once
	city     CityRepository
}

var (
	_ Repositories = (*Manager)(nil)
	_ Repositories = (*Transaction)(nil)
)

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// Transaction 获取事务管理器
func (m *Manager) Transaction() TransactionManager {
	return m.txManager
}

// User 获取用户仓储
func (m *Manager) User() UserRepository {
	m.userOnce.Do(func() {
		m.user = NewUserRepository(m.db)
	})
	return m.user
}

// GameSetting 获取游戏设置仓储
func (m *Manager) GameSetting() GameSettingRepository {
	m.gameSettingOnce.Do(func() {
		m.gameSetting = NewGameSettingRepository(m.db)
	})
	return m.gameSetting
}

// GameSession 获取游戏会话仓储
func (m *Manager) GameSession() GameSessionRepository {
	m.gameSessionOnce.Do(func() {
		m.gameSession = NewGameSessionRepository(m.db)
	})
	return m.gameSession
}

// GameQuestion 获取游戏题目仓储
func (m *Manager) GameQuestion() GameQuestionRepository {
	m.gameQuestionOnce.Do(func() {
		m.gameQuestion = NewGameQuestionRepository(m.db)
	})
	return m.gameQuestion
}

// Memory 获取回忆仓储
func (m *Manager) Memory() MemoryRepository {
	m.memoryOnce.Do(func() {
		m.memory = NewMemoryRepository(m.db)
	})
	return m.memory
}

// City 获取城市仓储
func (m *Manager) City() CityRepository {
	m.cityOnce.Do(func() {
		m.city = NewCityRepository(m.db)
	})
	return m.city
}

// WithTransaction 在事务中执行操作
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.txManager.WithTransaction(ctx, fn)
}
