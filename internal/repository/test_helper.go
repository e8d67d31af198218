package repository

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/geo-guess/internal/database"
	"github.com/wfunc/geo-guess/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 创建已迁移的内存数据库，测试结束时自动关闭
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存库每个连接都是独立的数据库，只保留一个连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.Migrate(db, false))

	t.Cleanup(func() { CleanupTestDB(db) })
	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// CreateTestUser 创建测试玩家
func CreateTestUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestAdmin 创建测试管理员
func CreateTestAdmin(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Role: "admin"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestSetting 创建启用中的游戏设置
func CreateTestSetting(t testing.TB, db *gorm.DB, mode models.GameMode, maxQuestions int, fullScoreKm float64) *models.GameSetting {
	t.Helper()
	setting := &models.GameSetting{
		GameMode:                  mode,
		MaxQuestions:              maxQuestions,
		TimeLimitSeconds:          60,
		MaxDistanceForFullScoreKm: fullScoreKm,
		IsActive:                  true,
	}
	require.NoError(t, db.Create(setting).Error)
	return setting
}

// CreateTestMemories 为玩家创建n条带地点和照片的回忆，第i条位于(10+i, 100+i)
func CreateTestMemories(t testing.TB, db *gorm.DB, userID uint, n int) []*models.Memory {
	t.Helper()
	memories := make([]*models.Memory, 0, n)
	for i := 0; i < n; i++ {
		memory := &models.Memory{
			UserID: userID,
			Title:  fmt.Sprintf("回忆%d", i+1),
			Location: &models.Location{
				Name:      fmt.Sprintf("地点%d", i+1),
				Latitude:  decimal.NewFromInt(int64(10 + i)),
				Longitude: decimal.NewFromInt(int64(100 + i)),
			},
			Images: []models.MemoryImage{
				{URL: fmt.Sprintf("https://img.example.com/%d/2.jpg", i+1), SortOrder: 2},
				{URL: fmt.Sprintf("https://img.example.com/%d/1.jpg", i+1), SortOrder: 1},
			},
		}
		require.NoError(t, db.Create(memory).Error)
		memories = append(memories, memory)
	}
	return memories
}

// CreateTestCity 创建测试城市
func CreateTestCity(t testing.TB, db *gorm.DB, name string, lat, lng float64) *models.City {
	t.Helper()
	city := &models.City{
		Name:      name,
		Country:   "Testland",
		Latitude:  decimal.NewFromFloat(lat),
		Longitude: decimal.NewFromFloat(lng),
	}
	require.NoError(t, db.Create(city).Error)
	return city
}
