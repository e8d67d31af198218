package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/geo-guess/internal/config"
	"github.com/wfunc/geo-guess/internal/models"
	"gorm.io/gorm"
)

type MigrationTestSuite struct {
	suite.Suite
	db *gorm.DB
}

func (s *MigrationTestSuite) SetupTest() {
	db, err := Open(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	s.Require().NoError(err)
	s.db = db
}

func (s *MigrationTestSuite) TearDownTest() {
	sqlDB, _ := s.db.DB()
	sqlDB.Close()
}

func (s *MigrationTestSuite) TestMigrate_CreatesTablesAndSeeds() {
	s.Require().NoError(Migrate(s.db, true))

	for _, model := range migrationModels {
		s.True(s.db.Migrator().HasTable(model), "%T", model)
	}
	for _, idx := range secondaryIndexes {
		s.True(s.db.Migrator().HasIndex(idx.table, idx.name), idx.name)
	}

	var settings []models.GameSetting
	s.Require().NoError(s.db.Order("id").Find(&settings).Error)
	s.Len(settings, 2)
	for _, setting := range settings {
		s.True(setting.IsActive)
		s.NoError(setting.Validate())
		s.Require().NotNil(setting.ActiveMode)
		s.Equal(string(setting.GameMode), *setting.ActiveMode)
	}

	var cities int64
	s.db.Model(&models.City{}).Count(&cities)
	s.Equal(int64(len(defaultCities)), cities)
}

func (s *MigrationTestSuite) TestMigrate_Idempotent() {
	s.Require().NoError(Migrate(s.db, true))
	s.Require().NoError(Migrate(s.db, true))

	var settings, cities int64
	s.db.Model(&models.GameSetting{}).Count(&settings)
	s.db.Model(&models.City{}).Count(&cities)
	s.Equal(int64(2), settings)
	s.Equal(int64(len(defaultCities)), cities)
}

func (s *MigrationTestSuite) TestMigrate_WithoutSeed() {
	s.Require().NoError(Migrate(s.db, false))

	var settings int64
	s.db.Model(&models.GameSetting{}).Count(&settings)
	s.Zero(settings)
}

func (s *MigrationTestSuite) TestActiveSettingUniquePerMode() {
	s.Require().NoError(Migrate(s.db, true))

	dup := models.GameSetting{
		GameMode:                  models.GameModeCity,
		MaxQuestions:              3,
		TimeLimitSeconds:          30,
		MaxDistanceForFullScoreKm: 10,
		IsActive:                  true,
	}
	err := s.db.Create(&dup).Error
	s.Require().Error(err)
	s.True(IsDuplicateKey(err), err)

	// 停用状态的设置可以有多条
	inactive := dup
	inactive.ID = 0
	inactive.IsActive = false
	s.NoError(s.db.Create(&inactive).Error)
	inactive2 := inactive
	inactive2.ID = 0
	s.NoError(s.db.Create(&inactive2).Error)
}

func (s *MigrationTestSuite) TestSingleInProgressSessionPerUser() {
	s.Require().NoError(Migrate(s.db, false))
	now := time.Now()

	s.Require().NoError(s.db.Create(models.NewGameSession(1, models.GameModeCity, now)).Error)
	err := s.db.Create(models.NewGameSession(1, models.GameModeMemory, now)).Error
	s.True(IsDuplicateKey(err), err)

	// 结束的会话不占用唯一键
	finished := models.NewGameSession(2, models.GameModeCity, now)
	finished.GiveUp(now)
	s.NoError(s.db.Create(finished).Error)
	s.NoError(s.db.Create(models.NewGameSession(2, models.GameModeCity, now)).Error)
}

func TestMigrationTestSuite(t *testing.T) {
	suite.Run(t, new(MigrationTestSuite))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrationLock(t *testing.T) {
	lockRetryInterval = time.Millisecond
	dbPath := filepath.Join(t.TempDir(), "geo.db")

	lock, err := acquireMigrationLock(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath + lockSuffix)
	require.NoError(t, err)

	releaseMigrationLock(lock)
	_, err = os.Stat(dbPath + lockSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupStaleLocks(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "old.db"+lockSuffix)
	fresh := filepath.Join(dir, "new.db"+lockSuffix)
	require.NoError(t, os.WriteFile(stale, nil, 0644))
	require.NoError(t, os.WriteFile(fresh, nil, 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	CleanupStaleLocks(dir)

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(errors.New("UNIQUE constraint failed: game_sessions.active_user_id")))
	assert.True(t, IsDuplicateKey(errors.New("Error 1062: Duplicate entry '1' for key 'idx_game_sessions_active_user_id'")))
	assert.False(t, IsDuplicateKey(gorm.ErrRecordNotFound))
	assert.True(t, IsNotFound(gorm.ErrRecordNotFound))
}
