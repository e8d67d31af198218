package database

import (
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/wfunc/geo-guess/internal/logger"
	"github.com/wfunc/geo-guess/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migrationModels 需要迁移的模型，按依赖顺序排列
var migrationModels = []interface{}{
	// 会员与回忆（由其他模块维护，这里只保证表存在）
	&models.User{},
	&models.Location{},
	&models.Memory{},
	&models.MemoryImage{},

	// 参考数据
	&models.City{},

	// 游戏相关
	&models.GameSetting{},
	&models.GameSession{},
	&models.GameQuestion{},
}

// secondaryIndex 模型标签之外的复合索引
type secondaryIndex struct {
	table string
	name  string
	sql   string
}

var secondaryIndexes = []secondaryIndex{
	{"game_sessions", "idx_game_sessions_user_mode_id", "CREATE INDEX idx_game_sessions_user_mode_id ON game_sessions(user_id, game_mode, id)"},
	{"memory_images", "idx_memory_images_memory_sort", "CREATE INDEX idx_memory_images_memory_sort ON memory_images(memory_id, sort_order)"},
	{"memories", "idx_memories_user_location", "CREATE INDEX idx_memories_user_location ON memories(user_id, location_id)"},
}

// AutoMigrate 迁移全局数据库
func AutoMigrate(seed bool) error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 获取迁移锁，避免多个进程同时迁移同一个SQLite文件
	if dbPath := sqliteFilePath(DB); dbPath != "" {
		CleanupStaleLocks(filepath.Dir(dbPath))

		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	return Migrate(DB, seed)
}

// Migrate 迁移表结构、创建索引，并按需写入默认数据
func Migrate(db *gorm.DB, seed bool) error {
	logger.Info("开始数据库迁移...")

	for _, model := range migrationModels {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	createIndexes(db)

	if seed {
		if err := initDefaultData(db); err != nil {
			return err
		}
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建复合索引，失败只记录警告
func createIndexes(db *gorm.DB) {
	for _, idx := range secondaryIndexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}
		if err := db.Exec(idx.sql).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", idx.name), zap.Error(err))
		}
	}
	logger.Info("数据库索引创建完成")
}

// initDefaultData 初始化默认数据（已有数据时跳过）
func initDefaultData(db *gorm.DB) error {
	if err := seedGameSettings(db); err != nil {
		return err
	}
	if err := seedCities(db); err != nil {
		return err
	}
	logger.Info("默认数据初始化完成")
	return nil
}

// DefaultGameSettings 各模式的默认启用设置
func DefaultGameSettings() []models.GameSetting {
	return []models.GameSetting{
		{
			GameMode:                  models.GameModeMemory,
			MaxQuestions:              5,
			TimeLimitSeconds:          60,
			MaxDistanceForFullScoreKm: 1,
			IsActive:                  true,
			Description:               "猜猜我的回忆在哪里",
		},
		{
			GameMode:                  models.GameModeCity,
			MaxQuestions:              10,
			TimeLimitSeconds:          60,
			MaxDistanceForFullScoreKm: 50,
			IsActive:                  true,
			Description:               "世界城市猜地点",
		},
	}
}

func seedGameSettings(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.GameSetting{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, setting := range DefaultGameSettings() {
		setting := setting
		if err := db.Create(&setting).Error; err != nil {
			logger.Error("创建默认游戏设置失败",
				zap.String("mode", string(setting.GameMode)),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

type cityRow struct {
	name, country string
	lat, lng      string
	population    int64
}

var defaultCities = []cityRow{
	{"Seoul", "South Korea", "37.56650000", "126.97800000", 9776000},
	{"Busan", "South Korea", "35.17960000", "129.07560000", 3429000},
	{"Tokyo", "Japan", "35.67620000", "139.65030000", 13960000},
	{"Beijing", "China", "39.90420000", "116.40740000", 21540000},
	{"Shanghai", "China", "31.23040000", "121.47370000", 24870000},
	{"Bangkok", "Thailand", "13.75630000", "100.50180000", 10540000},
	{"Singapore", "Singapore", "1.35210000", "103.81980000", 5686000},
	{"Sydney", "Australia", "-33.86880000", "151.20930000", 5312000},
	{"Mumbai", "India", "19.07600000", "72.87770000", 20410000},
	{"Dubai", "United Arab Emirates", "25.20480000", "55.27080000", 3331000},
	{"Cairo", "Egypt", "30.04440000", "31.23570000", 9540000},
	{"Nairobi", "Kenya", "-1.29210000", "36.82190000", 4397000},
	{"Istanbul", "Turkey", "41.00820000", "28.97840000", 15460000},
	{"Moscow", "Russia", "55.75580000", "37.61730000", 12510000},
	{"Paris", "France", "48.85660000", "2.35220000", 2161000},
	{"London", "United Kingdom", "51.50740000", "-0.12780000", 8982000},
	{"Berlin", "Germany", "52.52000000", "13.40500000", 3645000},
	{"Madrid", "Spain", "40.41680000", "-3.70380000", 3223000},
	{"Rome", "Italy", "41.90280000", "12.49640000", 2873000},
	{"New York", "United States", "40.71280000", "-74.00600000", 8336000},
	{"Los Angeles", "United States", "34.05220000", "-118.24370000", 3979000},
	{"Mexico City", "Mexico", "19.43260000", "-99.13320000", 9209000},
	{"Sao Paulo", "Brazil", "-23.55050000", "-46.63330000", 12330000},
	{"Buenos Aires", "Argentina", "-34.60370000", "-58.38160000", 3075000},
	{"Toronto", "Canada", "43.65320000", "-79.38320000", 2731000},
}

func seedCities(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.City{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	cities := make([]models.City, 0, len(defaultCities))
	for _, row := range defaultCities {
		cities = append(cities, models.City{
			Name:       row.name,
			Country:    row.country,
			Latitude:   decimal.RequireFromString(row.lat),
			Longitude:  decimal.RequireFromString(row.lng),
			Population: row.population,
		})
	}
	if err := db.CreateInBatches(cities, 100).Error; err != nil {
		logger.Error("创建默认城市失败", zap.Error(err))
		return err
	}
	return nil
}
