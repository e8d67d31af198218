package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GameMode 猜地点游戏模式
type GameMode string

const (
	GameModeMemory GameMode = "MEMORY_LOCATION" // 从自己的回忆照片出题
	GameModeCity   GameMode = "WORLD_CITY"      // 从世界城市出题
	GameModeFriend GameMode = "FRIEND_MEMORY"   // 预留：好友回忆，暂未实现
)

// Valid 是否为已知模式
func (m GameMode) Valid() bool {
	switch m {
	case GameModeMemory, GameModeCity, GameModeFriend:
		return true
	}
	return false
}

// SessionStatus 游戏会话状态
type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionAbandoned  SessionStatus = "ABANDONED"
)

// IsTerminal 是否为终止状态
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// GameSetting 各模式的游戏设置表，同一模式同时只能有一条启用
type GameSetting struct {
	BaseModel
	GameMode                  GameMode `gorm:"size:30;not null;index" json:"game_mode"`
	MaxQuestions              int      `gorm:"not null" json:"max_questions"`
	TimeLimitSeconds          int      `gorm:"not null" json:"time_limit_seconds"`
	MaxDistanceForFullScoreKm float64  `gorm:"not null" json:"max_distance_for_full_score_km"`
	IsActive                  bool     `gorm:"default:false" json:"is_active"`
	Description               string   `gorm:"size:255" json:"description"`

	// 启用时等于GameMode，停用时为NULL，由唯一索引保证每个模式只有一条启用设置
	ActiveMode *string `gorm:"size:30;uniqueIndex" json:"-"`
}

// BeforeSave 保存前同步启用标记
func (s *GameSetting) BeforeSave(tx *gorm.DB) error {
	s.syncActiveMode()
	return nil
}

func (s *GameSetting) syncActiveMode() {
	if s.IsActive {
		mode := string(s.GameMode)
		s.ActiveMode = &mode
		return
	}
	s.ActiveMode = nil
}

// Validate 校验设置字段
func (s *GameSetting) Validate() error {
	switch {
	case !s.GameMode.Valid():
		return fmt.Errorf("未知的游戏模式: %s", s.GameMode)
	case s.MaxQuestions < 1:
		return fmt.Errorf("max_questions 至少为1")
	case s.TimeLimitSeconds <= 0:
		return fmt.Errorf("time_limit_seconds 必须大于0")
	case s.MaxDistanceForFullScoreKm < 0:
		return fmt.Errorf("max_distance_for_full_score_km 不能为负数")
	}
	return nil
}

// IsCorrectDistance 距离是否在满分阈值内
func (s *GameSetting) IsCorrectDistance(distanceKm float64) bool {
	return distanceKm <= s.MaxDistanceForFullScoreKm
}

// GameSession 游戏会话表（聚合根）
type GameSession struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"not null;index" json:"user_id"`
	TargetUserID   *uint         `gorm:"index" json:"target_user_id,omitempty"` // 预留给好友模式
	GameMode       GameMode      `gorm:"size:30;not null;index" json:"game_mode"`
	Status         SessionStatus `gorm:"size:20;not null;index" json:"status"`
	TotalScore     int           `gorm:"default:0" json:"total_score"`
	TotalQuestions int           `gorm:"default:0" json:"total_questions"`
	CorrectAnswers int           `gorm:"default:0" json:"correct_answers"`
	StartTime      time.Time     `gorm:"not null" json:"start_time"`
	EndTime        *time.Time    `json:"end_time,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// 进行中时等于UserID，结束后为NULL，由唯一索引保证每个玩家只有一个进行中的会话
	ActiveUserID *uint `gorm:"uniqueIndex" json:"-"`

	Questions []GameQuestion `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// NewGameSession 创建进行中的会话
func NewGameSession(userID uint, mode GameMode, now time.Time) *GameSession {
	owner := userID
	return &GameSession{
		UserID:       userID,
		GameMode:     mode,
		Status:       SessionInProgress,
		StartTime:    now,
		ActiveUserID: &owner,
	}
}

// IsInProgress 是否进行中
func (s *GameSession) IsInProgress() bool {
	return s.Status == SessionInProgress
}

// IsOwnedBy 是否属于该玩家
func (s *GameSession) IsOwnedBy(userID uint) bool {
	return s.UserID == userID
}

// AddQuestion 追加题目并同步题目总数，调用方保证不重复添加
func (s *GameSession) AddQuestion(q *GameQuestion) {
	q.SessionID = s.ID
	s.Questions = append(s.Questions, *q)
	s.TotalQuestions = len(s.Questions)
}

// UpdateScore 累加得分
func (s *GameSession) UpdateScore(delta int) {
	s.TotalScore += delta
}

// IncrementCorrectAnswers 答对数加一
func (s *GameSession) IncrementCorrectAnswers() {
	s.CorrectAnswers++
}

// GiveUp 放弃游戏，调用方需先检查IsInProgress
func (s *GameSession) GiveUp(at time.Time) {
	s.finish(SessionAbandoned, at)
}

// CompleteGame 完成游戏
func (s *GameSession) CompleteGame(at time.Time) {
	s.finish(SessionCompleted, at)
}

func (s *GameSession) finish(status SessionStatus, at time.Time) {
	s.Status = status
	s.EndTime = &at
	s.ActiveUserID = nil
}

// GetAccuracy 正确率（百分比），没有题目时为0
func (s *GameSession) GetAccuracy() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalQuestions) * 100
}

// AnsweredCount 已作答题目数
func (s *GameSession) AnsweredCount() int {
	n := 0
	for i := range s.Questions {
		if s.Questions[i].IsAnswered() {
			n++
		}
	}
	return n
}

// UsedMemoryIDs 已经出过题的回忆
func (s *GameSession) UsedMemoryIDs() map[uint]struct{} {
	used := make(map[uint]struct{}, len(s.Questions))
	for i := range s.Questions {
		if id := s.Questions[i].MemoryID; id != nil {
			used[*id] = struct{}{}
		}
	}
	return used
}

// GameQuestion 游戏题目表
type GameQuestion struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	SessionID           uint            `gorm:"not null;uniqueIndex:idx_game_questions_session_order,priority:1" json:"session_id"`
	MemoryID            *uint           `gorm:"index" json:"memory_id,omitempty"`
	QuestionOrder       int             `gorm:"not null;uniqueIndex:idx_game_questions_session_order,priority:2" json:"question_order"`
	CorrectLatitude     decimal.Decimal `gorm:"type:decimal(11,8);not null" json:"correct_latitude"`
	CorrectLongitude    decimal.Decimal `gorm:"type:decimal(11,8);not null" json:"correct_longitude"`
	CorrectLocationName string          `gorm:"size:200" json:"correct_location_name"`
	ImageURLs           StringList      `gorm:"type:text" json:"image_urls"`

	// 作答字段：作答前全部为空，作答时一次性写入
	PlayerLatitude   decimal.NullDecimal `gorm:"type:decimal(11,8)" json:"player_latitude"`
	PlayerLongitude  decimal.NullDecimal `gorm:"type:decimal(11,8)" json:"player_longitude"`
	DistanceKm       *float64            `json:"distance_km,omitempty"`
	Score            *int                `json:"score,omitempty"`
	TimeTakenSeconds *int                `json:"time_taken_seconds,omitempty"`
	AnsweredAt       *time.Time          `gorm:"index" json:"answered_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Answer 一次作答的结果
type Answer struct {
	Latitude         decimal.Decimal
	Longitude        decimal.Decimal
	DistanceKm       float64
	Score            int
	TimeTakenSeconds int
	AnsweredAt       time.Time
}

// IsAnswered 是否已作答
func (q *GameQuestion) IsAnswered() bool {
	return q.AnsweredAt != nil
}

// RecordAnswer 写入作答结果，调用方需先检查IsAnswered
func (q *GameQuestion) RecordAnswer(a Answer) {
	distance := a.DistanceKm
	score := a.Score
	taken := a.TimeTakenSeconds
	at := a.AnsweredAt

	q.PlayerLatitude = decimal.NewNullDecimal(a.Latitude)
	q.PlayerLongitude = decimal.NewNullDecimal(a.Longitude)
	q.DistanceKm = &distance
	q.Score = &score
	q.TimeTakenSeconds = &taken
	q.AnsweredAt = &at
}
