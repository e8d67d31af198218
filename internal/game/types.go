package game

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wfunc/geo-guess/internal/models"
)

// 出题提示语
const (
	PromptMemory = "这张照片是在哪里拍的？"
	PromptCity   = "这座城市在哪里？"
)

// 会话列表分页
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	GameMode models.GameMode `json:"game_mode" binding:"required"`
}

// AnswerRequest 提交答案请求
type AnswerRequest struct {
	Latitude         *decimal.Decimal `json:"latitude" binding:"required"`
	Longitude        *decimal.Decimal `json:"longitude" binding:"required"`
	TimeTakenSeconds int              `json:"time_taken_seconds"`
}

// ListSessionsRequest 会话列表请求，Cursor为上一页最后一条会话ID
type ListSessionsRequest struct {
	GameMode models.GameMode `form:"game_mode"`
	Cursor   uint            `form:"cursor"`
	Limit    int             `form:"limit"`
}

// SessionResponse 会话摘要
type SessionResponse struct {
	ID             uint                 `json:"id"`
	GameMode       models.GameMode      `json:"game_mode"`
	Status         models.SessionStatus `json:"status"`
	TotalScore     int                  `json:"total_score"`
	TotalQuestions int                  `json:"total_questions"`
	CorrectAnswers int                  `json:"correct_answers"`
	Accuracy       float64              `json:"accuracy"`
	StartTime      time.Time            `json:"start_time"`
	EndTime        *time.Time           `json:"end_time,omitempty"`
}

// QuestionResponse 出题响应，不包含正确答案
type QuestionResponse struct {
	QuestionID       uint     `json:"question_id"`
	SessionID        uint     `json:"session_id"`
	QuestionOrder    int      `json:"question_order"`
	MaxQuestions     int      `json:"max_questions"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	Prompt           string   `json:"prompt"`
	ImageURLs        []string `json:"image_urls"`
}

// Coordinate 经纬度
type Coordinate struct {
	Latitude  decimal.Decimal `json:"latitude"`
	Longitude decimal.Decimal `json:"longitude"`
}

// AnswerResponse 作答结果
type AnswerResponse struct {
	QuestionID        uint             `json:"question_id"`
	CorrectLocation   Coordinate       `json:"correct_location"`
	LocationName      string           `json:"location_name"`
	Guess             Coordinate       `json:"guess"`
	DistanceKm        float64          `json:"distance_km"`
	Score             int              `json:"score"`
	IsCorrect         bool             `json:"is_correct"`
	TimedOut          bool             `json:"timed_out"`
	AnsweredQuestions int              `json:"answered_questions"`
	IsCompleted       bool             `json:"is_completed"`
	Session           *SessionResponse `json:"session"`
}

// QuestionDetail 会话详情中的题目，作答后才返回答案
type QuestionDetail struct {
	QuestionID       uint        `json:"question_id"`
	QuestionOrder    int         `json:"question_order"`
	ImageURLs        []string    `json:"image_urls"`
	Answered         bool        `json:"answered"`
	CorrectLocation  *Coordinate `json:"correct_location,omitempty"`
	LocationName     string      `json:"location_name,omitempty"`
	Guess            *Coordinate `json:"guess,omitempty"`
	DistanceKm       *float64    `json:"distance_km,omitempty"`
	Score            *int        `json:"score,omitempty"`
	TimeTakenSeconds *int        `json:"time_taken_seconds,omitempty"`
	AnsweredAt       *time.Time  `json:"answered_at,omitempty"`
}

// SessionDetail 会话详情
type SessionDetail struct {
	SessionResponse
	Questions []QuestionDetail `json:"questions"`
}

// SessionListResponse 会话列表
type SessionListResponse struct {
	Sessions   []*SessionResponse `json:"sessions"`
	NextCursor *uint              `json:"next_cursor,omitempty"`
}

func newSessionResponse(s *models.GameSession) *SessionResponse {
	return &SessionResponse{
		ID:             s.ID,
		GameMode:       s.GameMode,
		Status:         s.Status,
		TotalScore:     s.TotalScore,
		TotalQuestions: s.TotalQuestions,
		CorrectAnswers: s.CorrectAnswers,
		Accuracy:       s.GetAccuracy(),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
	}
}

func newQuestionResponse(q *models.GameQuestion, mode models.GameMode, setting *models.GameSetting) *QuestionResponse {
	prompt := PromptMemory
	if mode == models.GameModeCity {
		prompt = PromptCity
	}
	images := []string(q.ImageURLs)
	if images == nil {
		images = []string{}
	}
	return &QuestionResponse{
		QuestionID:       q.ID,
		SessionID:        q.SessionID,
		QuestionOrder:    q.QuestionOrder,
		MaxQuestions:     setting.MaxQuestions,
		TimeLimitSeconds: setting.TimeLimitSeconds,
		Prompt:           prompt,
		ImageURLs:        images,
	}
}

func newQuestionDetail(q *models.GameQuestion) QuestionDetail {
	images := []string(q.ImageURLs)
	if images == nil {
		images = []string{}
	}
	d := QuestionDetail{
		QuestionID:    q.ID,
		QuestionOrder: q.QuestionOrder,
		ImageURLs:     images,
		Answered:      q.IsAnswered(),
	}
	if !d.Answered {
		return d
	}

	d.CorrectLocation = &Coordinate{Latitude: q.CorrectLatitude, Longitude: q.CorrectLongitude}
	d.LocationName = q.CorrectLocationName
	d.Guess = &Coordinate{Latitude: q.PlayerLatitude.Decimal, Longitude: q.PlayerLongitude.Decimal}
	d.DistanceKm = q.DistanceKm
	d.Score = q.Score
	d.TimeTakenSeconds = q.TimeTakenSeconds
	d.AnsweredAt = q.AnsweredAt
	return d
}

func newSessionDetail(s *models.GameSession) *SessionDetail {
	detail := &SessionDetail{
		SessionResponse: *newSessionResponse(s),
		Questions:       make([]QuestionDetail, 0, len(s.Questions)),
	}
	for i := range s.Questions {
		detail.Questions = append(detail.Questions, newQuestionDetail(&s.Questions[i]))
	}
	return detail
}
