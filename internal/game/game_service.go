// Package game 猜地点游戏的会话编排：开局、出题、作答、放弃与查询
package game

import (
	"context"
	"time"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/game/geo"
	"github.com/wfunc/geo-guess/internal/game/mode"
	"github.com/wfunc/geo-guess/internal/metrics"
	"github.com/wfunc/geo-guess/internal/models"
	"github.com/wfunc/geo-guess/internal/repository"
	"go.uber.org/zap"
)

// GeoGameService 猜地点游戏服务（业务逻辑层）
type GeoGameService struct {
	repos    *repository.Manager
	registry *mode.Registry
	scorer   geo.Scorer
	logger   *zap.Logger
	now      func() time.Time
}

// GeoGameServiceConfig 游戏服务配置
type GeoGameServiceConfig struct {
	Repos    *repository.Manager
	Registry *mode.Registry
	Scorer   geo.Scorer
	Logger   *zap.Logger
	Clock    func() time.Time // 为空时使用time.Now
}

// NewGeoGameService 创建游戏服务
func NewGeoGameService(cfg *GeoGameServiceConfig) *GeoGameService {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &GeoGameService{
		repos:    cfg.Repos,
		registry: cfg.Registry,
		scorer:   cfg.Scorer,
		logger:   log,
		now:      clock,
	}
}

// CreateSession 开始一局新游戏
func (s *GeoGameService) CreateSession(ctx context.Context, userID uint, gameMode models.GameMode) (*SessionResponse, error) {
	if !gameMode.Valid() {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedMode, "mode=%s", gameMode)
	}
	if err := s.checkPlayer(ctx, userID); err != nil {
		return nil, err
	}

	// 任何模式下都只能有一个进行中的会话
	existing, err := s.repos.GameSession().FindInProgressByUser(ctx, userID)
	if err != nil {
		return nil, s.fail("create_session", err, zap.Uint("user_id", userID))
	}
	if existing != nil {
		return nil, s.fail("create_session",
			apperrors.Newf(apperrors.ErrSessionInProgress, "session_id=%d", existing.ID),
			zap.Uint("user_id", userID))
	}

	generator, err := s.registry.Get(gameMode)
	if err != nil {
		return nil, s.fail("create_session", err, zap.Uint("user_id", userID))
	}
	if _, err := s.repos.GameSetting().FindActiveByMode(ctx, gameMode); err != nil {
		return nil, s.fail("create_session", err, zap.Uint("user_id", userID), zap.String("mode", string(gameMode)))
	}
	if err := generator.CanStartSession(ctx, s.repos, userID); err != nil {
		return nil, s.fail("create_session", err, zap.Uint("user_id", userID), zap.String("mode", string(gameMode)))
	}

	session := models.NewGameSession(userID, gameMode, s.now())
	if err := s.repos.GameSession().Create(ctx, session); err != nil {
		return nil, s.fail("create_session", err, zap.Uint("user_id", userID))
	}

	metrics.RecordSessionCreated(string(gameMode))
	s.logger.Info("session_created",
		zap.Uint("session_id", session.ID),
		zap.Uint("user_id", userID),
		zap.String("mode", string(gameMode)),
	)
	return newSessionResponse(session), nil
}

// GetNextQuestion 为会话生成下一题
func (s *GeoGameService) GetNextQuestion(ctx context.Context, userID, sessionID uint) (*QuestionResponse, error) {
	if err := s.checkPlayer(ctx, userID); err != nil {
		return nil, err
	}

	var (
		resp        *QuestionResponse
		sessionMode models.GameMode
	)
	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		session, err := s.loadPlayable(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}
		sessionMode = session.GameMode

		setting, err := tx.GameSetting().FindActiveByMode(ctx, session.GameMode)
		if err != nil {
			return err
		}

		order, err := tx.GameQuestion().FindNextOrder(ctx, session.ID)
		if err != nil {
			return err
		}
		if order > setting.MaxQuestions {
			return apperrors.Newf(apperrors.ErrAllQuestionsCompleted, "max_questions=%d", setting.MaxQuestions)
		}

		generator, err := s.registry.Get(session.GameMode)
		if err != nil {
			return err
		}
		question, err := generator.NextQuestion(ctx, tx, session, setting, order)
		if err != nil {
			return err
		}

		question.SessionID = session.ID
		question.QuestionOrder = order
		if err := tx.GameQuestion().Create(ctx, question); err != nil {
			return err
		}
		session.AddQuestion(question)
		if err := tx.GameSession().Update(ctx, session); err != nil {
			return err
		}

		resp = newQuestionResponse(question, session.GameMode, setting)
		return nil
	})
	if err != nil {
		return nil, s.fail("next_question", err, zap.Uint("user_id", userID), zap.Uint("session_id", sessionID))
	}

	metrics.RecordQuestionGenerated(string(sessionMode))
	s.logger.Info("question_generated",
		zap.Uint("session_id", sessionID),
		zap.Uint("user_id", userID),
		zap.Uint("question_id", resp.QuestionID),
		zap.Int("order", resp.QuestionOrder),
	)
	return resp, nil
}

// SubmitAnswer 提交答案并计分，答完最后一题时结束会话
func (s *GeoGameService) SubmitAnswer(ctx context.Context, userID, sessionID, questionID uint, req *AnswerRequest) (*AnswerResponse, error) {
	guess, err := validateAnswer(req)
	if err != nil {
		return nil, s.fail("submit_answer", err, zap.Uint("user_id", userID), zap.Uint("session_id", sessionID))
	}
	if err := s.checkPlayer(ctx, userID); err != nil {
		return nil, err
	}

	var (
		resp        *AnswerResponse
		sessionMode models.GameMode
	)
	err = s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		session, err := s.loadPlayable(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}
		sessionMode = session.GameMode

		question, err := tx.GameQuestion().FindByIDAndSession(ctx, questionID, session.ID)
		if err != nil {
			return err
		}
		if question.IsAnswered() {
			return apperrors.Newf(apperrors.ErrQuestionAnswered, "question_id=%d", question.ID)
		}

		setting, err := tx.GameSetting().FindActiveByMode(ctx, session.GameMode)
		if err != nil {
			return err
		}

		correct := geo.Point{Latitude: question.CorrectLatitude, Longitude: question.CorrectLongitude}
		result := geo.Evaluate(s.scorer, correct, guess, setting.MaxDistanceForFullScoreKm)

		question.RecordAnswer(models.Answer{
			Latitude:         guess.Latitude,
			Longitude:        guess.Longitude,
			DistanceKm:       result.DistanceKm,
			Score:            result.Score,
			TimeTakenSeconds: req.TimeTakenSeconds,
			AnsweredAt:       s.now(),
		})
		// 条件更新，并发提交时只有一个成功
		if err := tx.GameQuestion().RecordAnswer(ctx, question); err != nil {
			return err
		}
		replaceQuestion(session, question)

		session.UpdateScore(result.Score)
		isCorrect := setting.IsCorrectDistance(result.DistanceKm)
		if isCorrect {
			session.IncrementCorrectAnswers()
		}
		answered := session.AnsweredCount()
		if answered >= setting.MaxQuestions {
			session.CompleteGame(s.now())
		}
		if err := tx.GameSession().Update(ctx, session); err != nil {
			return err
		}

		resp = &AnswerResponse{
			QuestionID:        question.ID,
			CorrectLocation:   Coordinate{Latitude: question.CorrectLatitude, Longitude: question.CorrectLongitude},
			LocationName:      question.CorrectLocationName,
			Guess:             Coordinate{Latitude: guess.Latitude, Longitude: guess.Longitude},
			DistanceKm:        result.DistanceKm,
			Score:             result.Score,
			IsCorrect:         isCorrect,
			TimedOut:          req.TimeTakenSeconds > setting.TimeLimitSeconds,
			AnsweredQuestions: answered,
			IsCompleted:       session.Status == models.SessionCompleted,
			Session:           newSessionResponse(session),
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("submit_answer", err,
			zap.Uint("user_id", userID), zap.Uint("session_id", sessionID), zap.Uint("question_id", questionID))
	}

	metrics.RecordAnswer(string(sessionMode), resp.IsCorrect, resp.Score, resp.DistanceKm)
	s.logger.Info("answer_scored",
		zap.Uint("session_id", sessionID),
		zap.Uint("user_id", userID),
		zap.Uint("question_id", questionID),
		zap.Float64("distance_km", resp.DistanceKm),
		zap.Int("score", resp.Score),
		zap.Bool("correct", resp.IsCorrect),
	)
	if resp.IsCompleted {
		metrics.RecordSessionFinished(string(sessionMode), string(models.SessionCompleted))
		s.logger.Info("session_completed",
			zap.Uint("session_id", sessionID),
			zap.Uint("user_id", userID),
			zap.Int("total_score", resp.Session.TotalScore),
			zap.Int("correct_answers", resp.Session.CorrectAnswers),
		)
	}
	return resp, nil
}

// GiveUp 放弃进行中的会话
func (s *GeoGameService) GiveUp(ctx context.Context, userID, sessionID uint) (*SessionResponse, error) {
	if err := s.checkPlayer(ctx, userID); err != nil {
		return nil, err
	}

	var resp *SessionResponse
	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		session, err := s.loadPlayable(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}
		session.GiveUp(s.now())
		if err := tx.GameSession().Update(ctx, session); err != nil {
			return err
		}
		resp = newSessionResponse(session)
		return nil
	})
	if err != nil {
		return nil, s.fail("give_up", err, zap.Uint("user_id", userID), zap.Uint("session_id", sessionID))
	}

	metrics.RecordSessionFinished(string(resp.GameMode), string(models.SessionAbandoned))
	s.logger.Info("session_abandoned",
		zap.Uint("session_id", sessionID),
		zap.Uint("user_id", userID),
		zap.Int("total_score", resp.TotalScore),
	)
	return resp, nil
}

// GetSession 查询会话详情，未作答的题目不返回答案
func (s *GeoGameService) GetSession(ctx context.Context, userID, sessionID uint) (*SessionDetail, error) {
	if err := s.checkPlayer(ctx, userID); err != nil {
		return nil, err
	}

	session, err := s.repos.GameSession().FindByID(ctx, sessionID)
	if err != nil {
		return nil, s.fail("get_session", err, zap.Uint("user_id", userID), zap.Uint("session_id", sessionID))
	}
	if !session.IsOwnedBy(userID) {
		return nil, s.fail("get_session", apperrors.New(apperrors.ErrNotSessionOwner),
			zap.Uint("user_id", userID), zap.Uint("session_id", sessionID))
	}
	return newSessionDetail(session), nil
}

// ListSessions 按ID倒序分页列出玩家的会话
func (s *GeoGameService) ListSessions(ctx context.Context, userID uint, req *ListSessionsRequest) (*SessionListResponse, error) {
	if req == nil {
		req = &ListSessionsRequest{}
	}
	if req.GameMode != "" && !req.GameMode.Valid() {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedMode, "mode=%s", req.GameMode)
	}
	if err := s.checkPlayer(ctx, userID); err != nil {
		return nil, err
	}

	limit := clampLimit(req.Limit)
	// 多取一条判断是否还有下一页
	sessions, err := s.repos.GameSession().ListByUser(ctx, repository.SessionFilter{
		UserID: userID,
		Mode:   req.GameMode,
		Cursor: req.Cursor,
		Limit:  limit + 1,
	})
	if err != nil {
		return nil, s.fail("list_sessions", err, zap.Uint("user_id", userID))
	}

	resp := &SessionListResponse{Sessions: make([]*SessionResponse, 0, limit)}
	if len(sessions) > limit {
		sessions = sessions[:limit]
		next := sessions[limit-1].ID
		resp.NextCursor = &next
	}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, newSessionResponse(session))
	}
	return resp, nil
}

// checkPlayer 玩家必须存在且未被禁用
func (s *GeoGameService) checkPlayer(ctx context.Context, userID uint) error {
	user, err := s.repos.User().FindByID(ctx, userID)
	if err != nil {
		return s.fail("check_player", err, zap.Uint("user_id", userID))
	}
	if !user.IsActive() {
		return s.fail("check_player", apperrors.New(apperrors.ErrPermissionDenied, "账户已被禁用"),
			zap.Uint("user_id", userID))
	}
	return nil
}

// loadPlayable 加锁读取会话，并检查归属和进行中状态
func (s *GeoGameService) loadPlayable(ctx context.Context, tx *repository.Transaction, userID, sessionID uint) (*models.GameSession, error) {
	session, err := tx.GameSession().FindByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOwnedBy(userID) {
		return nil, apperrors.New(apperrors.ErrNotSessionOwner)
	}
	if !session.IsInProgress() {
		return nil, apperrors.Newf(apperrors.ErrSessionNotInProgress, "status=%s", session.Status)
	}
	return session, nil
}

// fail 按错误类别记录日志后原样返回
func (s *GeoGameService) fail(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound, apperrors.KindConflict, apperrors.KindValidation:
		s.logger.Warn("game_request_rejected", fields...)
	default:
		s.logger.Error("game_request_failed", fields...)
	}
	return err
}

func validateAnswer(req *AnswerRequest) (geo.Point, error) {
	if req == nil || req.Latitude == nil || req.Longitude == nil {
		return geo.Point{}, apperrors.New(apperrors.ErrInvalidCoordinate, "缺少经纬度")
	}
	// 按存储精度截断，计算与落库使用同一个值
	p := geo.Point{
		Latitude:  req.Latitude.Round(models.CoordinatePrecision),
		Longitude: req.Longitude.Round(models.CoordinatePrecision),
	}
	if !p.Valid() {
		return geo.Point{}, apperrors.Newf(apperrors.ErrInvalidCoordinate, "lat=%s lng=%s", p.Latitude, p.Longitude)
	}
	if req.TimeTakenSeconds < 0 {
		return geo.Point{}, apperrors.Newf(apperrors.ErrInvalidTimeTaken, "time_taken_seconds=%d", req.TimeTakenSeconds)
	}
	return p, nil
}

// replaceQuestion 用已作答的题目替换会话中的同一题
func replaceQuestion(session *models.GameSession, q *models.GameQuestion) {
	for i := range session.Questions {
		if session.Questions[i].ID == q.ID {
			session.Questions[i] = *q
			return
		}
	}
	session.AddQuestion(q)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
