package game

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/geo-guess/internal/config"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/game/geo"
	"github.com/wfunc/geo-guess/internal/game/mode"
	"github.com/wfunc/geo-guess/internal/models"
	"github.com/wfunc/geo-guess/internal/repository"
	"gorm.io/gorm"
)

// 首尔市政厅附近
const (
	seoulLat = "37.5665"
	seoulLng = "126.978"
)

type GeoGameServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *GeoGameService
	ctx     context.Context
	now     time.Time
	player  *models.User
}

func (s *GeoGameServiceTestSuite) SetupTest() {
	s.db = repository.SetupTestDB(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.service = NewGeoGameService(&GeoGameServiceConfig{
		Repos:    repository.NewManager(s.db),
		Registry: mode.NewRegistry(mode.NewMemoryStrategy(3), mode.NewCityStrategy()),
		Scorer:   geo.NewLinearScorer(config.ScoringConfig{MaxScore: 5000, ZeroScoreDistanceKm: 2000}),
		Clock:    func() time.Time { return s.now },
	})
	s.player = repository.CreateTestUser(s.T(), s.db, "player")
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// offsetLat 在首尔以北约km公里处作答
func offsetLat(km float64) *decimal.Decimal {
	d := decimal.RequireFromString(seoulLat).Add(decimal.NewFromFloat(km / 111.195))
	return &d
}

func (s *GeoGameServiceTestSuite) guess(lat *decimal.Decimal, taken int) *AnswerRequest {
	return &AnswerRequest{Latitude: lat, Longitude: dec(seoulLng), TimeTakenSeconds: taken}
}

func (s *GeoGameServiceTestSuite) startCityGame(maxQuestions int, fullScoreKm float64) *SessionResponse {
	repository.CreateTestSetting(s.T(), s.db, models.GameModeCity, maxQuestions, fullScoreKm)
	repository.CreateTestCity(s.T(), s.db, "Seoul", 37.5665, 126.978)

	session, err := s.service.CreateSession(s.ctx, s.player.ID, models.GameModeCity)
	s.Require().NoError(err)
	return session
}

func (s *GeoGameServiceTestSuite) loadSession(id uint) *models.GameSession {
	session, err := repository.NewManager(s.db).GameSession().FindByID(s.ctx, id)
	s.Require().NoError(err)
	return session
}

func (s *GeoGameServiceTestSuite) TestCreateSession() {
	session := s.startCityGame(10, 1)

	s.NotZero(session.ID)
	s.Equal(models.SessionInProgress, session.Status)
	s.Equal(models.GameModeCity, session.GameMode)
	s.Equal(s.now, session.StartTime)
	s.Nil(session.EndTime)
	s.Zero(session.TotalQuestions)
}

func (s *GeoGameServiceTestSuite) TestCreateSession_ConflictAcrossModes() {
	s.startCityGame(10, 1)
	repository.CreateTestSetting(s.T(), s.db, models.GameModeMemory, 5, 1)
	repository.CreateTestMemories(s.T(), s.db, s.player.ID, 3)

	_, err := s.service.CreateSession(s.ctx, s.player.ID, models.GameModeCity)
	s.True(apperrors.Is(err, apperrors.ErrSessionInProgress))
	s.True(apperrors.IsConflict(err))

	_, err = s.service.CreateSession(s.ctx, s.player.ID, models.GameModeMemory)
	s.True(apperrors.Is(err, apperrors.ErrSessionInProgress))
}

func (s *GeoGameServiceTestSuite) TestCreateSession_Preconditions() {
	_, err := s.service.CreateSession(s.ctx, 9999, models.GameModeCity)
	s.True(apperrors.Is(err, apperrors.ErrPlayerNotFound))

	_, err = s.service.CreateSession(s.ctx, s.player.ID, models.GameModeCity)
	s.True(apperrors.Is(err, apperrors.ErrSettingNotFound))
	s.True(apperrors.IsNotFound(err))

	_, err = s.service.CreateSession(s.ctx, s.player.ID, "PUZZLE")
	s.True(apperrors.Is(err, apperrors.ErrUnsupportedMode))

	_, err = s.service.CreateSession(s.ctx, s.player.ID, models.GameModeFriend)
	s.True(apperrors.Is(err, apperrors.ErrUnsupportedMode))
	s.True(apperrors.IsValidation(err))

	frozen := repository.CreateTestUser(s.T(), s.db, "frozen")
	s.Require().NoError(s.db.Model(frozen).Update("status", "frozen").Error)
	_, err = s.service.CreateSession(s.ctx, frozen.ID, models.GameModeCity)
	s.True(apperrors.Is(err, apperrors.ErrPermissionDenied))
}

func (s *GeoGameServiceTestSuite) TestCreateSession_InsufficientMemories() {
	repository.CreateTestSetting(s.T(), s.db, models.GameModeMemory, 5, 1)
	repository.CreateTestMemories(s.T(), s.db, s.player.ID, 2)

	_, err := s.service.CreateSession(s.ctx, s.player.ID, models.GameModeMemory)
	s.True(apperrors.Is(err, apperrors.ErrInsufficientData))
	s.True(apperrors.IsValidation(err))

	var count int64
	s.Require().NoError(s.db.Model(&models.GameSession{}).Count(&count).Error)
	s.Zero(count)
}

func (s *GeoGameServiceTestSuite) TestGetNextQuestion_HidesAnswer() {
	session := s.startCityGame(10, 1)

	q, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)
	s.Equal(1, q.QuestionOrder)
	s.Equal(10, q.MaxQuestions)
	s.Equal(60, q.TimeLimitSeconds)
	s.Equal(PromptCity, q.Prompt)
	s.Empty(q.ImageURLs)

	raw, err := json.Marshal(q)
	s.Require().NoError(err)
	s.NotContains(string(raw), "Seoul")
	s.NotContains(string(raw), "37.5665")

	stored := s.loadSession(session.ID)
	s.Equal(1, stored.TotalQuestions)
	s.Len(stored.Questions, 1)
	s.Equal("Seoul, Testland", stored.Questions[0].CorrectLocationName)

	q2, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)
	s.Equal(2, q2.QuestionOrder)
}

func (s *GeoGameServiceTestSuite) TestGetNextQuestion_AllQuestionsCompleted() {
	session := s.startCityGame(2, 1)

	for i := 0; i < 2; i++ {
		_, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
		s.Require().NoError(err)
	}
	_, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrAllQuestionsCompleted))
	s.True(apperrors.IsConflict(err))
	s.Equal(2, s.loadSession(session.ID).TotalQuestions)
}

func (s *GeoGameServiceTestSuite) TestGetNextQuestion_CityCatalogEmpty() {
	repository.CreateTestSetting(s.T(), s.db, models.GameModeCity, 10, 1)
	session, err := s.service.CreateSession(s.ctx, s.player.ID, models.GameModeCity)
	s.Require().NoError(err)

	_, err = s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrCatalogEmpty))
	s.True(apperrors.IsNotFound(err))
	s.Zero(s.loadSession(session.ID).TotalQuestions)
}

func (s *GeoGameServiceTestSuite) TestGetNextQuestion_MemoryNoRepeats() {
	repository.CreateTestSetting(s.T(), s.db, models.GameModeMemory, 10, 1)
	memories := repository.CreateTestMemories(s.T(), s.db, s.player.ID, 3)

	session, err := s.service.CreateSession(s.ctx, s.player.ID, models.GameModeMemory)
	s.Require().NoError(err)

	for i := range memories {
		q, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
		s.Require().NoError(err)
		s.Equal(PromptMemory, q.Prompt)
		s.Equal([]string{
			fmt.Sprintf("https://img.example.com/%d/1.jpg", i+1),
			fmt.Sprintf("https://img.example.com/%d/2.jpg", i+1),
		}, q.ImageURLs)
	}

	_, err = s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrInsufficientSourceData))
	s.True(apperrors.IsNotFound(err))

	stored := s.loadSession(session.ID)
	s.Equal(3, stored.TotalQuestions)
	s.Len(stored.UsedMemoryIDs(), 3)
}

func (s *GeoGameServiceTestSuite) TestSubmitAnswer_Scoring() {
	session := s.startCityGame(10, 1)

	q1, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)
	a1, err := s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, q1.QuestionID, s.guess(offsetLat(0.5), 12))
	s.Require().NoError(err)
	s.True(a1.IsCorrect)
	s.Equal(5000, a1.Score)
	s.InDelta(0.5, a1.DistanceKm, 0.01)
	s.Equal("Seoul, Testland", a1.LocationName)
	s.True(a1.CorrectLocation.Latitude.Equal(decimal.RequireFromString(seoulLat)))
	s.Equal(1, a1.Session.CorrectAnswers)
	s.Equal(5000, a1.Session.TotalScore)
	s.False(a1.TimedOut)
	s.False(a1.IsCompleted)

	q2, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)
	a2, err := s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, q2.QuestionID, s.guess(offsetLat(50), 90))
	s.Require().NoError(err)
	s.False(a2.IsCorrect)
	s.InDelta(50, a2.DistanceKm, 0.1)
	s.Less(a2.Score, 5000)
	s.Greater(a2.Score, 0)
	s.True(a2.TimedOut)
	s.Equal(1, a2.Session.CorrectAnswers)
	s.Equal(5000+a2.Score, a2.Session.TotalScore)
	s.Equal(2, a2.AnsweredQuestions)

	stored := s.loadSession(session.ID)
	s.Equal(5000+a2.Score, stored.TotalScore)
	s.Equal(1, stored.CorrectAnswers)
	s.LessOrEqual(stored.CorrectAnswers, stored.AnsweredCount())
	s.InDelta(50.0, stored.GetAccuracy(), 1e-9)
}

func (s *GeoGameServiceTestSuite) TestSubmitAnswer_AlreadyAnswered() {
	session := s.startCityGame(10, 1)
	q, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)

	_, err = s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, q.QuestionID, s.guess(offsetLat(0.5), 5))
	s.Require().NoError(err)

	_, err = s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, q.QuestionID, s.guess(offsetLat(500), 9))
	s.True(apperrors.Is(err, apperrors.ErrQuestionAnswered))
	s.True(apperrors.IsConflict(err))

	stored := s.loadSession(session.ID)
	s.Equal(5000, stored.TotalScore)
	s.Equal(1, stored.CorrectAnswers)
	answered := stored.Questions[0]
	s.Equal(5000, *answered.Score)
	s.Equal(5, *answered.TimeTakenSeconds)
	s.InDelta(0.5, *answered.DistanceKm, 0.01)
}

func (s *GeoGameServiceTestSuite) TestSubmitAnswer_GuessRoundedToStoredPrecision() {
	session := s.startCityGame(10, 1)
	q, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)

	req := &AnswerRequest{Latitude: dec("37.123456789123456"), Longitude: dec("126.978000004999"), TimeTakenSeconds: 4}
	answer, err := s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, q.QuestionID, req)
	s.Require().NoError(err)
	s.Equal("37.12345679", answer.Guess.Latitude.String())
	s.Equal("126.978", answer.Guess.Longitude.String())

	detail, err := s.service.GetSession(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)
	stored := detail.Questions[0].Guess
	s.Require().NotNil(stored)
	s.True(stored.Latitude.Equal(answer.Guess.Latitude), "stored=%s", stored.Latitude)
	s.True(stored.Longitude.Equal(answer.Guess.Longitude), "stored=%s", stored.Longitude)
}

func (s *GeoGameServiceTestSuite) TestSubmitAnswer_CompletesSession() {
	session := s.startCityGame(2, 1)

	for i := 0; i < 2; i++ {
		q, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
		s.Require().NoError(err)
		s.now = s.now.Add(time.Minute)
		a, err := s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, q.QuestionID, s.guess(dec(seoulLat), 10))
		s.Require().NoError(err)
		s.Equal(i == 1, a.IsCompleted)
	}

	stored := s.loadSession(session.ID)
	s.Equal(models.SessionCompleted, stored.Status)
	s.Require().NotNil(stored.EndTime)
	s.True(stored.EndTime.Equal(s.now))
	s.Nil(stored.ActiveUserID)
	s.Equal(10000, stored.TotalScore)

	_, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotInProgress))
	s.True(apperrors.IsValidation(err))
	_, err = s.service.GiveUp(s.ctx, s.player.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotInProgress))

	// 完成后可以开新局
	_, err = s.service.CreateSession(s.ctx, s.player.ID, models.GameModeCity)
	s.NoError(err)
}

func (s *GeoGameServiceTestSuite) TestSubmitAnswer_InvalidInput() {
	session := s.startCityGame(10, 1)
	q, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)

	cases := map[string]struct {
		req  *AnswerRequest
		code apperrors.ErrorCode
	}{
		"missing latitude": {&AnswerRequest{Longitude: dec("1")}, apperrors.ErrInvalidCoordinate},
		"latitude range":   {&AnswerRequest{Latitude: dec("90.5"), Longitude: dec("1")}, apperrors.ErrInvalidCoordinate},
		"longitude range":  {&AnswerRequest{Latitude: dec("1"), Longitude: dec("-180.01")}, apperrors.ErrInvalidCoordinate},
		"negative time":    {&AnswerRequest{Latitude: dec("1"), Longitude: dec("1"), TimeTakenSeconds: -1}, apperrors.ErrInvalidTimeTaken},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			_, err := s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, q.QuestionID, tc.req)
			s.True(apperrors.Is(err, tc.code))
			s.True(apperrors.IsValidation(err))
		})
	}

	_, err = s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, 9999, s.guess(dec(seoulLat), 1))
	s.True(apperrors.Is(err, apperrors.ErrQuestionNotFound))

	s.False(s.loadSession(session.ID).Questions[0].IsAnswered())
}

func (s *GeoGameServiceTestSuite) TestNonOwnerCannotMutate() {
	session := s.startCityGame(10, 1)
	q, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)

	intruder := repository.CreateTestUser(s.T(), s.db, "intruder")

	_, err = s.service.GetNextQuestion(s.ctx, intruder.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrNotSessionOwner))
	s.True(apperrors.IsConflict(err))

	_, err = s.service.SubmitAnswer(s.ctx, intruder.ID, session.ID, q.QuestionID, s.guess(dec(seoulLat), 1))
	s.True(apperrors.Is(err, apperrors.ErrNotSessionOwner))

	_, err = s.service.GiveUp(s.ctx, intruder.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrNotSessionOwner))

	_, err = s.service.GetSession(s.ctx, intruder.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrNotSessionOwner))

	stored := s.loadSession(session.ID)
	s.Equal(models.SessionInProgress, stored.Status)
	s.Equal(1, stored.TotalQuestions)
	s.Zero(stored.TotalScore)
	s.False(stored.Questions[0].IsAnswered())
}

func (s *GeoGameServiceTestSuite) TestGiveUp() {
	session := s.startCityGame(10, 1)

	resp, err := s.service.GiveUp(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)
	s.Equal(models.SessionAbandoned, resp.Status)
	s.Require().NotNil(resp.EndTime)
	s.Equal(s.now, *resp.EndTime)

	_, err = s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotInProgress))
	_, err = s.service.GiveUp(s.ctx, s.player.ID, session.ID)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotInProgress))

	_, err = s.service.GiveUp(s.ctx, s.player.ID, 9999)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotFound))

	_, err = s.service.CreateSession(s.ctx, s.player.ID, models.GameModeCity)
	s.NoError(err)
}

func (s *GeoGameServiceTestSuite) TestGetSession_RevealsOnlyAnswered() {
	session := s.startCityGame(10, 1)
	q1, err := s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)
	_, err = s.service.SubmitAnswer(s.ctx, s.player.ID, session.ID, q1.QuestionID, s.guess(offsetLat(0.5), 3))
	s.Require().NoError(err)
	_, err = s.service.GetNextQuestion(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)

	detail, err := s.service.GetSession(s.ctx, s.player.ID, session.ID)
	s.Require().NoError(err)
	s.Equal(2, detail.TotalQuestions)
	s.InDelta(50.0, detail.Accuracy, 1e-9)
	s.Require().Len(detail.Questions, 2)

	answered := detail.Questions[0]
	s.True(answered.Answered)
	s.Require().NotNil(answered.CorrectLocation)
	s.Equal("Seoul, Testland", answered.LocationName)
	s.Require().NotNil(answered.Score)
	s.Equal(5000, *answered.Score)
	s.NotNil(answered.Guess)

	pending := detail.Questions[1]
	s.False(pending.Answered)
	s.Nil(pending.CorrectLocation)
	s.Empty(pending.LocationName)
	s.Nil(pending.Score)

	_, err = s.service.GetSession(s.ctx, s.player.ID, 9999)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotFound))
}

func (s *GeoGameServiceTestSuite) TestListSessions_Pagination() {
	repository.CreateTestSetting(s.T(), s.db, models.GameModeCity, 10, 1)
	repository.CreateTestSetting(s.T(), s.db, models.GameModeMemory, 10, 1)
	repository.CreateTestMemories(s.T(), s.db, s.player.ID, 3)

	var ids []uint
	for _, m := range []models.GameMode{models.GameModeCity, models.GameModeMemory, models.GameModeCity} {
		session, err := s.service.CreateSession(s.ctx, s.player.ID, m)
		s.Require().NoError(err)
		_, err = s.service.GiveUp(s.ctx, s.player.ID, session.ID)
		s.Require().NoError(err)
		ids = append(ids, session.ID)
	}

	page1, err := s.service.ListSessions(s.ctx, s.player.ID, &ListSessionsRequest{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page1.Sessions, 2)
	s.Equal(ids[2], page1.Sessions[0].ID)
	s.Equal(ids[1], page1.Sessions[1].ID)
	s.Require().NotNil(page1.NextCursor)
	s.Equal(ids[1], *page1.NextCursor)

	page2, err := s.service.ListSessions(s.ctx, s.player.ID, &ListSessionsRequest{Limit: 2, Cursor: *page1.NextCursor})
	s.Require().NoError(err)
	s.Require().Len(page2.Sessions, 1)
	s.Equal(ids[0], page2.Sessions[0].ID)
	s.Nil(page2.NextCursor)

	cities, err := s.service.ListSessions(s.ctx, s.player.ID, &ListSessionsRequest{GameMode: models.GameModeCity})
	s.Require().NoError(err)
	s.Len(cities.Sessions, 2)

	_, err = s.service.ListSessions(s.ctx, s.player.ID, &ListSessionsRequest{GameMode: "PUZZLE"})
	s.True(apperrors.Is(err, apperrors.ErrUnsupportedMode))

	other := repository.CreateTestUser(s.T(), s.db, "other")
	empty, err := s.service.ListSessions(s.ctx, other.ID, nil)
	s.Require().NoError(err)
	s.Empty(empty.Sessions)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, DefaultListLimit, clampLimit(-5))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxListLimit, clampLimit(1000))
}

func TestGeoGameServiceSuite(t *testing.T) {
	suite.Run(t, new(GeoGameServiceTestSuite))
}
