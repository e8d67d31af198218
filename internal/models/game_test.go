package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameSession(t *testing.T) {
	now := time.Now()
	s := NewGameSession(7, GameModeCity, now)

	assert.Equal(t, SessionInProgress, s.Status)
	assert.True(t, s.IsInProgress())
	assert.True(t, s.IsOwnedBy(7))
	assert.False(t, s.IsOwnedBy(8))
	assert.Equal(t, now, s.StartTime)
	assert.Nil(t, s.EndTime)
	require.NotNil(t, s.ActiveUserID)
	assert.Equal(t, uint(7), *s.ActiveUserID)
	assert.Nil(t, s.TargetUserID)
}

func TestGameSession_AddQuestion(t *testing.T) {
	s := NewGameSession(1, GameModeMemory, time.Now())
	s.ID = 42

	memoryID := uint(3)
	s.AddQuestion(&GameQuestion{QuestionOrder: 1, MemoryID: &memoryID})
	s.AddQuestion(&GameQuestion{QuestionOrder: 2})

	assert.Equal(t, 2, s.TotalQuestions)
	assert.Equal(t, uint(42), s.Questions[0].SessionID)
	assert.Equal(t, uint(42), s.Questions[1].SessionID)
	assert.Equal(t, map[uint]struct{}{3: {}}, s.UsedMemoryIDs())
}

func TestGameSession_Transitions(t *testing.T) {
	at := time.Now()

	abandoned := NewGameSession(1, GameModeCity, at.Add(-time.Minute))
	abandoned.GiveUp(at)
	assert.Equal(t, SessionAbandoned, abandoned.Status)
	assert.False(t, abandoned.IsInProgress())
	assert.True(t, abandoned.Status.IsTerminal())
	require.NotNil(t, abandoned.EndTime)
	assert.Equal(t, at, *abandoned.EndTime)
	assert.Nil(t, abandoned.ActiveUserID)

	completed := NewGameSession(1, GameModeCity, at.Add(-time.Minute))
	completed.CompleteGame(at)
	assert.Equal(t, SessionCompleted, completed.Status)
	assert.True(t, completed.Status.IsTerminal())
	require.NotNil(t, completed.EndTime)
	assert.Nil(t, completed.ActiveUserID)

	assert.False(t, SessionInProgress.IsTerminal())
}

func TestGameSession_ScoreAndAccuracy(t *testing.T) {
	s := NewGameSession(1, GameModeCity, time.Now())
	assert.Equal(t, 0.0, s.GetAccuracy())

	s.AddQuestion(&GameQuestion{QuestionOrder: 1})
	s.AddQuestion(&GameQuestion{QuestionOrder: 2})
	s.AddQuestion(&GameQuestion{QuestionOrder: 3})
	s.AddQuestion(&GameQuestion{QuestionOrder: 4})

	s.UpdateScore(5000)
	s.UpdateScore(120)
	s.IncrementCorrectAnswers()

	assert.Equal(t, 5120, s.TotalScore)
	assert.Equal(t, 1, s.CorrectAnswers)
	assert.InDelta(t, 25.0, s.GetAccuracy(), 1e-9)
}

func TestGameQuestion_RecordAnswer(t *testing.T) {
	q := &GameQuestion{QuestionOrder: 1}
	assert.False(t, q.IsAnswered())
	assert.False(t, q.PlayerLatitude.Valid)
	assert.Nil(t, q.Score)

	at := time.Now()
	q.RecordAnswer(Answer{
		Latitude:         decimal.RequireFromString("37.5665"),
		Longitude:        decimal.RequireFromString("126.978"),
		DistanceKm:       12.5,
		Score:            4900,
		TimeTakenSeconds: 17,
		AnsweredAt:       at,
	})

	assert.True(t, q.IsAnswered())
	assert.True(t, q.PlayerLatitude.Valid)
	assert.True(t, q.PlayerLongitude.Valid)
	assert.True(t, q.PlayerLatitude.Decimal.Equal(decimal.RequireFromString("37.5665")))
	assert.Equal(t, 12.5, *q.DistanceKm)
	assert.Equal(t, 4900, *q.Score)
	assert.Equal(t, 17, *q.TimeTakenSeconds)
	assert.Equal(t, at, *q.AnsweredAt)

	s := NewGameSession(1, GameModeCity, time.Now())
	s.AddQuestion(q)
	s.AddQuestion(&GameQuestion{QuestionOrder: 2})
	assert.Equal(t, 1, s.AnsweredCount())
}

func TestGameSetting_Validate(t *testing.T) {
	valid := GameSetting{GameMode: GameModeCity, MaxQuestions: 10, TimeLimitSeconds: 60, MaxDistanceForFullScoreKm: 1}
	assert.NoError(t, valid.Validate())

	zeroThreshold := valid
	zeroThreshold.MaxDistanceForFullScoreKm = 0
	assert.NoError(t, zeroThreshold.Validate())

	cases := map[string]func(s *GameSetting){
		"unknown mode":      func(s *GameSetting) { s.GameMode = "PUZZLE" },
		"no questions":      func(s *GameSetting) { s.MaxQuestions = 0 },
		"no time limit":     func(s *GameSetting) { s.TimeLimitSeconds = 0 },
		"negative distance": func(s *GameSetting) { s.MaxDistanceForFullScoreKm = -0.1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := valid
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestGameSetting_ActiveModeAndThreshold(t *testing.T) {
	s := &GameSetting{GameMode: GameModeMemory, IsActive: true, MaxDistanceForFullScoreKm: 1}
	require.NoError(t, s.BeforeSave(nil))
	require.NotNil(t, s.ActiveMode)
	assert.Equal(t, "MEMORY_LOCATION", *s.ActiveMode)

	s.IsActive = false
	require.NoError(t, s.BeforeSave(nil))
	assert.Nil(t, s.ActiveMode)

	assert.True(t, s.IsCorrectDistance(0.5))
	assert.True(t, s.IsCorrectDistance(1))
	assert.False(t, s.IsCorrectDistance(1.01))
}

func TestStringList_ValueScan(t *testing.T) {
	v, err := StringList{"a.jpg", "b.jpg"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a.jpg","b.jpg"]`, v)

	nilValue, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", nilValue)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["x.png"]`)))
	assert.Equal(t, StringList{"x.png"}, l)
	assert.Error(t, l.Scan(12))
}
