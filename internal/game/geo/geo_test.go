package geo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/wfunc/geo-guess/internal/config"
)

func testScorer() *LinearScorer {
	return NewLinearScorer(config.ScoringConfig{MaxScore: 5000, ZeroScoreDistanceKm: 2000})
}

func TestDistanceKm_SamePoint(t *testing.T) {
	points := []Point{
		NewPoint(0, 0),
		NewPoint(37.5665, 126.978),
		NewPoint(-89.9999, 179.9999),
		{Latitude: decimal.RequireFromString("51.50740000"), Longitude: decimal.RequireFromString("-0.12780000")},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceKm(p, p))
	}
}

func TestDistanceKm_KnownPairs(t *testing.T) {
	seoul := NewPoint(37.5665, 126.978)
	busan := NewPoint(35.1796, 129.0756)
	paris := NewPoint(48.8566, 2.3522)
	london := NewPoint(51.5074, -0.1278)

	assert.InDelta(t, 325, DistanceKm(seoul, busan), 5)
	assert.InDelta(t, 343, DistanceKm(paris, london), 5)
	// 对称
	assert.InDelta(t, DistanceKm(paris, london), DistanceKm(london, paris), 1e-9)
	// 对跖点约为半个地球周长
	assert.InDelta(t, 20015, DistanceKm(NewPoint(0, 0), NewPoint(0, 180)), 5)
}

func TestPoint_Valid(t *testing.T) {
	assert.True(t, NewPoint(90, 180).Valid())
	assert.True(t, NewPoint(-90, -180).Valid())
	assert.False(t, NewPoint(90.1, 0).Valid())
	assert.False(t, NewPoint(0, -180.5).Valid())
}

func TestLinearScorer_Score(t *testing.T) {
	s := testScorer()

	assert.Equal(t, 5000, s.MaxScore())
	assert.Equal(t, 5000, s.Score(0, 1))
	assert.Equal(t, 5000, s.Score(0, 0))
	assert.Equal(t, 5000, s.Score(1, 1))
	assert.Equal(t, 4750, s.Score(101, 1))
	assert.Equal(t, 0, s.Score(2001, 1))
	assert.Equal(t, 0, s.Score(15000, 1))
}

func TestLinearScorer_MonotonicAndNonNegative(t *testing.T) {
	s := testScorer()
	prev := s.Score(0, 1)
	for d := 0.0; d <= 21000; d += 7.5 {
		score := s.Score(d, 1)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, prev, "distance %.1f", d)
		prev = score
	}
}

func TestEvaluate(t *testing.T) {
	s := testScorer()
	correct := NewPoint(37.5665, 126.978)

	exact := Evaluate(s, correct, correct, 1)
	assert.Equal(t, 0.0, exact.DistanceKm)
	assert.Equal(t, 5000, exact.Score)

	far := Evaluate(s, correct, NewPoint(35.1796, 129.0756), 1)
	assert.Less(t, far.Score, 5000)
	assert.Greater(t, far.Score, 0)

	// 满分阈值为0时，偏离一点即不满分
	zero := Evaluate(s, correct, NewPoint(37.5666, 126.978), 0)
	assert.Less(t, zero.Score, 5000)
}
