package geo

import (
	"math"

	"github.com/wfunc/geo-guess/internal/config"
)

// Scorer 根据距离计算得分
type Scorer interface {
	// Score 返回非负得分，距离越远得分不增
	Score(distanceKm, fullScoreDistanceKm float64) int
	// MaxScore 满分
	MaxScore() int
}

// LinearScorer 线性衰减计分：阈值内满分，超出阈值后按距离线性递减到0
type LinearScorer struct {
	maxScore            int
	zeroScoreDistanceKm float64
}

// NewLinearScorer 创建线性计分器
func NewLinearScorer(cfg config.ScoringConfig) *LinearScorer {
	return &LinearScorer{
		maxScore:            cfg.MaxScore,
		zeroScoreDistanceKm: cfg.ZeroScoreDistanceKm,
	}
}

// MaxScore 满分
func (s *LinearScorer) MaxScore() int {
	return s.maxScore
}

// Score 计算得分
func (s *LinearScorer) Score(distanceKm, fullScoreDistanceKm float64) int {
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		distanceKm = 0
	}
	if fullScoreDistanceKm < 0 {
		fullScoreDistanceKm = 0
	}
	if distanceKm <= fullScoreDistanceKm {
		return s.maxScore
	}
	if s.zeroScoreDistanceKm <= 0 {
		return 0
	}

	ratio := 1 - (distanceKm-fullScoreDistanceKm)/s.zeroScoreDistanceKm
	if ratio <= 0 {
		return 0
	}
	return int(math.Round(float64(s.maxScore) * ratio))
}

// Result 一次作答的距离与得分
type Result struct {
	DistanceKm float64
	Score      int
}

// Evaluate 计算距离和得分，是否答对由设置的满分阈值判断
func Evaluate(scorer Scorer, correct, guess Point, fullScoreDistanceKm float64) Result {
	d := DistanceKm(correct, guess)
	return Result{
		DistanceKm: d,
		Score:      scorer.Score(d, fullScoreDistanceKm),
	}
}
