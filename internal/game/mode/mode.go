// Package mode 按游戏模式生成题目
package mode

import (
	"context"

	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/models"
	"github.com/wfunc/geo-guess/internal/repository"
)

// QuestionGenerator 模式出题策略
type QuestionGenerator interface {
	// Mode 策略对应的模式
	Mode() models.GameMode
	// CanStartSession 检查玩家是否满足开局条件，在创建会话之前调用
	CanStartSession(ctx context.Context, repos repository.Repositories, userID uint) error
	// NextQuestion 为会话生成第order题，返回的题目尚未持久化
	NextQuestion(ctx context.Context, repos repository.Repositories, session *models.GameSession, setting *models.GameSetting, order int) (*models.GameQuestion, error)
}

// Registry 模式到出题策略的查找表
type Registry struct {
	generators map[models.GameMode]QuestionGenerator
}

// NewRegistry 创建策略表，同一模式后注册的覆盖先注册的
func NewRegistry(generators ...QuestionGenerator) *Registry {
	r := &Registry{generators: make(map[models.GameMode]QuestionGenerator, len(generators))}
	for _, g := range generators {
		r.generators[g.Mode()] = g
	}
	return r
}

// Get 获取模式的出题策略
func (r *Registry) Get(mode models.GameMode) (QuestionGenerator, error) {
	g, ok := r.generators[mode]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedMode, "mode=%s", mode)
	}
	return g, nil
}
