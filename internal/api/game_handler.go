package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/geo-guess/internal/game"
)

// GameHandler 猜地点游戏处理器
type GameHandler struct {
	service *game.GeoGameService
}

// NewGameHandler 创建游戏处理器
func NewGameHandler(service *game.GeoGameService) *GameHandler {
	return &GameHandler{service: service}
}

// CreateSession 开始新游戏
// POST /api/v1/games/sessions
func (h *GameHandler) CreateSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req game.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), userID, req.GameMode)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, session)
}

// ListSessions 会话列表
// GET /api/v1/games/sessions?game_mode=&cursor=&limit=
func (h *GameHandler) ListSessions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req game.ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	list, err := h.service.ListSessions(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// GetSession 会话详情
// GET /api/v1/games/sessions/:id
func (h *GameHandler) GetSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, detail)
}

// NextQuestion 获取下一题
// POST /api/v1/games/sessions/:id/questions/next
func (h *GameHandler) NextQuestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	question, err := h.service.GetNextQuestion(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, question)
}

// SubmitAnswer 提交答案
// POST /api/v1/games/sessions/:id/questions/:questionId/answer
func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}

	var req game.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	result, err := h.service.SubmitAnswer(c.Request.Context(), userID, sessionID, questionID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

// GiveUp 放弃游戏
// POST /api/v1/games/sessions/:id/give-up
func (h *GameHandler) GiveUp(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	session, err := h.service.GiveUp(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, session)
}
