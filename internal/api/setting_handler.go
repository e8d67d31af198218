package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/geo-guess/internal/models"
	"github.com/wfunc/geo-guess/internal/repository"
	"github.com/wfunc/geo-guess/internal/service"
)

// SettingHandler 游戏设置管理处理器
type SettingHandler struct {
	service service.GameSettingService
}

// NewSettingHandler 创建设置处理器
func NewSettingHandler(service service.GameSettingService) *SettingHandler {
	return &SettingHandler{service: service}
}

// SettingListResponse 设置列表响应
type SettingListResponse struct {
	Settings []*models.GameSetting `json:"settings"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

type listSettingsQuery struct {
	GameMode models.GameMode `form:"game_mode"`
	Page     int             `form:"page"`
	PageSize int             `form:"page_size"`
}

// List 设置列表
// GET /api/v1/admin/game-settings
func (h *SettingHandler) List(c *gin.Context) {
	var q listSettingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	settings, total, err := h.service.ListSettings(c.Request.Context(), q.GameMode, q.Page, q.PageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	if settings == nil {
		settings = []*models.GameSetting{}
	}
	p := repository.NewPagination(q.Page, q.PageSize)
	respond(c, http.StatusOK, SettingListResponse{
		Settings: settings,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
}

// Create 创建设置
// POST /api/v1/admin/game-settings
func (h *SettingHandler) Create(c *gin.Context) {
	var req service.CreateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	setting, err := h.service.CreateSetting(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, setting)
}

// Update 更新设置
// PUT /api/v1/admin/game-settings/:id
func (h *SettingHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	setting, err := h.service.UpdateSetting(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, setting)
}
