package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/geo-guess/internal/config"
	"github.com/wfunc/geo-guess/internal/database"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/game"
	"github.com/wfunc/geo-guess/internal/metrics"
	"github.com/wfunc/geo-guess/internal/middleware"
	"github.com/wfunc/geo-guess/internal/service"
	"github.com/wfunc/geo-guess/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	DB          *gorm.DB
	Game        *game.GeoGameService
	Services    *service.Services
	JWT         *utils.JWTManager
	RateLimiter *middleware.RateLimiter // 为空时不限流
	Monitor     config.MonitorConfig
	Log         *zap.Logger
}

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	gameHandler    *GameHandler
	settingHandler *SettingHandler
	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *middleware.RateLimiter
	monitor        config.MonitorConfig
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(cfg *RouterConfig) *Router {
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := &Router{
		engine:         engine,
		db:             cfg.DB,
		gameHandler:    NewGameHandler(cfg.Game),
		settingHandler: NewSettingHandler(cfg.Services.GameSetting),
		authMiddleware: middleware.NewAuthMiddleware(cfg.JWT),
		rateLimiter:    cfg.RateLimiter,
		monitor:        cfg.Monitor,
		log:            log,
	}

	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	if r.monitor.Enabled {
		path := r.monitor.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(metrics.Handler()))
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.authMiddleware.RequireAuth())
	{
		games := v1.Group("/games")
		if r.rateLimiter != nil {
			games.Use(r.rateLimiter.Handler())
		}
		{
			games.POST("/sessions", r.gameHandler.CreateSession)
			games.GET("/sessions", r.gameHandler.ListSessions)
			games.GET("/sessions/:id", r.gameHandler.GetSession)
			games.POST("/sessions/:id/questions/next", r.gameHandler.NextQuestion)
			games.POST("/sessions/:id/questions/:questionId/answer", r.gameHandler.SubmitAnswer)
			games.POST("/sessions/:id/give-up", r.gameHandler.GiveUp)
		}

		// 管理员路由（需要管理员权限）
		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/game-settings", r.settingHandler.List)
			admin.POST("/game-settings", r.settingHandler.Create)
			admin.PUT("/game-settings/:id", r.settingHandler.Update)
		}
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		respondError(c, apperrors.New(apperrors.ErrNotFound, "接口不存在"))
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, r.db); err != nil {
		r.log.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Handler 返回HTTP处理器
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
