package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/geo-guess/internal/api"
	"github.com/wfunc/geo-guess/internal/config"
	"github.com/wfunc/geo-guess/internal/database"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/game"
	"github.com/wfunc/geo-guess/internal/game/geo"
	"github.com/wfunc/geo-guess/internal/game/mode"
	"github.com/wfunc/geo-guess/internal/logger"
	"github.com/wfunc/geo-guess/internal/middleware"
	"github.com/wfunc/geo-guess/internal/repository"
	"github.com/wfunc/geo-guess/internal/service"
	"github.com/wfunc/geo-guess/internal/utils"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// 限流器清理
const (
	limiterCleanupInterval = time.Minute
	limiterIdleTimeout     = 10 * time.Minute
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpServer  *http.Server
	rateLimiter *middleware.RateLimiter

	// 关闭控制
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	errCh  chan error
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	setupSystem(&cfg.System)

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
		errCh:  make(chan error, 1),
	}
}

// Start 初始化组件并启动HTTP服务
func (s *Server) Start() error {
	s.logger.Info("正在启动猜地点游戏服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initDatabase(); err != nil {
		return err
	}

	handler := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			s.errCh <- err
		}
	}()

	if s.rateLimiter != nil {
		s.wg.Add(1)
		go s.cleanupLimiters()
	}

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功", zap.String("http", s.cfg.Server.Addr()))
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...", zap.Bool("seed", s.cfg.Database.SeedDefaults))
		if err := database.AutoMigrate(s.cfg.Database.SeedDefaults); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}
	return nil
}

// buildRouter 组装仓储、服务和路由
func (s *Server) buildRouter() http.Handler {
	gin.SetMode(s.cfg.Server.GinMode())

	db := database.GetDB()
	repos := repository.NewManager(db)

	gameService := game.NewGeoGameService(&game.GeoGameServiceConfig{
		Repos: repos,
		Registry: mode.NewRegistry(
			mode.NewMemoryStrategy(s.cfg.Game.Catalog.MinGeotaggedMemories),
			mode.NewCityStrategy(),
		),
		Scorer: geo.NewLinearScorer(s.cfg.Game.Scoring),
		Logger: logger.GetModuleLogger("game"),
	})

	jwtCfg := s.cfg.Security.JWT
	jwt := utils.NewJWTManager(jwtCfg.Secret, jwtCfg.Issuer, time.Duration(jwtCfg.ExpireHours)*time.Hour)

	rl := s.cfg.Security.RateLimit
	if rl.Enabled {
		s.rateLimiter = middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst, logger.GetModuleLogger("http"))
	}

	router := api.NewRouter(&api.RouterConfig{
		DB:          db,
		Game:        gameService,
		Services:    service.NewServices(repos, s.logger),
		JWT:         jwt,
		RateLimiter: s.rateLimiter,
		Monitor:     s.cfg.Monitor,
		Log:         logger.GetModuleLogger("http"),
	})
	return router.Handler()
}

// cleanupLimiters 定期清理空闲的限流器
func (s *Server) cleanupLimiters() {
	defer s.wg.Done()
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.rateLimiter.Cleanup(limiterIdleTimeout); n > 0 {
				s.logger.Debug("清理空闲限流器", zap.Int("count", n))
			}
		}
	}
}

// WaitForShutdown 等待关闭信号或HTTP服务异常
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case err := <-s.errCh:
		s.logger.Error("HTTP服务停止，准备退出", zap.Error(err))
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求，等待进行中的请求完成
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP服务关闭超时", zap.Error(err))
		}
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
		return err
	}
	return nil
}

// reloadConfig 重新加载配置，目前只应用日志级别
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	s.logger.Info("配置重新加载完成", zap.String("log_level", newCfg.Log.Level))
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("猜地点游戏服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
