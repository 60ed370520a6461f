package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dushixiang/statuspi/internal/config"
	"github.com/dushixiang/statuspi/internal/handler"
	"github.com/dushixiang/statuspi/internal/scheduler"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server HTTP 服务
type Server struct {
	echo      *echo.Echo
	addr      string
	logger    *zap.Logger
	scheduler *scheduler.DiskScheduler
}

// NewServer 创建 HTTP 服务并注册路由；diskScheduler 可为空
func NewServer(cfg *config.AppConfig, logger *zap.Logger, snapshot *handler.SnapshotHandler, dashboard *handler.DashboardHandler, diskScheduler *scheduler.DiskScheduler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Warn("请求处理失败", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Debug("请求完成", fields...)
			return nil
		},
	}))

	Routes(e, snapshot, dashboard)

	return &Server{
		echo:      e,
		addr:      cfg.Server.Addr,
		logger:    logger,
		scheduler: diskScheduler,
	}
}

// Routes 注册路由
func Routes(e *echo.Echo, snapshot *handler.SnapshotHandler, dashboard *handler.DashboardHandler) {
	e.GET("/", dashboard.Index)
	e.GET("/healthz", snapshot.Healthz)
	e.GET("/metrics", snapshot.GetMetrics)
	e.POST("/metrics/reset", snapshot.ResetRates)
	e.GET("/ws", snapshot.Stream)
}

// Handler 返回底层 http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run 启动服务，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			return err
		}
		defer s.scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP 服务启动", zap.String("addr", s.addr))
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.logger.Error("HTTP 服务启动失败", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("正在关闭 HTTP 服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("关闭 HTTP 服务失败", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP 服务已关闭")
	return nil
}
