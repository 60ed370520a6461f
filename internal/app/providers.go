package app

import (
	"os"

	"github.com/dushixiang/statuspi/internal/config"
	"github.com/dushixiang/statuspi/internal/handler"
	"github.com/dushixiang/statuspi/internal/logger"
	"github.com/dushixiang/statuspi/internal/scheduler"
	"github.com/dushixiang/statuspi/internal/service"
	"github.com/dushixiang/statuspi/pkg/agent"
	"github.com/dushixiang/statuspi/pkg/agent/collector"
	"github.com/google/wire"
	"go.uber.org/zap"
)

// ProviderSet 服务端依赖集合
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBackgroundSampler,
	ProvideSystem,
	ProvideDiskScheduler,
	ProvideSnapshotService,
	ProvideRefreshOptions,
	ProvideSnapshotHandler,
	ProvideDashboardHandler,
)

// ProvideLogger 初始化 slog 和 zap，两者写入同一个输出
func ProvideLogger(cfg *config.AppConfig) *zap.Logger {
	w := agent.InitLogger(cfg.LogOptions())
	return logger.New(w, cfg.Log.Level)
}

// ProvideBackgroundSampler 未开启后台采样时返回 nil
func ProvideBackgroundSampler(cfg *config.AppConfig) *collector.BackgroundSampler {
	if !cfg.Collector.DiskBackground {
		return nil
	}
	return collector.NewBackgroundSampler(collector.NewSystemDiskStats())
}

// ProvideSystem 组装本机采集器
func ProvideSystem(cfg *config.AppConfig, sampler *collector.BackgroundSampler, logger *zap.Logger) (*collector.System, func()) {
	var rates collector.IORateProvider
	if sampler != nil {
		rates = sampler
	}
	system := collector.NewSystem(cfg.CollectorOptions(), rates)
	cleanup := func() {
		if err := system.Close(); err != nil {
			logger.Warn("关闭采集器失败", zap.Error(err))
		}
	}
	return system, cleanup
}

// ProvideDiskScheduler 未开启后台采样时返回 nil
func ProvideDiskScheduler(cfg *config.AppConfig, sampler *collector.BackgroundSampler, logger *zap.Logger) *scheduler.DiskScheduler {
	if sampler == nil {
		return nil
	}
	return scheduler.NewDiskScheduler(sampler, cfg.GetDiskInterval(), logger)
}

func ProvideSnapshotService(logger *zap.Logger, system *collector.System) *service.SnapshotService {
	return service.NewSnapshotService(logger, system.Collector, system.Estimator)
}

func ProvideRefreshOptions(cfg *config.AppConfig) handler.RefreshOptions {
	return handler.RefreshOptions{
		Default: cfg.Dashboard.DefaultRefresh,
		Min:     cfg.Dashboard.MinRefresh,
	}
}

func ProvideSnapshotHandler(cfg *config.AppConfig, logger *zap.Logger, svc *service.SnapshotService, refresh handler.RefreshOptions) *handler.SnapshotHandler {
	return handler.NewSnapshotHandler(logger, svc, refresh, cfg.Dashboard.TopProcesses)
}

// ProvideDashboardHandler 页面标题使用主机名
func ProvideDashboardHandler(cfg *config.AppConfig, refresh handler.RefreshOptions) *handler.DashboardHandler {
	title := "statuspi"
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		title = hostname + " · statuspi"
	}
	return handler.NewDashboardHandler(title, refresh, cfg.Dashboard.TopProcesses)
}
