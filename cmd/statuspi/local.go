package main

import (
	"io"
	"log/slog"

	"github.com/dushixiang/statuspi/internal/config"
	"github.com/dushixiang/statuspi/internal/logger"
	"github.com/dushixiang/statuspi/internal/service"
	"github.com/dushixiang/statuspi/pkg/agent"
	"github.com/dushixiang/statuspi/pkg/agent/collector"
)

// newLocalService 在进程内直接采集，不启动 HTTP 服务
//
// quiet 为 true 且未配置日志文件时丢弃日志，避免干扰终端界面。
func newLocalService(cfg *config.AppConfig, quiet bool) (*service.SnapshotService, func()) {
	var w io.Writer
	if quiet && cfg.Log.File == "" {
		w = io.Discard
		slog.SetDefault(slog.New(slog.NewTextHandler(w, nil)))
	} else {
		w = agent.InitLogger(cfg.LogOptions())
	}
	log := logger.New(w, cfg.Log.Level)

	system := collector.NewSystem(cfg.CollectorOptions(), nil)
	svc := service.NewSnapshotService(log, system.Collector, system.Estimator)
	return svc, func() {
		_ = system.Close()
		_ = log.Sync()
	}
}
