package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dushixiang/statuspi/internal/app"
	"github.com/dushixiang/statuspi/internal/config"
	"github.com/kardianos/service"
)

// 服务名称
const (
	Name        = "statuspi"
	DisplayName = "StatusPi"
	Description = "StatusPi 主机状态面板 - 采集本机运行状态并通过 HTTP 展示"
)

// program 实现 service.Interface
type program struct {
	cfg    *config.AppConfig
	cancel context.CancelFunc
	done   chan struct{}
}

// exit 服务模式下监听失败时退出进程，由服务管理器按配置重启
var exit = os.Exit

// startServer 组装并在后台运行 HTTP 服务
//
// 返回的 channel 在服务结束时写入运行错误（正常关闭为 nil）后关闭。
func startServer(ctx context.Context, cfg *config.AppConfig) (<-chan error, error) {
	srv, cleanup, err := app.InitializeServer(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化服务失败: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer cleanup()
		errCh <- srv.Run(ctx)
	}()
	return errCh, nil
}

// Start 启动服务
func (p *program) Start(s service.Service) error {
	slog.Info("StatusPi 服务启动中...")

	ctx, cancel := context.WithCancel(context.Background())
	errCh, err := startServer(ctx, p.cfg)
	if err != nil {
		cancel()
		return err
	}
	p.cancel = cancel
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		if err := <-errCh; err != nil && ctx.Err() == nil {
			slog.Error("服务运行出错，进程退出", "error", err)
			exit(1)
		}
	}()
	return nil
}

// Stop 停止服务
func (p *program) Stop(s service.Service) error {
	slog.Info("StatusPi 服务停止中...")

	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}

	slog.Info("StatusPi 服务已停止")
	return nil
}

// ServiceManager 服务管理器
type ServiceManager struct {
	cfg     *config.AppConfig
	service service.Service
}

// Config 生成系统服务配置
func Config(cfg *config.AppConfig, execPath string) *service.Config {
	args := []string{"serve"}
	if cfg.Path != "" {
		args = append(args, "--config", cfg.Path)
	}

	return &service.Config{
		Name:        Name,
		DisplayName: DisplayName,
		Description: Description,
		Arguments:   args,
		Executable:  execPath,
		Option: service.KeyValue{
			// Linux systemd 配置
			"Restart":            "always",  // 总是重启
			"RestartSec":         "10",      // 重启前等待 10 秒
			"StartLimitInterval": "0",       // 无限制重启次数
			"KillMode":           "process", // 只杀主进程

			// 其他 Unix 系统 (upstart/launchd)
			"KeepAlive": true, // 保持运行
			"RunAtLoad": true, // 启动时运行
		},
	}
}

// NewServiceManager 创建服务管理器
func NewServiceManager(cfg *config.AppConfig) (*ServiceManager, error) {
	// 获取可执行文件路径
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("获取可执行文件路径失败: %w", err)
	}

	s, err := service.New(&program{cfg: cfg}, Config(cfg, execPath))
	if err != nil {
		return nil, fmt.Errorf("创建服务失败: %w", err)
	}

	return &ServiceManager{
		cfg:     cfg,
		service: s,
	}, nil
}

// Install 安装服务
func (m *ServiceManager) Install() error {
	return m.service.Install()
}

// Uninstall 卸载服务
func (m *ServiceManager) Uninstall() error {
	// 先停止服务
	_ = m.service.Stop()

	return m.service.Uninstall()
}

// Start 启动服务
func (m *ServiceManager) Start() error {
	return m.service.Start()
}

// Stop 停止服务
func (m *ServiceManager) Stop() error {
	return m.service.Stop()
}

// Restart 重启服务
func (m *ServiceManager) Restart() error {
	return m.service.Restart()
}

// Status 查看服务状态
func (m *ServiceManager) Status() (string, error) {
	status, err := m.service.Status()
	if err != nil {
		return "", err
	}
	return StatusText(status), nil
}

// StatusText 服务状态的展示文本
func StatusText(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "运行中 (Running)"
	case service.StatusStopped:
		return "已停止 (Stopped)"
	case service.StatusUnknown:
		return "未知 (Unknown)"
	default:
		return fmt.Sprintf("状态: %d", status)
	}
}

// Run 运行服务，交互模式下前台运行直到收到中断信号
func (m *ServiceManager) Run() error {
	if !service.Interactive() {
		// 在服务管理器控制下运行
		return m.service.Run()
	}

	slog.Info("配置加载成功",
		"addr", m.cfg.Server.Addr,
		"disk_background", m.cfg.Collector.DiskBackground,
		"disk_interval", m.cfg.GetDiskInterval())

	// 监听系统信号
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	return runInteractive(m.cfg, interrupt)
}

// runInteractive 前台运行服务，收到信号后关闭；服务自身退出时返回其错误
func runInteractive(cfg *config.AppConfig, interrupt <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh, err := startServer(ctx, cfg)
	if err != nil {
		return err
	}

	select {
	case <-interrupt:
		slog.Info("收到中断信号，正在关闭...")
		cancel()
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil {
		return fmt.Errorf("服务运行失败: %w", err)
	}

	slog.Info("服务已停止")
	return nil
}
