package service

import (
	"net"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/dushixiang/statuspi/internal/config"
	"github.com/kardianos/service"
)

func TestConfigArguments(t *testing.T) {
	cfg := config.Default()

	svcCfg := Config(cfg, "/usr/local/bin/statuspi")
	if !slices.Equal(svcCfg.Arguments, []string{"serve"}) {
		t.Errorf("未指定配置文件时参数错误: %v", svcCfg.Arguments)
	}
	if svcCfg.Name != Name || svcCfg.Executable != "/usr/local/bin/statuspi" {
		t.Errorf("服务配置错误: %+v", svcCfg)
	}

	cfg.Path = "/etc/statuspi/config.yaml"
	svcCfg = Config(cfg, "/usr/local/bin/statuspi")
	want := []string{"serve", "--config", "/etc/statuspi/config.yaml"}
	if !slices.Equal(svcCfg.Arguments, want) {
		t.Errorf("参数 = %v, 期望 %v", svcCfg.Arguments, want)
	}
	if svcCfg.Option["Restart"] != "always" {
		t.Error("systemd 应配置自动重启")
	}
}

func TestStatusText(t *testing.T) {
	tests := map[service.Status]string{
		service.StatusRunning: "运行中 (Running)",
		service.StatusStopped: "已停止 (Stopped)",
		service.StatusUnknown: "未知 (Unknown)",
		service.Status(9):     "状态: 9",
	}
	for status, want := range tests {
		if got := StatusText(status); got != want {
			t.Errorf("StatusText(%d) = %q, 期望 %q", status, got, want)
		}
	}
}

// busyConfig 返回监听地址已被占用的配置
func busyConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("监听端口失败: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	cfg := config.Default()
	cfg.Server.Addr = ln.Addr().String()
	cfg.Log.Level = "error"
	return cfg
}

func TestRunInteractivePortInUse(t *testing.T) {
	cfg := busyConfig(t)

	result := make(chan error, 1)
	go func() {
		result <- runInteractive(cfg, make(chan os.Signal))
	}()

	select {
	case err := <-result:
		if err == nil {
			t.Fatal("端口被占用时应返回错误")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("端口被占用时未退出")
	}
}

func TestRunInteractiveInterrupt(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Log.Level = "error"

	interrupt := make(chan os.Signal, 1)
	result := make(chan error, 1)
	go func() {
		result <- runInteractive(cfg, interrupt)
	}()
	interrupt <- os.Interrupt

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("收到中断后应正常退出: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("收到中断后未退出")
	}
}

func TestProgramStartPortInUse(t *testing.T) {
	codes := make(chan int, 1)
	exit = func(code int) { codes <- code }
	t.Cleanup(func() { exit = os.Exit })

	p := &program{cfg: busyConfig(t)}
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start() 失败: %v", err)
	}

	select {
	case code := <-codes:
		if code != 1 {
			t.Errorf("退出码 = %d, 期望 1", code)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("监听失败时服务模式应退出进程")
	}
	_ = p.Stop(nil)
}
