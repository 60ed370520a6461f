package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

var (
	// ErrCommandTimeout 命令执行超时
	ErrCommandTimeout = errors.New("command timed out")
	// ErrToolMissing 系统中没有对应工具
	ErrToolMissing = errors.New("tool not available")
)

// Runner 外部命令执行接口，探针通过它调用系统工具
type Runner interface {
	// LookPath 查找命令是否存在
	LookPath(name string) (string, error)
	// Run 执行命令并返回合并后的 stdout/stderr 输出
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// CommandExecutor 带超时的命令执行器
type CommandExecutor struct {
	timeout time.Duration
}

// NewCommandExecutor 创建命令执行器
func NewCommandExecutor(timeout time.Duration) *CommandExecutor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &CommandExecutor{
		timeout: timeout,
	}
}

func (ce *CommandExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run 执行命令，非零退出码以 error 返回，同时保留输出
func (ce *CommandExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ce.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Debug("命令执行超时", "command", name, "args", args, "timeout", ce.timeout)
			return "", fmt.Errorf("%w (%v): %s", ErrCommandTimeout, ce.timeout, name)
		}
		slog.Debug("命令执行失败", "command", name, "args", args, "error", err)
		return out.String(), err
	}

	return out.String(), nil
}

// runIfPresent 命令不存在时直接返回 ErrToolMissing，避免无意义的 fork
func runIfPresent(ctx context.Context, r Runner, name string, args ...string) (string, error) {
	if _, err := r.LookPath(name); err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolMissing, name)
	}
	return r.Run(ctx, name, args...)
}
