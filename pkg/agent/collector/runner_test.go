package collector

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

type fakeResult struct {
	out string
	err error
}

// fakeRunner 按 "命令 参数..." 返回预置输出
type fakeRunner struct {
	results map[string]fakeResult
	missing map[string]bool
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string]fakeResult),
		missing: make(map[string]bool),
	}
}

func (f *fakeRunner) on(cmd, out string, err error) *fakeRunner {
	f.results[cmd] = fakeResult{out: out, err: err}
	return f
}

func (f *fakeRunner) without(names ...string) *fakeRunner {
	for _, name := range names {
		f.missing[name] = true
	}
	return f
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", exec.ErrNotFound
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	cmd := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, cmd)
	if r, ok := f.results[cmd]; ok {
		return r.out, r.err
	}
	return "", errors.New("exit status 1")
}

func TestRunIfPresentMissingTool(t *testing.T) {
	r := newFakeRunner().without("vcgencmd")

	_, err := runIfPresent(context.Background(), r, "vcgencmd", "measure_temp")
	if !errors.Is(err, ErrToolMissing) {
		t.Fatalf("工具不存在时应返回 ErrToolMissing，实际: %v", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("工具不存在时不应执行命令，实际执行: %v", r.calls)
	}
}

func TestCommandExecutorTimeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("系统中没有 sleep 命令")
	}

	ce := NewCommandExecutor(50 * time.Millisecond)
	_, err := ce.Run(context.Background(), "sleep", "2")
	if !errors.Is(err, ErrCommandTimeout) {
		t.Fatalf("应返回 ErrCommandTimeout，实际: %v", err)
	}
}

func TestCommandExecutorOutput(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("系统中没有 echo 命令")
	}

	ce := NewCommandExecutor(time.Second)
	out, err := ce.Run(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("执行命令失败: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("输出应为 hello，实际: %q", out)
	}
}
