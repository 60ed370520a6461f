package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dushixiang/statuspi/internal/metric"
	"github.com/dushixiang/statuspi/internal/protocol"
)

type fakeSource struct {
	err    error
	resets int
}

func (f *fakeSource) Summary(_ context.Context, topN int) (*protocol.Snapshot, *metric.Summary, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	snap := &protocol.Snapshot{
		Host:  protocol.HostIdentity{Model: "Raspberry Pi 5 (8GB RAM)", Hostname: "pi"},
		Power: protocol.PowerInfo{Status: protocol.PowerStatus{Level: protocol.PowerLevelWarn, Message: "Throttled"}},
		Disks: []protocol.DiskEntry{{Mount: "/", Percent: 40}},
		Processes: []protocol.ProcessEntry{
			{PID: 42, Name: "statuspi", CPUPercent: 3.5},
		},
	}
	return snap, metric.Summarize(snap, topN), nil
}

func (f *fakeSource) ResetRates() { f.resets++ }

func TestModelFetchAndRender(t *testing.T) {
	src := &fakeSource{}
	m := New(src, 0, time.Second, 5)

	if m.interval != time.Second {
		t.Errorf("刷新间隔应不低于最小值，实际 %v", m.interval)
	}
	if !strings.Contains(m.View(), "collecting") {
		t.Error("首次采集前应显示等待提示")
	}

	msg := m.Init()()
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("收到快照后应安排下一次刷新")
	}

	view := m.View()
	for _, want := range []string{"Raspberry Pi 5 (8GB RAM)", "Throttled", "statuspi", "refresh 1s"} {
		if !strings.Contains(view, want) {
			t.Errorf("界面缺少 %q", want)
		}
	}
}

func TestModelKeys(t *testing.T) {
	src := &fakeSource{}
	m := New(src, 3*time.Second, time.Second, 5)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if src.resets != 1 {
		t.Errorf("r 应重置网速状态，实际 %d", src.resets)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	if m.interval != 4*time.Second {
		t.Errorf("+ 应增加刷新间隔，实际 %v", m.interval)
	}
	for range 5 {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	}
	if m.interval != time.Second {
		t.Errorf("- 不应低于最小值，实际 %v", m.interval)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q 应退出")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q 应返回退出消息")
	}
	if m.ctx.Err() == nil {
		t.Error("退出时应取消采集")
	}
}

func TestModelKeepsLastSnapshotOnError(t *testing.T) {
	src := &fakeSource{}
	m := New(src, time.Second, time.Second, 5)
	m.Update(m.Init()())

	src.err = errors.New("host model unavailable")
	m.Update(m.fetch()())

	view := m.View()
	if !strings.Contains(view, "Raspberry Pi 5") || !strings.Contains(view, "host model unavailable") {
		t.Errorf("出错时应保留上一次快照并显示错误:\n%s", view)
	}
}

func TestGaugeBar(t *testing.T) {
	if got := gaugeBar(150, 4); !strings.Contains(got, "████") || !strings.Contains(got, "100.0%") {
		t.Errorf("超过 100%% 应截断: %q", got)
	}
	if got := gaugeBar(-5, 4); !strings.Contains(got, "░░░░") {
		t.Errorf("负值应按 0 处理: %q", got)
	}
}
