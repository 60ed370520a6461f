package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

const DefaultPingTimeout = 2 * time.Second

// ErrNoReply 探测已执行但没有收到回复，调用方不应继续尝试其他方式
var ErrNoReply = errors.New("no echo reply")

var pingTimeRe = regexp.MustCompile(`time[=<]([\d.]+)\s*ms`)

// Pinger 单次 ICMP 回显探测
type Pinger interface {
	Name() string
	Ping(ctx context.Context, host string, timeout time.Duration) (time.Duration, error)
}

// PingProber 按优先级尝试各 Pinger，结果为毫秒延迟或空
type PingProber struct {
	pingers []Pinger
	timeout time.Duration
}

// NewPingProber 默认链路：pro-bing（非特权 -> 特权）-> 系统 ping 命令
func NewPingProber(runner Runner, timeout time.Duration) *PingProber {
	return NewPingProberWithPingers(timeout, &icmpPinger{}, &commandPinger{runner: runner})
}

// NewPingProberWithPingers 使用自定义探测链创建 PingProber
func NewPingProberWithPingers(timeout time.Duration, pingers ...Pinger) *PingProber {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	return &PingProber{
		pingers: pingers,
		timeout: timeout,
	}
}

// Ping 返回往返时延（毫秒），不可达或无法探测时返回 nil
func (p *PingProber) Ping(ctx context.Context, host string) *float64 {
	if host == "" {
		return nil
	}

	for _, pinger := range p.pingers {
		rtt, err := pinger.Ping(ctx, host, p.timeout)
		if err == nil {
			ms := float64(rtt.Microseconds()) / 1000
			return &ms
		}
		if errors.Is(err, ErrNoReply) {
			slog.Debug("目标无响应", "host", host, "pinger", pinger.Name())
			return nil
		}
		slog.Debug("ping 方式不可用，尝试下一种", "host", host, "pinger", pinger.Name(), "error", err)
	}
	return nil
}

// icmpPinger 基于 pro-bing 的原生 ICMP 探测
type icmpPinger struct{}

func (p *icmpPinger) Name() string { return "pro-bing" }

func (p *icmpPinger) Ping(ctx context.Context, host string, timeout time.Duration) (time.Duration, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return 0, fmt.Errorf("create pinger failed: %w", err)
	}

	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.Interval = 100 * time.Millisecond

	// 先尝试非特权模式（UDP），失败再尝试特权模式（需要 root 或 CAP_NET_RAW）
	pinger.SetPrivileged(false)
	if err := pinger.RunWithContext(ctx); err != nil {
		pinger.SetPrivileged(true)
		if err := pinger.RunWithContext(ctx); err != nil {
			return 0, fmt.Errorf("ping failed: %w", err)
		}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, ErrNoReply
	}
	return stats.AvgRtt, nil
}

// commandPinger 调用系统 ping 命令并解析 time=xx ms
type commandPinger struct {
	runner Runner
}

func (p *commandPinger) Name() string { return "ping" }

func (p *commandPinger) Ping(ctx context.Context, host string, timeout time.Duration) (time.Duration, error) {
	if _, err := p.runner.LookPath("ping"); err != nil {
		return 0, fmt.Errorf("%w: ping", ErrToolMissing)
	}

	seconds := int(math.Ceil(timeout.Seconds()))
	out, err := p.runner.Run(ctx, "ping", "-c", "1", "-w", strconv.Itoa(seconds), host)
	if err != nil {
		// 非零退出码：目标不可达
		return 0, fmt.Errorf("%w: %v", ErrNoReply, err)
	}

	ms, ok := parsePingOutput(out)
	if !ok {
		return 0, ErrNoReply
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

func parsePingOutput(out string) (float64, bool) {
	m := pingTimeRe.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	ms, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}
