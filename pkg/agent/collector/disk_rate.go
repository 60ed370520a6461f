package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

// MinDiskSampleWindow 计算磁盘速率所需的最小采样窗口
const MinDiskSampleWindow = time.Second

// ErrRatesNotReady 后台采样尚未积累两次有效样本
var ErrRatesNotReady = errors.New("disk rates not ready")

// DeviceRate 单个设备的读写速率（字节/秒）
type DeviceRate struct {
	ReadBps  float64
	WriteBps float64
}

// IORateProvider 按设备名提供磁盘读写速率
type IORateProvider interface {
	Rates(ctx context.Context) (map[string]DeviceRate, error)
}

// WindowSampler 在调用时阻塞一个采样窗口，用两次计数器差值计算速率
type WindowSampler struct {
	stats  DiskStats
	window time.Duration
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewWindowSampler 创建窗口采样器，窗口小于 1 秒时按 1 秒处理
func NewWindowSampler(stats DiskStats, window time.Duration) *WindowSampler {
	if window < MinDiskSampleWindow {
		window = MinDiskSampleWindow
	}
	return &WindowSampler{
		stats:  stats,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

func (s *WindowSampler) Rates(ctx context.Context) (map[string]DeviceRate, error) {
	before, err := s.stats.IOCounters(ctx)
	if err != nil {
		return nil, err
	}
	t1 := s.now()

	if err := s.sleep(ctx, s.window); err != nil {
		return nil, err
	}

	after, err := s.stats.IOCounters(ctx)
	if err != nil {
		return nil, err
	}
	t2 := s.now()

	return computeDeviceRates(before, after, t2.Sub(t1)), nil
}

// BackgroundSampler 由定时任务驱动的采样器，请求时直接返回最近一次结果
type BackgroundSampler struct {
	stats DiskStats
	now   func() time.Time

	mu       sync.RWMutex
	prev     map[string]disk.IOCountersStat
	prevTime time.Time
	latest   map[string]DeviceRate
}

// NewBackgroundSampler 创建后台采样器
func NewBackgroundSampler(stats DiskStats) *BackgroundSampler {
	return &BackgroundSampler{
		stats: stats,
		now:   time.Now,
	}
}

// Tick 读取一次计数器，与上一次样本间隔不足 1 秒时忽略本次样本
func (s *BackgroundSampler) Tick(ctx context.Context) error {
	counters, err := s.stats.IOCounters(ctx)
	if err != nil {
		return err
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prev != nil {
		elapsed := now.Sub(s.prevTime)
		if elapsed < MinDiskSampleWindow {
			return nil
		}
		s.latest = computeDeviceRates(s.prev, counters, elapsed)
	}
	s.prev = counters
	s.prevTime = now
	return nil
}

func (s *BackgroundSampler) Rates(ctx context.Context) (map[string]DeviceRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, ErrRatesNotReady
	}
	rates := make(map[string]DeviceRate, len(s.latest))
	for name, rate := range s.latest {
		rates[name] = rate
	}
	return rates, nil
}

func computeDeviceRates(before, after map[string]disk.IOCountersStat, elapsed time.Duration) map[string]DeviceRate {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return nil
	}

	rates := make(map[string]DeviceRate, len(after))
	for name, cur := range after {
		prev, ok := before[name]
		if !ok {
			continue
		}
		rates[name] = DeviceRate{
			ReadBps:  float64(counterDelta(cur.ReadBytes, prev.ReadBytes)) / seconds,
			WriteBps: float64(counterDelta(cur.WriteBytes, prev.WriteBytes)) / seconds,
		}
	}
	return rates
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
