package collector

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/spf13/afero"
)

const cpuFreqPath = "/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq"

// CPUStats CPU 数据源
type CPUStats interface {
	// Percent 自上次调用以来的使用率，perCPU 为 true 时按核心返回
	Percent(ctx context.Context, perCPU bool) ([]float64, error)
	Load(ctx context.Context) (*load.AvgStat, error)
	LogicalCores(ctx context.Context) (int, error)
	// Mhz 来自 cpuinfo 的频率
	Mhz(ctx context.Context) (float64, error)
}

type systemCPUStats struct{}

// NewSystemCPUStats 基于 gopsutil 的 CPU 数据源
func NewSystemCPUStats() CPUStats {
	return systemCPUStats{}
}

func (systemCPUStats) Percent(ctx context.Context, perCPU bool) ([]float64, error) {
	return cpu.PercentWithContext(ctx, 0, perCPU)
}

func (systemCPUStats) Load(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

func (systemCPUStats) LogicalCores(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

func (systemCPUStats) Mhz(ctx context.Context) (float64, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	if len(infos) == 0 {
		return 0, nil
	}
	return infos[0].Mhz, nil
}

// CPUCollector CPU 采集器
type CPUCollector struct {
	stats CPUStats
	fs    afero.Fs
}

// NewCPUCollector 创建 CPU 采集器
func NewCPUCollector(stats CPUStats, fs afero.Fs) *CPUCollector {
	return &CPUCollector{
		stats: stats,
		fs:    fs,
	}
}

// Collect 采集 CPU 使用率、负载与频率，单项失败只留空该项
func (c *CPUCollector) Collect(ctx context.Context) protocol.CPUInfo {
	var info protocol.CPUInfo

	if total, err := c.stats.Percent(ctx, false); err == nil && len(total) > 0 {
		info.UsagePercent = round(total[0], 1)
	} else if err != nil {
		slog.Debug("获取 CPU 使用率失败", "error", err)
	}

	if perCore, err := c.stats.Percent(ctx, true); err == nil {
		info.PerCore = make([]float64, len(perCore))
		for i, v := range perCore {
			info.PerCore[i] = round(v, 1)
		}
	}

	if avg, err := c.stats.Load(ctx); err == nil && avg != nil {
		info.Load1 = round(avg.Load1, 3)
		info.Load5 = round(avg.Load5, 3)
		info.Load15 = round(avg.Load15, 3)
	}

	if cores, err := c.stats.LogicalCores(ctx); err == nil {
		info.LogicalCores = cores
	}

	info.FreqGHz = c.frequency(ctx)
	return info
}

// frequency 优先读取 cpufreq 当前频率（kHz），其次 cpuinfo 中的 MHz
func (c *CPUCollector) frequency(ctx context.Context) *float64 {
	if data, err := afero.ReadFile(c.fs, cpuFreqPath); err == nil {
		if khz, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64); err == nil && khz > 0 {
			ghz := round(khz/1_000_000, 2)
			return &ghz
		}
	}

	mhz, err := c.stats.Mhz(ctx)
	if err != nil || mhz <= 0 {
		return nil
	}
	ghz := round(mhz/1000, 2)
	return &ghz
}
