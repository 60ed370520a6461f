package collector

import (
	"context"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/shirou/gopsutil/v4/mem"
)

// MemoryStats 内存数据源
type MemoryStats interface {
	Virtual(ctx context.Context) (*mem.VirtualMemoryStat, error)
	Swap(ctx context.Context) (*mem.SwapMemoryStat, error)
}

type systemMemoryStats struct{}

// NewSystemMemoryStats 基于 gopsutil 的内存数据源
func NewSystemMemoryStats() MemoryStats {
	return systemMemoryStats{}
}

func (systemMemoryStats) Virtual(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (systemMemoryStats) Swap(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

// MemoryCollector 内存采集器
type MemoryCollector struct {
	stats MemoryStats
}

func NewMemoryCollector(stats MemoryStats) *MemoryCollector {
	return &MemoryCollector{stats: stats}
}

// Collect 物理内存读取失败时返回错误，交换分区失败只留空
func (c *MemoryCollector) Collect(ctx context.Context) (protocol.MemoryInfo, error) {
	vm, err := c.stats.Virtual(ctx)
	if err != nil {
		return protocol.MemoryInfo{}, err
	}

	info := protocol.MemoryInfo{
		Total:     vm.Total,
		Used:      vm.Used,
		Available: vm.Available,
		Percent:   round(vm.UsedPercent, 1),
	}

	if sm, err := c.stats.Swap(ctx); err == nil && sm != nil {
		info.Swap = protocol.SwapInfo{
			Total:   sm.Total,
			Used:    sm.Used,
			Percent: round(sm.UsedPercent, 1),
		}
	}
	return info, nil
}
