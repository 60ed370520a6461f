package collector

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessCollector 进程资源占用采集器
//
// 进程对象按 PID 缓存，CPU 使用率为两次采集之间的占用；首次出现的进程为 0。
type ProcessCollector struct {
	mu    sync.Mutex
	cache map[int32]*process.Process
	limit int
}

// NewProcessCollector limit 为 0 时返回全部进程
func NewProcessCollector(limit int) *ProcessCollector {
	if limit < 0 {
		limit = 0
	}
	return &ProcessCollector{
		cache: make(map[int32]*process.Process),
		limit: limit,
	}
}

// Collect 采集并排序，消失或无权限的进程直接跳过
func (c *ProcessCollector) Collect(ctx context.Context) ([]protocol.ProcessEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	alive := make(map[int32]*process.Process, len(procs))
	entries := make([]protocol.ProcessEntry, 0, len(procs))
	for _, p := range procs {
		if cached, ok := c.cache[p.Pid]; ok {
			p = cached
		}

		entry, ok := readProcess(ctx, p)
		if !ok {
			continue
		}
		alive[p.Pid] = p
		entries = append(entries, entry)
	}
	c.cache = alive

	return RankProcesses(entries, c.limit), nil
}

func readProcess(ctx context.Context, p *process.Process) (protocol.ProcessEntry, bool) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return protocol.ProcessEntry{}, false
	}
	cpuPct, err := p.PercentWithContext(ctx, 0)
	if err != nil {
		return protocol.ProcessEntry{}, false
	}
	memPct, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		return protocol.ProcessEntry{}, false
	}

	entry := protocol.ProcessEntry{
		PID:        p.Pid,
		Name:       name,
		CPUPercent: round(cpuPct, 1),
		MemPercent: round(float64(memPct), 2),
	}

	// 读取其他用户进程的 I/O 计数通常需要 root，失败时记为 0
	if io, err := p.IOCountersWithContext(ctx); err == nil && io != nil {
		entry.ReadBytes = io.ReadBytes
		entry.WriteBytes = io.WriteBytes
	} else if err != nil {
		slog.Debug("读取进程 I/O 失败", "pid", p.Pid, "error", err)
	}
	return entry, true
}

// RankProcesses 按 (cpu, mem, read, write) 降序排序，limit > 0 时截断
func RankProcesses(entries []protocol.ProcessEntry, limit int) []protocol.ProcessEntry {
	slices.SortStableFunc(entries, func(a, b protocol.ProcessEntry) int {
		return cmp.Or(
			cmp.Compare(b.CPUPercent, a.CPUPercent),
			cmp.Compare(b.MemPercent, a.MemPercent),
			cmp.Compare(b.ReadBytes, a.ReadBytes),
			cmp.Compare(b.WriteBytes, a.WriteBytes),
		)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
