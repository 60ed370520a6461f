package collector

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/shirou/gopsutil/v4/disk"
)

var (
	// DefaultSkipFilesystems 虚拟/伪文件系统
	DefaultSkipFilesystems = []string{"tmpfs", "devtmpfs", "squashfs", "overlay"}
	// DefaultSkipMountPrefixes 虚拟挂载点前缀
	DefaultSkipMountPrefixes = []string{"/snap", "/proc", "/sys", "/run", "/dev", "/boot"}

	// 以数字结尾但本身就是整盘的设备
	wholeDevicePrefixes = []string{"loop", "dm-", "md", "zram", "nbd", "sr"}
	// 分区以 pN 作为后缀的设备
	partitionSuffixPrefixes = []string{"mmcblk", "nvme"}
)

// DiskStats 磁盘数据源
type DiskStats interface {
	Partitions(ctx context.Context) ([]disk.PartitionStat, error)
	Usage(ctx context.Context, path string) (*disk.UsageStat, error)
	IOCounters(ctx context.Context) (map[string]disk.IOCountersStat, error)
}

type systemDiskStats struct{}

// NewSystemDiskStats 基于 gopsutil 的磁盘数据源
func NewSystemDiskStats() DiskStats {
	return systemDiskStats{}
}

func (systemDiskStats) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

func (systemDiskStats) Usage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

func (systemDiskStats) IOCounters(ctx context.Context) (map[string]disk.IOCountersStat, error) {
	return disk.IOCountersWithContext(ctx)
}

// DiskOptions 磁盘采集选项
type DiskOptions struct {
	SkipFilesystems   []string
	SkipMountPrefixes []string
}

// DiskCollector 挂载点使用情况与读写速率采集器
type DiskCollector struct {
	stats        DiskStats
	rates        IORateProvider
	skipFS       map[string]struct{}
	skipPrefixes []string
}

// NewDiskCollector 创建磁盘采集器
func NewDiskCollector(stats DiskStats, rates IORateProvider, opts DiskOptions) *DiskCollector {
	skipFS := opts.SkipFilesystems
	if skipFS == nil {
		skipFS = DefaultSkipFilesystems
	}
	prefixes := opts.SkipMountPrefixes
	if prefixes == nil {
		prefixes = DefaultSkipMountPrefixes
	}

	c := &DiskCollector{
		stats:        stats,
		rates:        rates,
		skipFS:       make(map[string]struct{}, len(skipFS)),
		skipPrefixes: prefixes,
	}
	for _, fs := range skipFS {
		c.skipFS[fs] = struct{}{}
	}
	return c
}

type mountKey struct {
	device string
	mount  string
}

// Collect 采集所有真实挂载点，根目录排在最前，其余按挂载路径排序
func (c *DiskCollector) Collect(ctx context.Context) ([]protocol.DiskEntry, error) {
	rates, err := c.rates.Rates(ctx)
	if err != nil {
		slog.Debug("磁盘速率不可用", "error", err)
		rates = nil
	}

	partitions, err := c.stats.Partitions(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[mountKey]struct{}, len(partitions))
	disks := make([]protocol.DiskEntry, 0, len(partitions))

	for _, part := range partitions {
		if c.skipped(part) {
			continue
		}
		key := mountKey{device: part.Device, mount: part.Mountpoint}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		usage, err := c.stats.Usage(ctx, part.Mountpoint)
		if err != nil {
			// 单个挂载点无权限时跳过，继续枚举
			slog.Debug("读取挂载点使用情况失败", "mount", part.Mountpoint, "error", err)
			continue
		}

		entry := protocol.DiskEntry{
			Device:  part.Device,
			Mount:   part.Mountpoint,
			FSType:  part.Fstype,
			Total:   usage.Total,
			Used:    usage.Used,
			Free:    usage.Free,
			Percent: round(usage.UsedPercent, 1),
		}
		if name, ok := NormalizeDeviceName(part.Device); ok {
			if rate, ok := rates[name]; ok {
				entry.ReadRate = float64Ptr(rate.ReadBps)
				entry.WriteRate = float64Ptr(rate.WriteBps)
			}
		}
		disks = append(disks, entry)
	}

	sortDisks(disks)
	return disks, nil
}

func (c *DiskCollector) skipped(part disk.PartitionStat) bool {
	if _, ok := c.skipFS[part.Fstype]; ok {
		return true
	}
	for _, prefix := range c.skipPrefixes {
		if strings.HasPrefix(part.Mountpoint, prefix) {
			return true
		}
	}
	return false
}

func sortDisks(disks []protocol.DiskEntry) {
	sort.SliceStable(disks, func(i, j int) bool {
		ri, rj := disks[i].Mount == "/", disks[j].Mount == "/"
		if ri != rj {
			return ri
		}
		return disks[i].Mount < disks[j].Mount
	})
}

// NormalizeDeviceName 将分区路径映射为 I/O 计数器使用的物理设备名
//
//	/dev/sda1      -> sda
//	/dev/mmcblk0p2 -> mmcblk0
//	/dev/nvme0n1p1 -> nvme0n1
func NormalizeDeviceName(devicePath string) (string, bool) {
	name, ok := strings.CutPrefix(devicePath, "/dev/")
	if !ok || name == "" {
		return "", false
	}

	for _, prefix := range partitionSuffixPrefixes {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		idx := strings.LastIndex(name, "p")
		if idx > len(prefix) && isDigits(name[idx+1:]) {
			name = name[:idx]
		}
		return name, true
	}

	for _, prefix := range wholeDevicePrefixes {
		if strings.HasPrefix(name, prefix) {
			return name, true
		}
	}

	name = strings.TrimRight(name, "0123456789")
	if name == "" {
		return "", false
	}
	return name, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func float64Ptr(v float64) *float64 {
	return &v
}
