package collector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

type fakeDiskStats struct {
	partitions []disk.PartitionStat
	usage      map[string]*disk.UsageStat
	counters   []map[string]disk.IOCountersStat
	calls      int
}

func (f *fakeDiskStats) Partitions(context.Context) ([]disk.PartitionStat, error) {
	return f.partitions, nil
}

func (f *fakeDiskStats) Usage(_ context.Context, path string) (*disk.UsageStat, error) {
	u, ok := f.usage[path]
	if !ok {
		return nil, errors.New("permission denied")
	}
	return u, nil
}

func (f *fakeDiskStats) IOCounters(context.Context) (map[string]disk.IOCountersStat, error) {
	if len(f.counters) == 0 {
		return nil, errors.New("no counters")
	}
	idx := f.calls
	if idx >= len(f.counters) {
		idx = len(f.counters) - 1
	}
	f.calls++
	return f.counters[idx], nil
}

type staticRates map[string]DeviceRate

func (s staticRates) Rates(context.Context) (map[string]DeviceRate, error) {
	return s, nil
}

func TestNormalizeDeviceName(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/dev/mmcblk0p2", "mmcblk0", true},
		{"/dev/mmcblk0", "mmcblk0", true},
		{"/dev/sda1", "sda", true},
		{"/dev/sdb", "sdb", true},
		{"/dev/nvme0n1p1", "nvme0n1", true},
		{"/dev/loop3", "loop3", true},
		{"/dev/dm-0", "dm-0", true},
		{"/dev/md127", "md127", true},
		{"sda1", "", false},
		{"/dev/", "", false},
		{"overlay", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeDeviceName(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeDeviceName(%q) = (%q, %v)，期望 (%q, %v)", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDiskCollectorFiltersAndDedup(t *testing.T) {
	stats := &fakeDiskStats{
		partitions: []disk.PartitionStat{
			{Device: "/dev/sda1", Mountpoint: "/data", Fstype: "ext4"},
			{Device: "/dev/mmcblk0p2", Mountpoint: "/", Fstype: "ext4"},
			{Device: "/dev/mmcblk0p2", Mountpoint: "/", Fstype: "ext4"},
			{Device: "/dev/mmcblk0p1", Mountpoint: "/boot/firmware", Fstype: "vfat"},
			{Device: "tmpfs", Mountpoint: "/tmp", Fstype: "tmpfs"},
			{Device: "overlay", Mountpoint: "/var/lib/docker/overlay2/x/merged", Fstype: "overlay"},
			{Device: "/dev/loop0", Mountpoint: "/snap/core/1", Fstype: "squashfs"},
			{Device: "/dev/sdb1", Mountpoint: "/secret", Fstype: "ext4"},
		},
		usage: map[string]*disk.UsageStat{
			"/":     {Total: 100, Used: 40, Free: 60, UsedPercent: 40.04},
			"/data": {Total: 200, Used: 50, Free: 150, UsedPercent: 25},
		},
	}
	rates := staticRates{
		"mmcblk0": {ReadBps: 1024, WriteBps: 2048},
	}

	c := NewDiskCollector(stats, rates, DiskOptions{})
	disks, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() 失败: %v", err)
	}

	if len(disks) != 2 {
		t.Fatalf("应保留 2 个挂载点，实际 %d 个: %+v", len(disks), disks)
	}
	if disks[0].Mount != "/" || disks[1].Mount != "/data" {
		t.Errorf("根目录应排在最前，实际顺序: %s, %s", disks[0].Mount, disks[1].Mount)
	}
	if disks[0].Percent != 40.0 {
		t.Errorf("使用率应保留一位小数，实际 %v", disks[0].Percent)
	}
	if disks[0].ReadRate == nil || *disks[0].ReadRate != 1024 {
		t.Errorf("根分区读速率应为 1024，实际 %v", disks[0].ReadRate)
	}
	if disks[1].ReadRate != nil || disks[1].WriteRate != nil {
		t.Errorf("无法映射的设备速率应为空")
	}
}

func TestDiskCollectorRatesUnavailable(t *testing.T) {
	stats := &fakeDiskStats{
		partitions: []disk.PartitionStat{
			{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"},
		},
		usage: map[string]*disk.UsageStat{
			"/": {Total: 100, Used: 10, Free: 90, UsedPercent: 10},
		},
	}

	c := NewDiskCollector(stats, NewBackgroundSampler(stats), DiskOptions{})
	disks, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("速率不可用时不应返回错误: %v", err)
	}
	if len(disks) != 1 || disks[0].ReadRate != nil {
		t.Errorf("速率不可用时应返回空速率，实际 %+v", disks)
	}
}

func TestWindowSamplerRates(t *testing.T) {
	stats := &fakeDiskStats{
		counters: []map[string]disk.IOCountersStat{
			{"sda": {ReadBytes: 0, WriteBytes: 4096}},
			{"sda": {ReadBytes: 1_048_576, WriteBytes: 0}},
		},
	}

	clock := time.Unix(1_700_000_000, 0)
	s := NewWindowSampler(stats, 100*time.Millisecond)
	if s.window != MinDiskSampleWindow {
		t.Errorf("窗口应被限制为至少 1 秒，实际 %v", s.window)
	}
	s.now = func() time.Time { return clock }
	s.sleep = func(_ context.Context, d time.Duration) error {
		clock = clock.Add(2 * time.Second)
		return nil
	}

	rates, err := s.Rates(context.Background())
	if err != nil {
		t.Fatalf("Rates() 失败: %v", err)
	}
	got := rates["sda"]
	if math.Abs(got.ReadBps-524288) > 1e-6 {
		t.Errorf("读速率应为 524288，实际 %v", got.ReadBps)
	}
	if got.WriteBps != 0 {
		t.Errorf("计数器回退时写速率应为 0，实际 %v", got.WriteBps)
	}
}

func TestWindowSamplerCancelled(t *testing.T) {
	stats := &fakeDiskStats{
		counters: []map[string]disk.IOCountersStat{{"sda": {}}},
	}
	s := NewWindowSampler(stats, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Rates(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("上下文取消时应返回 context.Canceled，实际 %v", err)
	}
}

func TestBackgroundSampler(t *testing.T) {
	stats := &fakeDiskStats{
		counters: []map[string]disk.IOCountersStat{
			{"sda": {ReadBytes: 0}},
			{"sda": {ReadBytes: 500}},
			{"sda": {ReadBytes: 3000}},
		},
	}

	clock := time.Unix(1_700_000_000, 0)
	s := NewBackgroundSampler(stats)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick() 失败: %v", err)
	}
	if _, err := s.Rates(ctx); !errors.Is(err, ErrRatesNotReady) {
		t.Errorf("只有一个样本时应返回 ErrRatesNotReady，实际 %v", err)
	}

	// 间隔不足 1 秒的样本被忽略
	clock = clock.Add(500 * time.Millisecond)
	_ = s.Tick(ctx)
	if _, err := s.Rates(ctx); !errors.Is(err, ErrRatesNotReady) {
		t.Errorf("间隔不足 1 秒时不应产生速率，实际 %v", err)
	}

	clock = clock.Add(1500 * time.Millisecond)
	_ = s.Tick(ctx)
	rates, err := s.Rates(ctx)
	if err != nil {
		t.Fatalf("Rates() 失败: %v", err)
	}
	if math.Abs(rates["sda"].ReadBps-1500) > 1e-6 {
		t.Errorf("读速率应为 1500，实际 %v", rates["sda"].ReadBps)
	}
}
