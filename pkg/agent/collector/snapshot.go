package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/dushixiang/statuspi/internal/protocol"
	goerrors "github.com/go-errors/errors"
	"github.com/sourcegraph/conc/panics"
	"github.com/spf13/afero"
)

// DefaultPingHost 公网延迟探测目标
const DefaultPingHost = "8.8.8.8"

// 快照各步骤依赖的探针
type (
	MemoryProbe interface {
		Collect(ctx context.Context) (protocol.MemoryInfo, error)
	}
	HostProbe interface {
		Identity(ctx context.Context, memTotal uint64) (protocol.HostIdentity, error)
		Uptime(ctx context.Context) (protocol.UptimeInfo, error)
	}
	CPUProbe interface {
		Collect(ctx context.Context) protocol.CPUInfo
	}
	BoardProbe interface {
		Temperature(ctx context.Context) *float64
		Power(ctx context.Context) protocol.PowerInfo
	}
	DiskProbe interface {
		Collect(ctx context.Context) ([]protocol.DiskEntry, error)
	}
	ProcessProbe interface {
		Collect(ctx context.Context) ([]protocol.ProcessEntry, error)
	}
	NetworkProbe interface {
		Totals(ctx context.Context) (*protocol.NetworkTotals, error)
		LanIP(ctx context.Context) *string
		RouterIP(ctx context.Context) *string
		ActiveConnection(ctx context.Context) protocol.Connection
	}
	PublicIPProbe interface {
		Collect(ctx context.Context) *protocol.ExternalIP
	}
	LatencyProbe interface {
		Ping(ctx context.Context, host string) *float64
	}
	WifiProbe interface {
		Collect(ctx context.Context, activeIface string) *protocol.WifiInfo
	}
)

// Dependencies 快照采集器的全部探针
type Dependencies struct {
	Memory   MemoryProbe
	Host     HostProbe
	CPU      CPUProbe
	Board    BoardProbe
	Disk     DiskProbe
	Process  ProcessProbe
	Network  NetworkProbe
	PublicIP PublicIPProbe
	Latency  LatencyProbe
	Wifi     WifiProbe
}

// SnapshotCollector 主机健康快照的唯一入口
type SnapshotCollector struct {
	deps     Dependencies
	pingHost string
	now      func() time.Time
}

// NewSnapshotCollector 使用给定探针创建快照采集器
func NewSnapshotCollector(deps Dependencies, pingHost string) *SnapshotCollector {
	if pingHost == "" {
		pingHost = DefaultPingHost
	}
	return &SnapshotCollector{
		deps:     deps,
		pingHost: pingHost,
		now:      time.Now,
	}
}

// Options 系统快照采集器配置
type Options struct {
	RateAlpha         float64
	CommandTimeout    time.Duration
	DiskWindow        time.Duration
	SkipFilesystems   []string
	SkipMountPrefixes []string
	ProcessLimit      int
	ModelPath         string
	WifiInterface     string
	PingHost          string
	PingTimeout       time.Duration
	PublicIP          protocol.PublicIPConfigData
}

// System 基于本机数据源的探针集合
type System struct {
	Collector *SnapshotCollector
	Estimator *RateEstimator
	DiskStats DiskStats
	PublicIP  *PublicIPCollector
}

// NewSystem 组装本机采集器；rates 为空时每次快照按窗口采样磁盘速率
func NewSystem(opts Options, rates IORateProvider) *System {
	fs := afero.NewOsFs()
	runner := NewCommandExecutor(opts.CommandTimeout)
	diskStats := NewSystemDiskStats()
	if rates == nil {
		rates = NewWindowSampler(diskStats, opts.DiskWindow)
	}
	estimator := NewRateEstimator(opts.RateAlpha)
	publicIP := NewPublicIPCollector(opts.PublicIP)

	deps := Dependencies{
		Memory: NewMemoryCollector(NewSystemMemoryStats()),
		Host:   NewHostCollector(NewSystemHostStats(), fs, opts.ModelPath),
		CPU:    NewCPUCollector(NewSystemCPUStats(), fs),
		Board:  NewBoardCollector(runner, fs),
		Disk: NewDiskCollector(diskStats, rates, DiskOptions{
			SkipFilesystems:   opts.SkipFilesystems,
			SkipMountPrefixes: opts.SkipMountPrefixes,
		}),
		Process:  NewProcessCollector(opts.ProcessLimit),
		Network:  NewNetworkCollector(NewSystemNetStats(), estimator, runner, fs),
		PublicIP: publicIP,
		Latency:  NewPingProber(runner, opts.PingTimeout),
		Wifi:     NewWifiCollector(runner, opts.WifiInterface),
	}

	return &System{
		Collector: NewSnapshotCollector(deps, opts.PingHost),
		Estimator: estimator,
		DiskStats: diskStats,
		PublicIP:  publicIP,
	}
}

// Collect 按固定顺序采集一次快照
//
// 除型号文件不可读外不会返回错误：单项探测失败或 panic 时该字段留空。
func (s *SnapshotCollector) Collect(ctx context.Context) (*protocol.Snapshot, error) {
	snap := &protocol.Snapshot{
		Timestamp: s.now(),
		Power:     protocol.PowerInfo{Status: PowerStatusFromFlags(nil)},
		Disks:     []protocol.DiskEntry{},
		Processes: []protocol.ProcessEntry{},
		Connection: protocol.Connection{
			Type: protocol.ConnectionNone,
		},
	}

	step("memory", func() {
		memory, err := s.deps.Memory.Collect(ctx)
		if err != nil {
			slog.Warn("采集内存信息失败", "error", err)
			return
		}
		snap.Memory = memory
	})

	var identityErr error
	step("identity", func() {
		snap.Host, identityErr = s.deps.Host.Identity(ctx, snap.Memory.Total)
	})
	if identityErr != nil {
		return nil, goerrors.WrapPrefix(identityErr, "collect snapshot", 0)
	}

	step("cpu", func() {
		snap.CPU = s.deps.CPU.Collect(ctx)
	})
	step("temperature", func() {
		snap.TempC = s.deps.Board.Temperature(ctx)
	})
	step("disks", func() {
		disks, err := s.deps.Disk.Collect(ctx)
		if err != nil {
			slog.Warn("采集磁盘信息失败", "error", err)
			return
		}
		snap.Disks = disks
	})
	step("power", func() {
		snap.Power = s.deps.Board.Power(ctx)
	})
	step("uptime", func() {
		uptime, err := s.deps.Host.Uptime(ctx)
		if err != nil {
			slog.Warn("获取开机时长失败", "error", err)
			return
		}
		snap.Uptime = uptime
	})
	step("processes", func() {
		procs, err := s.deps.Process.Collect(ctx)
		if err != nil {
			slog.Warn("采集进程信息失败", "error", err)
			return
		}
		snap.Processes = procs
	})
	step("network", func() {
		totals, err := s.deps.Network.Totals(ctx)
		if err != nil {
			slog.Warn("采集网络流量失败", "error", err)
			return
		}
		snap.Network = *totals
	})
	step("lan-ip", func() {
		snap.LanIP = s.deps.Network.LanIP(ctx)
	})
	step("external-ip", func() {
		snap.ExternalIP = s.deps.PublicIP.Collect(ctx)
	})
	step("router-ip", func() {
		snap.RouterIP = s.deps.Network.RouterIP(ctx)
	})
	step("ping-internet", func() {
		snap.InternetMs = s.deps.Latency.Ping(ctx, s.pingHost)
	})
	step("ping-router", func() {
		if snap.RouterIP != nil {
			snap.RouterMs = s.deps.Latency.Ping(ctx, *snap.RouterIP)
		}
	})
	step("connection", func() {
		snap.Connection = s.deps.Network.ActiveConnection(ctx)
	})
	step("wifi", func() {
		if snap.Connection.Type != protocol.ConnectionWifi {
			return
		}
		var iface string
		if snap.Connection.Interface != nil {
			iface = snap.Connection.Interface.Name
		}
		snap.Wifi = s.deps.Wifi.Collect(ctx, iface)
	})

	return snap, nil
}

// step 执行单个采集步骤，panic 被记录后吞掉
func step(name string, fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		slog.Error("采集步骤发生 panic", "step", name, "panic", r.Value, "stack", string(r.Stack))
	}
}

// Close 释放 GeoIP 数据库等资源
func (s *System) Close() error {
	return s.PublicIP.Close()
}
