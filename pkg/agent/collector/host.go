package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/spf13/afero"
)

// DefaultModelPath 设备树中的主板型号
const DefaultModelPath = "/proc/device-tree/model"

// ErrModelUnavailable 型号文件无法读取，唯一会中断快照的错误
var ErrModelUnavailable = errors.New("host model unavailable")

// HostStats 主机数据源
type HostStats interface {
	Info(ctx context.Context) (*host.InfoStat, error)
	Uptime(ctx context.Context) (uint64, error)
}

type systemHostStats struct{}

// NewSystemHostStats 基于 gopsutil 的主机数据源
func NewSystemHostStats() HostStats {
	return systemHostStats{}
}

func (systemHostStats) Info(ctx context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(ctx)
}

func (systemHostStats) Uptime(ctx context.Context) (uint64, error) {
	return host.UptimeWithContext(ctx)
}

// HostCollector 主机信息采集器
type HostCollector struct {
	stats     HostStats
	fs        afero.Fs
	modelPath string
}

// NewHostCollector 创建主机信息采集器，modelPath 为空时使用设备树路径
func NewHostCollector(stats HostStats, fs afero.Fs, modelPath string) *HostCollector {
	if modelPath == "" {
		modelPath = DefaultModelPath
	}
	return &HostCollector{
		stats:     stats,
		fs:        fs,
		modelPath: modelPath,
	}
}

// Model 读取型号并附加内存容量，例如 Raspberry Pi 4 Model B Rev 1.4 (4GB RAM)
func (h *HostCollector) Model(memTotal uint64) (string, error) {
	data, err := afero.ReadFile(h.fs, h.modelPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrModelUnavailable, h.modelPath, err)
	}
	model := string(bytes.TrimSpace(bytes.Trim(data, "\x00")))
	gb := int(math.Ceil(float64(memTotal) / (1 << 30)))
	return fmt.Sprintf("%s (%dGB RAM)", model, gb), nil
}

// Identity 采集主机静态信息，型号读取失败时返回 ErrModelUnavailable
func (h *HostCollector) Identity(ctx context.Context, memTotal uint64) (protocol.HostIdentity, error) {
	model, err := h.Model(memTotal)
	if err != nil {
		return protocol.HostIdentity{}, err
	}

	identity := protocol.HostIdentity{
		Model:     model,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
	}

	hostInfo, err := h.stats.Info(ctx)
	if err != nil {
		return identity, nil
	}
	identity.Hostname = hostInfo.Hostname
	identity.Kernel = hostInfo.KernelVersion
	if hostInfo.OS != "" {
		identity.OS = hostInfo.OS
	}
	if hostInfo.Platform != "" {
		identity.Platform = hostInfo.Platform
		if hostInfo.PlatformVersion != "" {
			identity.Platform += " " + hostInfo.PlatformVersion
		}
	}
	if hostInfo.KernelArch != "" {
		identity.Arch = hostInfo.KernelArch
	}
	return identity, nil
}

// Uptime 开机时长
func (h *HostCollector) Uptime(ctx context.Context) (protocol.UptimeInfo, error) {
	seconds, err := h.stats.Uptime(ctx)
	if err != nil {
		return protocol.UptimeInfo{}, err
	}
	return protocol.UptimeInfo{
		Seconds: seconds,
		Human:   UptimeToHuman(seconds),
	}, nil
}
