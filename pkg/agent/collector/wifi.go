package collector

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dushixiang/statuspi/internal/protocol"
)

const defaultWifiInterface = "wlan0"

var (
	iwSignalRe        = regexp.MustCompile(`(-?\d+)\s*dBm`)
	iwBitrateRe       = regexp.MustCompile(`([\d.]+)\s*MBit/s`)
	iwconfigESSIDRe   = regexp.MustCompile(`ESSID:"([^"]*)"`)
	iwconfigSignalRe  = regexp.MustCompile(`Signal level=(-?\d+)\s*dBm`)
	iwconfigQualityRe = regexp.MustCompile(`Link Quality=(\d+)/(\d+)`)
)

// WifiSource 单个无线工具适配器
type WifiSource interface {
	Name() string
	// Query 工具可用且报告了活动连接时 ok 为 true
	Query(ctx context.Context, iface string) (info *protocol.WifiInfo, ok bool)
}

// WifiCollector 按优先级依次查询各无线工具
type WifiCollector struct {
	sources []WifiSource
	iface   string
}

// NewWifiCollector 创建无线信息采集器，iface 为空时使用活动网卡或 wlan0
func NewWifiCollector(runner Runner, iface string) *WifiCollector {
	return NewWifiCollectorWithSources(iface,
		&nmcliSource{runner: runner},
		&iwSource{runner: runner},
		&iwconfigSource{runner: runner},
	)
}

// NewWifiCollectorWithSources 使用自定义工具链创建采集器
func NewWifiCollectorWithSources(iface string, sources ...WifiSource) *WifiCollector {
	return &WifiCollector{
		sources: sources,
		iface:   iface,
	}
}

// Collect 第一个报告活动连接的工具胜出，全部失败时返回各字段为空的结果
func (c *WifiCollector) Collect(ctx context.Context, activeIface string) *protocol.WifiInfo {
	iface := c.iface
	if iface == "" {
		iface = activeIface
	}
	if iface == "" {
		iface = defaultWifiInterface
	}

	for _, source := range c.sources {
		if info, ok := source.Query(ctx, iface); ok {
			return info
		}
		slog.Debug("无线工具未返回活动连接", "source", source.Name(), "iface", iface)
	}
	return &protocol.WifiInfo{}
}

// RSSIToPercent 将 RSSI 粗略映射为信号百分比
//
// 先限制在 [-90, -30] dBm，再以 -67 dBm（常用的“良好”门限）为拐点分两段线性映射：
// -90 -> 10%，-67 -> 68%，-30 -> 100%。
// 两段斜率不同，整体不是一条直线，区间内的值不能按端点直接线性插值。
func RSSIToPercent(rssi int) int {
	const (
		floor, floorPct = -90.0, 10.0
		knee, kneePct   = -67.0, 68.0
		ceil, ceilPct   = -30.0, 100.0
	)

	v := math.Max(floor, math.Min(ceil, float64(rssi)))
	var pct float64
	if v <= knee {
		pct = floorPct + (v-floor)*(kneePct-floorPct)/(knee-floor)
	} else {
		pct = kneePct + (v-knee)*(ceilPct-kneePct)/(ceil-knee)
	}
	return int(math.Round(pct))
}

// nmcliSource NetworkManager 命令行
type nmcliSource struct {
	runner Runner
}

func (s *nmcliSource) Name() string { return "nmcli" }

func (s *nmcliSource) Query(ctx context.Context, _ string) (*protocol.WifiInfo, bool) {
	out, err := runIfPresent(ctx, s.runner, "nmcli", "-t", "-f", "active,ssid,signal", "dev", "wifi")
	if err != nil {
		return nil, false
	}
	return parseNmcli(out)
}

// parseNmcli 解析 nmcli 精简输出，活动行形如 yes:MySSID:70
func parseNmcli(out string) (*protocol.WifiInfo, bool) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "yes:")
		if !ok {
			continue
		}

		info := &protocol.WifiInfo{}
		ssid, signal := rest, ""
		if idx := strings.LastIndex(rest, ":"); idx >= 0 {
			ssid, signal = rest[:idx], rest[idx+1:]
		}
		// 精简模式下 SSID 中的冒号被转义为 \:
		ssid = strings.ReplaceAll(ssid, `\:`, ":")
		if ssid != "" {
			info.SSID = &ssid
		}
		if pct, err := strconv.Atoi(signal); err == nil {
			info.SignalPercent = &pct
		}
		return info, true
	}
	return nil, false
}

// iwSource iw dev <iface> link
type iwSource struct {
	runner Runner
}

func (s *iwSource) Name() string { return "iw" }

func (s *iwSource) Query(ctx context.Context, iface string) (*protocol.WifiInfo, bool) {
	out, err := runIfPresent(ctx, s.runner, "iw", "dev", iface, "link")
	if err != nil {
		return nil, false
	}
	return parseIwLink(out)
}

func parseIwLink(out string) (*protocol.WifiInfo, bool) {
	if strings.HasPrefix(strings.TrimSpace(out), "Not connected") {
		return nil, false
	}

	info := &protocol.WifiInfo{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SSID:"):
			if ssid := strings.TrimSpace(strings.TrimPrefix(line, "SSID:")); ssid != "" {
				info.SSID = &ssid
			}
		case strings.HasPrefix(line, "signal:"):
			if m := iwSignalRe.FindStringSubmatch(line); m != nil {
				if rssi, err := strconv.Atoi(m[1]); err == nil {
					info.RSSI = &rssi
				}
			}
		case strings.HasPrefix(line, "tx bitrate:"):
			if m := iwBitrateRe.FindStringSubmatch(line); m != nil {
				if rate, err := strconv.ParseFloat(m[1], 64); err == nil {
					info.BitrateMbps = &rate
				}
			}
		}
	}
	if info.RSSI != nil {
		pct := RSSIToPercent(*info.RSSI)
		info.SignalPercent = &pct
	}
	return info, wifiActive(info)
}

// iwconfigSource 旧版 wireless-tools
type iwconfigSource struct {
	runner Runner
}

func (s *iwconfigSource) Name() string { return "iwconfig" }

func (s *iwconfigSource) Query(ctx context.Context, iface string) (*protocol.WifiInfo, bool) {
	out, err := runIfPresent(ctx, s.runner, "iwconfig", iface)
	if err != nil {
		return nil, false
	}
	return parseIwconfig(out)
}

func parseIwconfig(out string) (*protocol.WifiInfo, bool) {
	info := &protocol.WifiInfo{}
	if m := iwconfigESSIDRe.FindStringSubmatch(out); m != nil && m[1] != "" {
		ssid := m[1]
		info.SSID = &ssid
	}
	if m := iwconfigSignalRe.FindStringSubmatch(out); m != nil {
		if rssi, err := strconv.Atoi(m[1]); err == nil {
			info.RSSI = &rssi
		}
	}
	if m := iwconfigQualityRe.FindStringSubmatch(out); m != nil {
		num, _ := strconv.Atoi(m[1])
		den, _ := strconv.Atoi(m[2])
		if den > 0 {
			pct := int(math.Round(float64(num) / float64(den) * 100))
			info.SignalPercent = &pct
		}
	} else if info.RSSI != nil {
		pct := RSSIToPercent(*info.RSSI)
		info.SignalPercent = &pct
	}
	return info, wifiActive(info)
}

func wifiActive(info *protocol.WifiInfo) bool {
	return info.SSID != nil || info.RSSI != nil
}
