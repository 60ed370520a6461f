package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dushixiang/statuspi/internal/protocol"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/spf13/afero"
)

const (
	lanProbeAddr   = "8.8.8.8:80"
	procRoutePath  = "/proc/net/route"
	sysClassNetDir = "/sys/class/net"
)

var (
	defaultRouteRe = regexp.MustCompile(`default\s+via\s+([\d.]+)`)

	ethernetPrefixes = []string{"eth", "en"}
	wifiPrefixes     = []string{"wlan", "wl"}
)

// NetStats 网络数据源
type NetStats interface {
	// IOCounters 所有网卡的累计收发字节
	IOCounters(ctx context.Context) (sent, recv uint64, err error)
	Interfaces(ctx context.Context) (psnet.InterfaceStatList, error)
}

type systemNetStats struct{}

// NewSystemNetStats 基于 gopsutil 的网络数据源
func NewSystemNetStats() NetStats {
	return systemNetStats{}
}

func (systemNetStats) IOCounters(ctx context.Context) (uint64, uint64, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	if len(counters) == 0 {
		return 0, 0, errors.New("no network counters")
	}
	return counters[0].BytesSent, counters[0].BytesRecv, nil
}

func (systemNetStats) Interfaces(ctx context.Context) (psnet.InterfaceStatList, error) {
	return psnet.InterfacesWithContext(ctx)
}

// NetworkCollector 网络流量、地址与活动连接采集器
type NetworkCollector struct {
	stats     NetStats
	estimator *RateEstimator
	runner    Runner
	fs        afero.Fs
	now       func() time.Time
}

// NewNetworkCollector 创建网络采集器，estimator 由调用方持有以便跨快照保留状态
func NewNetworkCollector(stats NetStats, estimator *RateEstimator, runner Runner, fs afero.Fs) *NetworkCollector {
	return &NetworkCollector{
		stats:     stats,
		estimator: estimator,
		runner:    runner,
		fs:        fs,
		now:       time.Now,
	}
}

// Totals 累计流量与平滑速率
func (c *NetworkCollector) Totals(ctx context.Context) (*protocol.NetworkTotals, error) {
	sent, recv, err := c.stats.IOCounters(ctx)
	if err != nil {
		return nil, err
	}
	rates := c.estimator.Sample(sent, recv, c.now())
	return &protocol.NetworkTotals{
		BytesSent: rates.BytesSent,
		BytesRecv: rates.BytesRecv,
		UpBps:     rates.UpBps,
		DnBps:     rates.DnBps,
	}, nil
}

// LanIP 通过 UDP “连接”公网地址获取本机出口地址（不发送数据），失败时解析主机名
func (c *NetworkCollector) LanIP(ctx context.Context) *string {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", lanProbeAddr)
	if err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil && !addr.IP.IsUnspecified() {
			ip := addr.IP.String()
			return &ip
		}
	}
	slog.Debug("UDP 探测本机地址失败，尝试解析主机名", "error", err)

	hostname, err := os.Hostname()
	if err != nil {
		return nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			if v4.IsLoopback() {
				return nil
			}
			ip := v4.String()
			return &ip
		}
	}
	return nil
}

// RouterIP 默认网关地址：ip route，失败时读取 /proc/net/route
func (c *NetworkCollector) RouterIP(ctx context.Context) *string {
	out, err := runIfPresent(ctx, c.runner, "ip", "route")
	if err == nil {
		if gw, ok := parseDefaultRoute(out); ok {
			return &gw
		}
	}
	slog.Debug("ip route 未找到默认路由，尝试 /proc/net/route", "error", err)

	data, err := afero.ReadFile(c.fs, procRoutePath)
	if err != nil {
		return nil
	}
	if gw, ok := parseProcNetRoute(string(data)); ok {
		return &gw
	}
	return nil
}

// ActiveConnection 选出当前主用网卡并判断连接类型
func (c *NetworkCollector) ActiveConnection(ctx context.Context) protocol.Connection {
	ifaces, err := c.stats.Interfaces(ctx)
	if err != nil {
		slog.Debug("获取网卡列表失败", "error", err)
		return protocol.Connection{Type: protocol.ConnectionNone}
	}

	candidates := make([]protocol.NetworkInterface, 0, len(ifaces))
	seen := make(map[string]struct{}, len(ifaces))
	for _, iface := range ifaces {
		if !slices.Contains(iface.Flags, "up") {
			continue
		}
		if _, ok := seen[iface.Name]; ok {
			continue
		}
		ip, ok := firstIPv4(iface.Addrs)
		if !ok {
			continue
		}
		seen[iface.Name] = struct{}{}
		candidates = append(candidates, protocol.NetworkInterface{
			Name:  iface.Name,
			IP:    ip,
			Speed: c.linkSpeed(iface.Name),
			MTU:   iface.MTU,
		})
	}
	return ClassifyConnection(candidates)
}

// ClassifyConnection 优先有线网卡，其次无线网卡，否则取第一个
func ClassifyConnection(candidates []protocol.NetworkInterface) protocol.Connection {
	if len(candidates) == 0 {
		return protocol.Connection{Type: protocol.ConnectionNone}
	}

	primary := candidates[0]
	if i := slices.IndexFunc(candidates, func(n protocol.NetworkInterface) bool {
		return hasAnyPrefix(n.Name, ethernetPrefixes)
	}); i >= 0 {
		primary = candidates[i]
	} else if i := slices.IndexFunc(candidates, func(n protocol.NetworkInterface) bool {
		return hasAnyPrefix(n.Name, wifiPrefixes)
	}); i >= 0 {
		primary = candidates[i]
	}

	connType := protocol.ConnectionOther
	switch {
	case hasAnyPrefix(primary.Name, ethernetPrefixes):
		connType = protocol.ConnectionEthernet
	case hasAnyPrefix(primary.Name, wifiPrefixes):
		connType = protocol.ConnectionWifi
	}

	return protocol.Connection{
		Type:      connType,
		Interface: &primary,
	}
}

// linkSpeed 读取 /sys/class/net/<iface>/speed，未知时为 0
func (c *NetworkCollector) linkSpeed(name string) int {
	data, err := afero.ReadFile(c.fs, fmt.Sprintf("%s/%s/speed", sysClassNetDir, name))
	if err != nil {
		return 0
	}
	speed, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || speed < 0 {
		return 0
	}
	return speed
}

func firstIPv4(addrs psnet.InterfaceAddrList) (string, bool) {
	for _, addr := range addrs {
		ip, _, err := net.ParseCIDR(addr.Addr)
		if err != nil {
			ip = net.ParseIP(addr.Addr)
		}
		if ip == nil {
			continue
		}
		if v4 := ip.To4(); v4 != nil && !v4.IsLoopback() {
			return v4.String(), true
		}
	}
	return "", false
}

// parseDefaultRoute 解析 ip route 输出，例如 default via 192.168.1.1 dev wlan0 proto dhcp
func parseDefaultRoute(out string) (string, bool) {
	m := defaultRouteRe.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// parseProcNetRoute 解析 /proc/net/route，网关为小端序十六进制
func parseProcNetRoute(data string) (string, bool) {
	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != "00000000" {
			continue
		}
		v, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil || v == 0 {
			continue
		}
		ip := net.IPv4(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		return ip.String(), true
	}
	return "", false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
