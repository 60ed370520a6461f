package metric

import (
	"fmt"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/dushixiang/statuspi/pkg/agent/collector"
)

// DiskSummary 磁盘汇总数据
type DiskSummary struct {
	UsagePercent float64 `json:"usagePercent"` // 按容量加权的使用率
	TotalDisks   int     `json:"totalDisks"`   // 挂载点数量
	Total        uint64  `json:"total"`        // 总容量(字节)
	Used         uint64  `json:"used"`         // 已使用(字节)
	Free         uint64  `json:"free"`         // 空闲(字节)
	ReadRate     float64 `json:"readRate"`     // 已知设备的读速率之和(字节/秒)
	WriteRate    float64 `json:"writeRate"`    // 已知设备的写速率之和(字节/秒)
}

// NetworkSummary 网络汇总数据
type NetworkSummary struct {
	UpRate    string `json:"upRate"`
	DownRate  string `json:"downRate"`
	SentTotal string `json:"sentTotal"`
	RecvTotal string `json:"recvTotal"`
}

// ProcessLine 展示用进程行
type ProcessLine struct {
	PID   int32  `json:"pid"`
	Name  string `json:"name"`
	CPU   string `json:"cpu"`
	Mem   string `json:"mem"`
	Read  string `json:"read"`
	Write string `json:"write"`
}

// Summary 快照的展示视图，所有字段均为可直接显示的字符串
type Summary struct {
	Model      string         `json:"model"`
	Hostname   string         `json:"hostname"`
	System     string         `json:"system"`
	Uptime     string         `json:"uptime"`
	CPU        string         `json:"cpu"`
	Load       string         `json:"load"`
	Temp       string         `json:"temp"`
	Memory     string         `json:"memory"`
	Swap       string         `json:"swap"`
	Disk       DiskSummary    `json:"disk"`
	DiskText   string         `json:"diskText"`
	Network    NetworkSummary `json:"network"`
	Connection string         `json:"connection"`
	Wifi       string         `json:"wifi"`
	LanIP      string         `json:"lanIp"`
	ExternalIP string         `json:"externalIp"`
	RouterIP   string         `json:"routerIp"`
	Internet   string         `json:"internet"`
	Router     string         `json:"router"`
	PowerLevel string         `json:"powerLevel"`
	Power      string         `json:"power"`
	Processes  []ProcessLine  `json:"processes"`
}

const unavailable = "n/a"

// Summarize 生成展示视图，topN > 0 时只保留前 N 个进程
func Summarize(snap *protocol.Snapshot, topN int) *Summary {
	s := &Summary{
		Model:      snap.Host.Model,
		Hostname:   snap.Host.Hostname,
		System:     systemLine(snap.Host),
		Uptime:     snap.Uptime.Human,
		CPU:        cpuLine(snap.CPU),
		Load:       fmt.Sprintf("%.2f / %.2f / %.2f", snap.CPU.Load1, snap.CPU.Load5, snap.CPU.Load15),
		Temp:       unavailable,
		Memory:     usageLine(snap.Memory.Used, snap.Memory.Total, snap.Memory.Percent),
		Swap:       usageLine(snap.Memory.Swap.Used, snap.Memory.Swap.Total, snap.Memory.Swap.Percent),
		Disk:       SummarizeDisks(snap.Disks),
		Connection: snap.Connection.Type,
		Wifi:       unavailable,
		LanIP:      stringOr(snap.LanIP),
		ExternalIP: unavailable,
		RouterIP:   stringOr(snap.RouterIP),
		Internet:   latency(snap.InternetMs),
		Router:     latency(snap.RouterMs),
		PowerLevel: snap.Power.Status.Level,
		Power:      snap.Power.Status.Message,
		Network: NetworkSummary{
			UpRate:    collector.RateToHuman(snap.Network.UpBps),
			DownRate:  collector.RateToHuman(snap.Network.DnBps),
			SentTotal: collector.BytesToHuman(snap.Network.BytesSent),
			RecvTotal: collector.BytesToHuman(snap.Network.BytesRecv),
		},
	}

	if snap.TempC != nil {
		s.Temp = fmt.Sprintf("%.1f°C", *snap.TempC)
	}
	s.DiskText = usageLine(s.Disk.Used, s.Disk.Total, s.Disk.UsagePercent)

	if iface := snap.Connection.Interface; iface != nil {
		s.Connection = fmt.Sprintf("%s (%s, %s)", snap.Connection.Type, iface.Name, iface.IP)
		if iface.Speed > 0 {
			s.Connection = fmt.Sprintf("%s (%s, %s, %d Mbit/s)", snap.Connection.Type, iface.Name, iface.IP, iface.Speed)
		}
	}
	if snap.Wifi != nil {
		s.Wifi = wifiLine(snap.Wifi)
	}
	if ip := snap.ExternalIP; ip != nil {
		s.ExternalIP = ip.IP
		if ip.Country != "" {
			s.ExternalIP = fmt.Sprintf("%s (%s)", ip.IP, joinNonEmpty(ip.City, ip.Country))
		}
	}

	procs := snap.Processes
	if topN > 0 && len(procs) > topN {
		procs = procs[:topN]
	}
	s.Processes = make([]ProcessLine, 0, len(procs))
	for _, p := range procs {
		s.Processes = append(s.Processes, ProcessLine{
			PID:   p.PID,
			Name:  p.Name,
			CPU:   fmt.Sprintf("%.1f%%", p.CPUPercent),
			Mem:   fmt.Sprintf("%.2f%%", p.MemPercent),
			Read:  collector.BytesToHuman(p.ReadBytes),
			Write: collector.BytesToHuman(p.WriteBytes),
		})
	}
	return s
}

// SummarizeDisks 汇总所有挂载点
func SummarizeDisks(disks []protocol.DiskEntry) DiskSummary {
	var sum DiskSummary
	sum.TotalDisks = len(disks)
	for _, d := range disks {
		sum.Total += d.Total
		sum.Used += d.Used
		sum.Free += d.Free
		if d.ReadRate != nil {
			sum.ReadRate += *d.ReadRate
		}
		if d.WriteRate != nil {
			sum.WriteRate += *d.WriteRate
		}
	}
	if sum.Total > 0 {
		sum.UsagePercent = float64(sum.Used) / float64(sum.Total) * 100
	}
	return sum
}

func systemLine(h protocol.HostIdentity) string {
	platform := h.Platform
	if platform == "" {
		platform = h.OS
	}
	return fmt.Sprintf("%s, kernel %s, %s, %s", platform, h.Kernel, h.Arch, h.GoVersion)
}

func cpuLine(c protocol.CPUInfo) string {
	line := fmt.Sprintf("%.1f%% of %d cores", c.UsagePercent, c.LogicalCores)
	if c.FreqGHz != nil {
		line += fmt.Sprintf(" @ %.2f GHz", *c.FreqGHz)
	}
	return line
}

func usageLine(used, total uint64, percent float64) string {
	if total == 0 {
		return unavailable
	}
	return fmt.Sprintf("%s / %s (%.1f%%)", collector.BytesToHuman(used), collector.BytesToHuman(total), percent)
}

func wifiLine(w *protocol.WifiInfo) string {
	if w.SSID == nil && w.RSSI == nil && w.SignalPercent == nil {
		return unavailable
	}
	line := stringOr(w.SSID)
	if w.SignalPercent != nil {
		line += fmt.Sprintf(" %d%%", *w.SignalPercent)
	}
	if w.RSSI != nil {
		line += fmt.Sprintf(" (%d dBm)", *w.RSSI)
	}
	if w.BitrateMbps != nil {
		line += fmt.Sprintf(" %.1f Mbit/s", *w.BitrateMbps)
	}
	return line
}

func latency(ms *float64) string {
	if ms == nil {
		return unavailable
	}
	return fmt.Sprintf("%.1f ms", *ms)
}

func stringOr(s *string) string {
	if s == nil || *s == "" {
		return unavailable
	}
	return *s
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + ", " + b
	}
}
