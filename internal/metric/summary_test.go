package metric

import (
	"strings"
	"testing"

	"github.com/dushixiang/statuspi/internal/protocol"
)

func ptr[T any](v T) *T { return &v }

func TestSummarize(t *testing.T) {
	snap := &protocol.Snapshot{
		CPU:    protocol.CPUInfo{UsagePercent: 12.34, LogicalCores: 4, FreqGHz: ptr(1.8)},
		TempC:  ptr(48.25),
		Memory: protocol.MemoryInfo{Total: 4 << 30, Used: 1 << 30, Percent: 25},
		Disks: []protocol.DiskEntry{
			{Mount: "/", Total: 100, Used: 25, Free: 75, ReadRate: ptr(10.0)},
			{Mount: "/data", Total: 300, Used: 75, Free: 225},
		},
		Network: protocol.NetworkTotals{BytesSent: 1536, UpBps: 2048},
		Connection: protocol.Connection{
			Type:      protocol.ConnectionWifi,
			Interface: &protocol.NetworkInterface{Name: "wlan0", IP: "192.168.1.23"},
		},
		Wifi:       &protocol.WifiInfo{SSID: ptr("HomeNet"), SignalPercent: ptr(68), RSSI: ptr(-67)},
		ExternalIP: &protocol.ExternalIP{IP: "203.0.113.7", Country: "Japan", City: "Tokyo"},
		InternetMs: ptr(14.2),
		Power:      protocol.PowerInfo{Status: protocol.PowerStatus{Level: protocol.PowerLevelOK, Message: "Power OK"}},
		Processes: []protocol.ProcessEntry{
			{PID: 1, Name: "a", CPUPercent: 9, ReadBytes: 2048},
			{PID: 2, Name: "b", CPUPercent: 1},
		},
	}

	s := Summarize(snap, 1)

	if s.CPU != "12.3% of 4 cores @ 1.80 GHz" {
		t.Errorf("CPU 行错误: %q", s.CPU)
	}
	if s.Temp != "48.2°C" && s.Temp != "48.3°C" {
		t.Errorf("温度行错误: %q", s.Temp)
	}
	if s.Disk.TotalDisks != 2 || s.Disk.UsagePercent != 25 || s.Disk.ReadRate != 10 {
		t.Errorf("磁盘汇总错误: %+v", s.Disk)
	}
	if s.Network.UpRate != "2.0 KiB/s" || s.Network.SentTotal != "1.5 KiB" {
		t.Errorf("网络汇总错误: %+v", s.Network)
	}
	if s.Wifi != "HomeNet 68% (-67 dBm)" {
		t.Errorf("无线行错误: %q", s.Wifi)
	}
	if s.ExternalIP != "203.0.113.7 (Tokyo, Japan)" {
		t.Errorf("公网 IP 行错误: %q", s.ExternalIP)
	}
	if s.Router != unavailable || s.RouterIP != unavailable || s.LanIP != unavailable {
		t.Errorf("缺失的字段应显示 %s", unavailable)
	}
	if !strings.HasPrefix(s.Connection, "Wi-Fi (wlan0") {
		t.Errorf("连接行错误: %q", s.Connection)
	}
	if len(s.Processes) != 1 || s.Processes[0].Read != "2.0 KiB" {
		t.Errorf("进程应截断为 1 个并格式化字节: %+v", s.Processes)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&protocol.Snapshot{}, 0)

	if s.Temp != unavailable || s.Memory != unavailable || s.Wifi != unavailable || s.ExternalIP != unavailable {
		t.Errorf("空快照应全部显示 %s: %+v", unavailable, s)
	}
	if s.Processes == nil {
		t.Error("进程列表应为空切片而不是 nil")
	}
}
