package collector

import (
	"context"
	"testing"

	"github.com/dushixiang/statuspi/internal/protocol"
)

func TestRSSIToPercent(t *testing.T) {
	tests := []struct {
		rssi int
		want int
	}{
		{-30, 100},
		{-20, 100},
		{-90, 10},
		{-100, 10},
		{-67, 68},
		// 拐点两侧斜率不同
		{-80, 35},
		{-50, 83},
	}

	for _, tt := range tests {
		if got := RSSIToPercent(tt.rssi); got != tt.want {
			t.Errorf("RSSIToPercent(%d) = %d，期望 %d", tt.rssi, got, tt.want)
		}
	}

	prev := RSSIToPercent(-90)
	for rssi := -89; rssi <= -30; rssi++ {
		cur := RSSIToPercent(rssi)
		if cur < prev {
			t.Fatalf("信号百分比应随 RSSI 单调不减: %d dBm -> %d < %d", rssi, cur, prev)
		}
		prev = cur
	}
}

func TestParseNmcli(t *testing.T) {
	out := "no:Neighbour:40\nyes:Home\\:5G:72\nno::20\n"

	info, ok := parseNmcli(out)
	if !ok {
		t.Fatal("应解析出活动连接")
	}
	if info.SSID == nil || *info.SSID != "Home:5G" {
		t.Errorf("SSID 应为 Home:5G，实际 %v", info.SSID)
	}
	if info.SignalPercent == nil || *info.SignalPercent != 72 {
		t.Errorf("信号应为 72，实际 %v", info.SignalPercent)
	}

	if _, ok := parseNmcli("no:Other:50\n"); ok {
		t.Error("没有 yes 行时不应返回活动连接")
	}
}

func TestParseIwLink(t *testing.T) {
	out := `Connected to aa:bb:cc:dd:ee:ff (on wlan0)
	SSID: HomeNet
	freq: 5180
	signal: -67 dBm
	tx bitrate: 433.3 MBit/s VHT-MCS 9 80MHz short GI VHT-NSS 1
`
	info, ok := parseIwLink(out)
	if !ok {
		t.Fatal("应解析出活动连接")
	}
	if info.SSID == nil || *info.SSID != "HomeNet" {
		t.Errorf("SSID 应为 HomeNet，实际 %v", info.SSID)
	}
	if info.RSSI == nil || *info.RSSI != -67 {
		t.Errorf("RSSI 应为 -67，实际 %v", info.RSSI)
	}
	if info.SignalPercent == nil || *info.SignalPercent != 68 {
		t.Errorf("信号应为 68，实际 %v", info.SignalPercent)
	}
	if info.BitrateMbps == nil || *info.BitrateMbps != 433.3 {
		t.Errorf("速率应为 433.3，实际 %v", info.BitrateMbps)
	}

	if _, ok := parseIwLink("Not connected.\n"); ok {
		t.Error("未连接时不应返回活动连接")
	}
}

func TestParseIwconfig(t *testing.T) {
	out := `wlan0     IEEE 802.11  ESSID:"Office"
          Mode:Managed  Frequency:2.437 GHz  Access Point: AA:BB:CC:DD:EE:FF
          Link Quality=49/70  Signal level=-61 dBm
`
	info, ok := parseIwconfig(out)
	if !ok {
		t.Fatal("应解析出活动连接")
	}
	if info.SSID == nil || *info.SSID != "Office" {
		t.Errorf("SSID 应为 Office，实际 %v", info.SSID)
	}
	if info.RSSI == nil || *info.RSSI != -61 {
		t.Errorf("RSSI 应为 -61，实际 %v", info.RSSI)
	}
	if info.SignalPercent == nil || *info.SignalPercent != 70 {
		t.Errorf("信号应按 Link Quality 计算为 70，实际 %v", info.SignalPercent)
	}

	if _, ok := parseIwconfig(`wlan0     IEEE 802.11  ESSID:off/any`); ok {
		t.Error("未关联时不应返回活动连接")
	}
}

func TestWifiCollectorFallback(t *testing.T) {
	r := newFakeRunner().
		without("nmcli").
		on("iw dev wlan1 link", "Not connected.", nil).
		on("iwconfig wlan1", `wlan1  ESSID:"Cafe"  Signal level=-80 dBm`, nil)

	info := NewWifiCollector(r, "").Collect(context.Background(), "wlan1")
	if info.SSID == nil || *info.SSID != "Cafe" {
		t.Fatalf("应回退到 iwconfig 并得到 Cafe，实际 %v", info.SSID)
	}
	if info.SignalPercent == nil || *info.SignalPercent != RSSIToPercent(-80) {
		t.Errorf("无 Link Quality 时应按 RSSI 计算信号，实际 %v", info.SignalPercent)
	}
}

func TestWifiCollectorNothingAvailable(t *testing.T) {
	r := newFakeRunner().without("nmcli", "iw", "iwconfig")

	info := NewWifiCollector(r, "").Collect(context.Background(), "")
	if info == nil {
		t.Fatal("全部失败时应返回空字段的结果而不是 nil")
	}
	if *info != (protocol.WifiInfo{}) {
		t.Errorf("全部失败时各字段应为空，实际 %+v", info)
	}
}

func TestWifiCollectorConfiguredInterface(t *testing.T) {
	r := newFakeRunner().
		without("nmcli").
		on("iw dev wlp2s0 link", "Connected to x\n\tSSID: Lab\n\tsignal: -50 dBm\n", nil)

	info := NewWifiCollector(r, "wlp2s0").Collect(context.Background(), "wlan0")
	if info.SSID == nil || *info.SSID != "Lab" {
		t.Errorf("应使用配置的网卡 wlp2s0，实际调用: %v", r.calls)
	}
}
