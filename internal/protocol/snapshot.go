package protocol

import "time"

// 电源状态级别
const (
	PowerLevelOK      = "ok"
	PowerLevelWarn    = "warn"
	PowerLevelBad     = "bad"
	PowerLevelUnknown = "unknown"
)

// 网络连接类型
const (
	ConnectionEthernet = "Ethernet"
	ConnectionWifi     = "Wi-Fi"
	ConnectionOther    = "Other"
	ConnectionNone     = "none"
)

// Snapshot 主机健康快照（每次请求重新采集，不做持久化）
type Snapshot struct {
	Timestamp  time.Time      `json:"timestamp"`
	CPU        CPUInfo        `json:"cpu"`
	TempC      *float64       `json:"tempC"` // CPU/GPU 温度(°C)
	Memory     MemoryInfo     `json:"memory"`
	Disks      []DiskEntry    `json:"disks"`
	Power      PowerInfo      `json:"power"`
	Uptime     UptimeInfo     `json:"uptime"`
	Processes  []ProcessEntry `json:"processes"`
	Network    NetworkTotals  `json:"network"`
	LanIP      *string        `json:"lanIp"`
	ExternalIP *ExternalIP    `json:"externalIp"`
	RouterIP   *string        `json:"routerIp"`
	InternetMs *float64       `json:"internetMs"` // 到公网主机的延迟
	RouterMs   *float64       `json:"routerMs"`   // 到路由器的延迟
	Connection Connection     `json:"connection"`
	Wifi       *WifiInfo      `json:"wifi"` // 仅在连接类型为 Wi-Fi 时存在
	Host       HostIdentity   `json:"host"`
}

// CPUInfo CPU 信息
type CPUInfo struct {
	UsagePercent float64   `json:"usagePercent"`
	PerCore      []float64 `json:"perCore"`
	Load1        float64   `json:"load1"`
	Load5        float64   `json:"load5"`
	Load15       float64   `json:"load15"`
	LogicalCores int       `json:"logicalCores"`
	FreqGHz      *float64  `json:"freqGhz"`
}

// MemoryInfo 内存信息
type MemoryInfo struct {
	Total     uint64   `json:"total"`
	Used      uint64   `json:"used"`
	Available uint64   `json:"available"`
	Percent   float64  `json:"percent"`
	Swap      SwapInfo `json:"swap"`
}

// SwapInfo 交换分区信息
type SwapInfo struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Percent float64 `json:"percent"`
}

// DiskEntry 挂载点使用情况
type DiskEntry struct {
	Device    string   `json:"device"`
	Mount     string   `json:"mount"`
	FSType    string   `json:"fstype,omitempty"`
	Total     uint64   `json:"total"`
	Used      uint64   `json:"used"`
	Free      uint64   `json:"free"`
	Percent   float64  `json:"percent"`
	ReadRate  *float64 `json:"readRate"`  // 字节/秒，设备无法映射时为空
	WriteRate *float64 `json:"writeRate"` // 字节/秒，设备无法映射时为空
}

// PowerFlags vcgencmd get_throttled 解码结果
type PowerFlags struct {
	Raw                 string `json:"raw"`
	Value               uint32 `json:"value"`
	Undervoltage        bool   `json:"undervoltage"`
	FreqCapped          bool   `json:"freqCapped"`
	Throttled           bool   `json:"throttled"`
	UndervoltageHistory bool   `json:"undervoltageHistory"`
	FreqCappedHistory   bool   `json:"freqCappedHistory"`
	ThrottledHistory    bool   `json:"throttledHistory"`
}

// PowerStatus 电源状态
type PowerStatus struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// PowerInfo 电源信息
type PowerInfo struct {
	Flags  *PowerFlags `json:"flags"`
	Status PowerStatus `json:"status"`
}

// UptimeInfo 运行时长
type UptimeInfo struct {
	Seconds uint64 `json:"seconds"`
	Human   string `json:"human"`
}

// ProcessEntry 进程资源占用
type ProcessEntry struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	CPUPercent float64 `json:"cpuPercent"`
	MemPercent float64 `json:"memPercent"`
	ReadBytes  uint64  `json:"readBytes"`
	WriteBytes uint64  `json:"writeBytes"`
}

// NetworkTotals 网络累计流量与平滑速率
type NetworkTotals struct {
	BytesSent uint64  `json:"bytesSent"`
	BytesRecv uint64  `json:"bytesRecv"`
	UpBps     float64 `json:"upBps"`
	DnBps     float64 `json:"dnBps"`
}

// NetworkInterface 网卡信息
type NetworkInterface struct {
	Name  string `json:"name"`
	IP    string `json:"ip"`
	Speed int    `json:"speed"` // Mbit/s，未知为 0
	MTU   int    `json:"mtu"`
}

// Connection 当前活动连接
type Connection struct {
	Type      string            `json:"type"`
	Interface *NetworkInterface `json:"interface,omitempty"`
}

// WifiInfo 无线连接信息，各字段独立可空
type WifiInfo struct {
	SSID          *string  `json:"ssid"`
	RSSI          *int     `json:"rssiDbm"`
	SignalPercent *int     `json:"signalPercent"`
	BitrateMbps   *float64 `json:"bitrateMbps"`
}

// HostIdentity 主机静态信息
type HostIdentity struct {
	Model     string `json:"model"`
	Hostname  string `json:"hostname"`
	OS        string `json:"os"`
	Kernel    string `json:"kernel"`
	Platform  string `json:"platform,omitempty"`
	Arch      string `json:"arch"`
	GoVersion string `json:"goVersion"`
}
