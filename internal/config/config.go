package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/dushixiang/statuspi/pkg/agent"
	"github.com/dushixiang/statuspi/pkg/agent/collector"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath 默认配置文件路径
const DefaultPath = "/etc/statuspi/config.yaml"

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `yaml:"Server"`
	Log       LogConfig       `yaml:"Log"`
	Collector CollectorConfig `yaml:"Collector"`
	Probe     ProbeConfig     `yaml:"Probe"`
	Dashboard DashboardConfig `yaml:"Dashboard"`

	// Path 配置文件所在路径，未使用配置文件时为空
	Path string `yaml:"-"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr string `yaml:"Addr" validate:"required,hostname_port"` // 监听地址，如 0.0.0.0:8080
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"Level" validate:"oneof=debug info warn error"`
	File       string `yaml:"File"`                        // 为空时输出到标准输出
	MaxSize    int    `yaml:"MaxSize" validate:"gte=0"`    // MB
	MaxBackups int    `yaml:"MaxBackups" validate:"gte=0"` // 保留的旧日志文件数
	MaxAge     int    `yaml:"MaxAge" validate:"gte=0"`     // 天数
	Compress   bool   `yaml:"Compress"`
}

// CollectorConfig 采集配置
type CollectorConfig struct {
	RateAlpha         float64  `yaml:"RateAlpha" validate:"gt=0,lte=1"` // 网速平滑系数
	CommandTimeout    int      `yaml:"CommandTimeout" validate:"gte=1"` // 外部命令超时（秒）
	DiskWindow        int      `yaml:"DiskWindow" validate:"gte=1"`     // 磁盘速率采样窗口（秒）
	DiskBackground    bool     `yaml:"DiskBackground"`                  // 后台定时采样磁盘速率
	DiskInterval      int      `yaml:"DiskInterval" validate:"gte=1"`   // 后台采样间隔（秒）
	SkipFilesystems   []string `yaml:"SkipFilesystems"`                 // 为空时使用默认列表
	SkipMountPrefixes []string `yaml:"SkipMountPrefixes"`               // 为空时使用默认列表
	ProcessLimit      int      `yaml:"ProcessLimit" validate:"gte=0"`   // 0 表示不限制
	ModelPath         string   `yaml:"ModelPath" validate:"required"`   // 主板型号文件
	WifiInterface     string   `yaml:"WifiInterface"`                   // 为空时使用活动网卡
}

// ProbeConfig 网络探测配置
type ProbeConfig struct {
	PingHost    string         `yaml:"PingHost" validate:"required"`
	PingTimeout int            `yaml:"PingTimeout" validate:"gte=1"` // 秒
	PublicIP    PublicIPConfig `yaml:"PublicIP"`
}

// PublicIPConfig 公网 IP 配置
type PublicIPConfig struct {
	URL          string `yaml:"URL" validate:"required,url"`
	Timeout      int    `yaml:"Timeout" validate:"gte=1"`      // 秒
	CacheSeconds int    `yaml:"CacheSeconds" validate:"gte=0"` // 0 表示不缓存
	GeoIPDBPath  string `yaml:"GeoIPDBPath"`                   // GeoIP数据库文件路径（如：GeoLite2-City.mmdb）
}

// DashboardConfig 页面刷新配置
type DashboardConfig struct {
	DefaultRefresh int `yaml:"DefaultRefresh" validate:"gtefield=MinRefresh"` // 秒
	MinRefresh     int `yaml:"MinRefresh" validate:"gte=1"`                   // 秒
	TopProcesses   int `yaml:"TopProcesses" validate:"gte=0"`                 // 页面展示的进程数，0 表示全部
}

// Default 默认配置
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr: "0.0.0.0:8080",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Collector: CollectorConfig{
			RateAlpha:      collector.DefaultRateAlpha,
			CommandTimeout: 3,
			DiskWindow:     1,
			DiskInterval:   2,
			ModelPath:      collector.DefaultModelPath,
		},
		Probe: ProbeConfig{
			PingHost:    collector.DefaultPingHost,
			PingTimeout: 2,
			PublicIP: PublicIPConfig{
				URL:     collector.DefaultPublicIPURL,
				Timeout: 5,
			},
		},
		Dashboard: DashboardConfig{
			DefaultRefresh: 5,
			MinRefresh:     1,
			TopProcesses:   10,
		},
	}
}

// Load 读取配置文件，path 为空时返回默认配置
func Load(fs afero.Fs, path string) (*AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("配置文件不存在: %s", path)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置，错误信息为英文描述
func (c *AppConfig) Validate() error {
	validate := validator.New()
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return err
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Translate(trans)))
	}
	return fmt.Errorf("配置校验失败: %s", strings.Join(msgs, "; "))
}

// CollectorOptions 转换为采集器配置
func (c *AppConfig) CollectorOptions() collector.Options {
	return collector.Options{
		RateAlpha:         c.Collector.RateAlpha,
		CommandTimeout:    seconds(c.Collector.CommandTimeout),
		DiskWindow:        seconds(c.Collector.DiskWindow),
		SkipFilesystems:   c.Collector.SkipFilesystems,
		SkipMountPrefixes: c.Collector.SkipMountPrefixes,
		ProcessLimit:      c.Collector.ProcessLimit,
		ModelPath:         c.Collector.ModelPath,
		WifiInterface:     c.Collector.WifiInterface,
		PingHost:          c.Probe.PingHost,
		PingTimeout:       seconds(c.Probe.PingTimeout),
		PublicIP: protocol.PublicIPConfigData{
			URL:            c.Probe.PublicIP.URL,
			TimeoutSeconds: c.Probe.PublicIP.Timeout,
			CacheSeconds:   c.Probe.PublicIP.CacheSeconds,
			GeoIPDBPath:    c.Probe.PublicIP.GeoIPDBPath,
		},
	}
}

// LogOptions 转换为日志配置
func (c *AppConfig) LogOptions() *agent.LogConfig {
	return &agent.LogConfig{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}

// GetDiskInterval 后台磁盘采样间隔
func (c *AppConfig) GetDiskInterval() time.Duration {
	return seconds(c.Collector.DiskInterval)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
