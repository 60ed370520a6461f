package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/go-orz/cache"
	"github.com/oschwald/geoip2-golang"
)

const (
	DefaultPublicIPURL     = "https://api.ipify.org/"
	DefaultPublicIPTimeout = 5 * time.Second

	publicIPCacheKey = "external-ip"
	maxPublicIPBody  = 256
)

// GeoLocator IP 地理位置查询
type GeoLocator interface {
	Locate(ip net.IP) (country, city string, err error)
	Close() error
}

// PublicIPCollector 通过 IP 回显服务获取公网地址
type PublicIPCollector struct {
	url     string
	client  *http.Client
	ttl     time.Duration
	cache   cache.Cache[string, string]
	locator GeoLocator
}

// NewPublicIPCollector 创建公网 IP 采集器
//
// CacheSeconds > 0 时缓存结果；GeoIPDBPath 非空时打开 MaxMind 数据库补充地理位置，
// 数据库打开失败只记录日志，不影响 IP 获取。
func NewPublicIPCollector(cfg protocol.PublicIPConfigData) *PublicIPCollector {
	url := cfg.URL
	if url == "" {
		url = DefaultPublicIPURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultPublicIPTimeout
	}

	c := &PublicIPCollector{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}

	if cfg.CacheSeconds > 0 {
		c.ttl = time.Duration(cfg.CacheSeconds) * time.Second
		c.cache = cache.New[string, string](c.ttl)
	}

	if cfg.GeoIPDBPath != "" {
		locator, err := OpenGeoIP(cfg.GeoIPDBPath)
		if err != nil {
			slog.Warn("打开 GeoIP 数据库失败，将不提供地理位置", "path", cfg.GeoIPDBPath, "error", err)
		} else {
			c.locator = locator
		}
	}
	return c
}

// WithLocator 替换地理位置查询实现
func (c *PublicIPCollector) WithLocator(locator GeoLocator) *PublicIPCollector {
	c.locator = locator
	return c
}

// Collect 获取公网 IP，任何失败都返回 nil
func (c *PublicIPCollector) Collect(ctx context.Context) *protocol.ExternalIP {
	ip, err := c.lookup(ctx)
	if err != nil {
		slog.Debug("获取公网 IP 失败", "url", c.url, "error", err)
		return nil
	}

	result := &protocol.ExternalIP{IP: ip}
	if c.locator != nil {
		country, city, err := c.locator.Locate(net.ParseIP(ip))
		if err == nil {
			result.Country = country
			result.City = city
		} else {
			slog.Debug("GeoIP 查询失败", "ip", ip, "error", err)
		}
	}
	return result
}

func (c *PublicIPCollector) lookup(ctx context.Context) (string, error) {
	if c.cache != nil {
		if ip, ok := c.cache.Get(publicIPCacheKey); ok {
			return ip, nil
		}
	}

	ip, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.Set(publicIPCacheKey, ip, c.ttl)
	}
	return ip, nil
}

func (c *PublicIPCollector) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPublicIPBody))
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid ip in response: %q", ip)
	}
	return ip, nil
}

// Close 释放 GeoIP 数据库
func (c *PublicIPCollector) Close() error {
	if c.locator == nil {
		return nil
	}
	return c.locator.Close()
}

// geoIPLocator MaxMind City 数据库
type geoIPLocator struct {
	reader *geoip2.Reader
}

// OpenGeoIP 打开 GeoLite2-City / GeoIP2-City 数据库
func OpenGeoIP(path string) (GeoLocator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &geoIPLocator{reader: reader}, nil
}

func (l *geoIPLocator) Locate(ip net.IP) (string, string, error) {
	if ip == nil {
		return "", "", errors.New("invalid ip")
	}
	record, err := l.reader.City(ip)
	if err != nil {
		return "", "", err
	}
	return record.Country.Names["en"], record.City.Names["en"], nil
}

func (l *geoIPLocator) Close() error {
	return l.reader.Close()
}
