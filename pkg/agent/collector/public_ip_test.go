package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dushixiang/statuspi/internal/protocol"
)

type fakeLocator struct {
	country, city string
}

func (f fakeLocator) Locate(ip net.IP) (string, string, error) {
	if ip == nil {
		return "", "", errors.New("invalid ip")
	}
	return f.country, f.city, nil
}

func (fakeLocator) Close() error { return nil }

func TestPublicIPCollector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "203.0.113.7\n")
	}))
	defer srv.Close()

	c := NewPublicIPCollector(protocol.PublicIPConfigData{URL: srv.URL})
	ip := c.Collect(context.Background())
	if ip == nil || ip.IP != "203.0.113.7" {
		t.Fatalf("公网 IP 应为 203.0.113.7，实际 %+v", ip)
	}
}

func TestPublicIPCollectorInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>rate limited</html>")
	}))
	defer srv.Close()

	c := NewPublicIPCollector(protocol.PublicIPConfigData{URL: srv.URL})
	if ip := c.Collect(context.Background()); ip != nil {
		t.Errorf("响应不是 IP 时应返回 nil，实际 %+v", ip)
	}
}

func TestPublicIPCollectorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
		}
		fmt.Fprint(w, "203.0.113.7")
	}))
	defer srv.Close()

	c := NewPublicIPCollector(protocol.PublicIPConfigData{URL: srv.URL, TimeoutSeconds: 1})
	start := time.Now()
	if ip := c.Collect(context.Background()); ip != nil {
		t.Errorf("超时时应返回 nil，实际 %+v", ip)
	}
	if elapsed := time.Since(start); elapsed > 2500*time.Millisecond {
		t.Errorf("请求应在超时后返回，实际耗时 %v", elapsed)
	}
}

func TestPublicIPCollectorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewPublicIPCollector(protocol.PublicIPConfigData{URL: srv.URL})
	if ip := c.Collect(context.Background()); ip != nil {
		t.Errorf("非 200 响应应返回 nil，实际 %+v", ip)
	}
}

func TestPublicIPCollectorCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "198.51.100.1")
	}))
	defer srv.Close()

	c := NewPublicIPCollector(protocol.PublicIPConfigData{URL: srv.URL, CacheSeconds: 60})
	for i := 0; i < 3; i++ {
		if ip := c.Collect(context.Background()); ip == nil || ip.IP != "198.51.100.1" {
			t.Fatalf("第 %d 次获取失败: %+v", i, ip)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("缓存有效期内只应请求一次，实际 %d 次", n)
	}
}

func TestPublicIPCollectorGeo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "203.0.113.7")
	}))
	defer srv.Close()

	c := NewPublicIPCollector(protocol.PublicIPConfigData{URL: srv.URL}).
		WithLocator(fakeLocator{country: "Japan", city: "Tokyo"})
	defer c.Close()

	ip := c.Collect(context.Background())
	if ip == nil || ip.Country != "Japan" || ip.City != "Tokyo" {
		t.Errorf("应附带地理位置，实际 %+v", ip)
	}
}

func TestPublicIPCollectorMissingGeoDB(t *testing.T) {
	c := NewPublicIPCollector(protocol.PublicIPConfigData{GeoIPDBPath: t.TempDir() + "/missing.mmdb"})
	if c.locator != nil {
		t.Error("数据库不存在时不应启用地理位置")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() 失败: %v", err)
	}
}
