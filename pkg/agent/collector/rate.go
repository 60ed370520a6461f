package collector

import (
	"sync"
	"time"
)

const (
	// DefaultRateAlpha EMA 平滑系数，越大越贴近瞬时值
	DefaultRateAlpha = 0.35

	minRateInterval = time.Millisecond
)

// NetworkRates 网络累计流量与平滑后的速率
type NetworkRates struct {
	BytesSent uint64
	BytesRecv uint64
	UpBps     float64
	DnBps     float64
}

type rateState struct {
	ts    time.Time
	sent  uint64
	recv  uint64
	upBps float64
	dnBps float64
}

// RateEstimator 基于 EMA 的网络速率估算器，状态跨调用保留
//
// 建议以 1~2 秒的间隔调用，间隔过大时平滑效果会变差。
// 并发调用安全：每次采样的读-改-写在锁内完成。
type RateEstimator struct {
	mu    sync.Mutex
	alpha float64
	state *rateState
}

// NewRateEstimator 创建速率估算器，alpha 不在 (0,1] 时使用默认值
func NewRateEstimator(alpha float64) *RateEstimator {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultRateAlpha
	}
	return &RateEstimator{alpha: alpha}
}

// Sample 记录一次累计计数并返回平滑速率（字节/秒）
//
// now 早于上一次采样时视为过期样本：返回当前平滑速率，不修改状态。
func (e *RateEstimator) Sample(sent, recv uint64, now time.Time) NetworkRates {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		// 首次采样没有基线
		e.state = &rateState{ts: now, sent: sent, recv: recv}
		return NetworkRates{BytesSent: sent, BytesRecv: recv}
	}

	prev := e.state
	if now.Before(prev.ts) {
		return NetworkRates{BytesSent: sent, BytesRecv: recv, UpBps: prev.upBps, DnBps: prev.dnBps}
	}

	dt := now.Sub(prev.ts)
	if dt < minRateInterval {
		dt = minRateInterval
	}
	seconds := dt.Seconds()

	instUp := float64(counterDelta(sent, prev.sent)) / seconds
	instDn := float64(counterDelta(recv, prev.recv)) / seconds

	up := e.alpha*instUp + (1-e.alpha)*prev.upBps
	dn := e.alpha*instDn + (1-e.alpha)*prev.dnBps

	e.state = &rateState{ts: now, sent: sent, recv: recv, upBps: up, dnBps: dn}

	return NetworkRates{BytesSent: sent, BytesRecv: recv, UpBps: up, DnBps: dn}
}

// Reset 清空状态，下一次采样重新作为首次采样
func (e *RateEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = nil
}

// counterDelta 计数器回绕或重置时返回 0
func counterDelta(current, previous uint64) uint64 {
	if current < previous {
		return 0
	}
	return current - previous
}
