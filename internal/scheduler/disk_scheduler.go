package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Ticker 由调度器周期性驱动的采样任务
type Ticker interface {
	Tick(ctx context.Context) error
}

// DiskScheduler 后台磁盘速率采样调度器
type DiskScheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	sampler  Ticker
	interval time.Duration
	entryID  cron.EntryID
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewDiskScheduler 创建调度器，间隔不足 1 秒时按 1 秒处理
func NewDiskScheduler(sampler Ticker, interval time.Duration, logger *zap.Logger) *DiskScheduler {
	if interval < time.Second {
		interval = time.Second
	}
	return &DiskScheduler{
		cron:     cron.New(cron.WithSeconds()), // 支持秒级调度
		sampler:  sampler,
		interval: interval,
		logger:   logger,
	}
}

// Start 启动调度器，立即采样一次作为基线
func (s *DiskScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	// 构建 cron 表达式: @every Ns
	spec := fmt.Sprintf("@every %ds", int(s.interval.Seconds()))
	entryID, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return fmt.Errorf("添加 cron 任务失败: %w", err)
	}
	s.entryID = entryID

	s.tick()
	s.cron.Start()

	s.logger.Info("启动磁盘速率采样调度器", zap.Duration("interval", s.interval))
	return nil
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *DiskScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("磁盘速率采样调度器已停止")
}

// NextRun 下次采样时间，未启动时为零值
func (s *DiskScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cron.Entry(s.entryID).Next
}

func (s *DiskScheduler) tick() {
	if err := s.sampler.Tick(s.ctx); err != nil {
		s.logger.Warn("磁盘速率采样失败", zap.Error(err))
	}
}
