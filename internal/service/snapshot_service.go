package service

import (
	"context"
	"errors"

	"github.com/dushixiang/statuspi/internal/metric"
	"github.com/dushixiang/statuspi/internal/protocol"
	goerrors "github.com/go-errors/errors"
	"go.uber.org/zap"
)

// SnapshotCollector 快照采集接口
type SnapshotCollector interface {
	Collect(ctx context.Context) (*protocol.Snapshot, error)
}

// RateResetter 可重置网速平滑状态
type RateResetter interface {
	Reset()
}

// SnapshotService 快照服务
type SnapshotService struct {
	logger    *zap.Logger
	collector SnapshotCollector
	rates     RateResetter
}

// NewSnapshotService 创建快照服务
func NewSnapshotService(logger *zap.Logger, collector SnapshotCollector, rates RateResetter) *SnapshotService {
	return &SnapshotService{
		logger:    logger,
		collector: collector,
		rates:     rates,
	}
}

// Snapshot 采集一次快照
func (s *SnapshotService) Snapshot(ctx context.Context) (*protocol.Snapshot, error) {
	snap, err := s.collector.Collect(ctx)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			fields = append(fields, zap.String("stack", stackErr.ErrorStack()))
		}
		s.logger.Error("采集快照失败", fields...)
		return nil, err
	}
	return snap, nil
}

// Summary 采集快照并生成展示视图
func (s *SnapshotService) Summary(ctx context.Context, topN int) (*protocol.Snapshot, *metric.Summary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap, metric.Summarize(snap, topN), nil
}

// ResetRates 清空网速平滑状态，下一次快照速率从 0 开始
func (s *SnapshotService) ResetRates() {
	if s.rates == nil {
		return
	}
	s.rates.Reset()
	s.logger.Info("网速平滑状态已重置")
}
