package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dushixiang/statuspi/internal/metric"
	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/dushixiang/statuspi/internal/service"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 客户端可发送的控制消息
const resetMessage = "reset"

// RefreshOptions 刷新间隔设置(秒)
type RefreshOptions struct {
	Default int
	Min     int
}

// Clamp 解析客户端传入的刷新间隔，非法值使用默认值，过小时提升到最小值
func (o RefreshOptions) Clamp(raw string) time.Duration {
	seconds := o.Default
	if raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			seconds = v
		}
	}
	if seconds < o.Min {
		seconds = o.Min
	}
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

// SnapshotResponse /metrics 的摘要视图响应
type SnapshotResponse struct {
	Snapshot *protocol.Snapshot `json:"snapshot"`
	Summary  *metric.Summary    `json:"summary"`
}

// SnapshotHandler 快照处理器
type SnapshotHandler struct {
	logger   *zap.Logger
	service  *service.SnapshotService
	refresh  RefreshOptions
	topN     int
	upgrader websocket.Upgrader
}

// NewSnapshotHandler 创建处理器
func NewSnapshotHandler(logger *zap.Logger, service *service.SnapshotService, refresh RefreshOptions, topN int) *SnapshotHandler {
	return &SnapshotHandler{
		logger:  logger,
		service: service,
		refresh: refresh,
		topN:    topN,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// GetMetrics 采集一次快照
// GET /metrics?view=summary&top=N
func (h *SnapshotHandler) GetMetrics(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParam("view") != "summary" {
		snap, err := h.service.Snapshot(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "采集快照失败",
			})
		}
		return c.JSON(http.StatusOK, snap)
	}

	topN := h.topN
	if v, err := strconv.Atoi(c.QueryParam("top")); err == nil && v >= 0 {
		topN = v
	}
	snap, summary, err := h.service.Summary(ctx, topN)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "采集快照失败",
		})
	}
	return c.JSON(http.StatusOK, SnapshotResponse{Snapshot: snap, Summary: summary})
}

// ResetRates 重置网速平滑状态
// POST /metrics/reset
func (h *SnapshotHandler) ResetRates(c echo.Context) error {
	h.service.ResetRates()
	return c.JSON(http.StatusOK, map[string]string{
		"message": "网速平滑状态已重置",
	})
}

// Healthz 存活检查
// GET /healthz
func (h *SnapshotHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Stream 通过 WebSocket 按刷新间隔推送快照
// GET /ws?refresh=N
func (h *SnapshotHandler) Stream(c echo.Context) error {
	interval := h.refresh.Clamp(c.QueryParam("refresh"))

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("WebSocket 升级失败", zap.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// 读循环: 连接关闭时结束推送，同时处理控制消息
	go func() {
		defer cancel()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == resetMessage {
				h.service.ResetRates()
			}
		}
	}()

	h.logger.Debug("WebSocket 客户端已连接",
		zap.String("remote", c.RealIP()),
		zap.Duration("refresh", interval))

	push := func() error {
		snap, summary, err := h.service.Summary(ctx, h.topN)
		if err != nil {
			return conn.WriteJSON(map[string]string{"error": "采集快照失败"})
		}
		return conn.WriteJSON(SnapshotResponse{Snapshot: snap, Summary: summary})
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := push(); err != nil {
			if ctx.Err() == nil {
				h.logger.Debug("WebSocket 推送结束", zap.Error(err))
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
