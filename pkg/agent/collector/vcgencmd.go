package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dushixiang/statuspi/internal/protocol"
	"github.com/spf13/afero"
)

const (
	vcgencmd        = "vcgencmd"
	thermalZonePath = "/sys/class/thermal/thermal_zone0/temp"
)

// BoardCollector 树莓派固件探针（温度与供电状态）
type BoardCollector struct {
	runner Runner
	fs     afero.Fs
}

// NewBoardCollector 创建固件探针
func NewBoardCollector(runner Runner, fs afero.Fs) *BoardCollector {
	return &BoardCollector{
		runner: runner,
		fs:     fs,
	}
}

// Temperature 优先使用 vcgencmd measure_temp，失败时读取 thermal_zone0
func (c *BoardCollector) Temperature(ctx context.Context) *float64 {
	out, err := runIfPresent(ctx, c.runner, vcgencmd, "measure_temp")
	if err == nil {
		if temp, ok := parseMeasureTemp(out); ok {
			return &temp
		}
	}
	slog.Debug("vcgencmd measure_temp 不可用，尝试 thermal zone", "error", err)

	data, err := afero.ReadFile(c.fs, thermalZonePath)
	if err != nil {
		return nil
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return nil
	}
	temp := milli / 1000
	return &temp
}

// Power 读取 get_throttled 并给出电源状态
func (c *BoardCollector) Power(ctx context.Context) protocol.PowerInfo {
	var flags *protocol.PowerFlags

	out, err := runIfPresent(ctx, c.runner, vcgencmd, "get_throttled")
	if err == nil {
		if value, err := parseThrottled(out); err == nil {
			flags = DecodePowerFlags(value)
		} else {
			slog.Debug("解析 get_throttled 输出失败", "output", out, "error", err)
		}
	}

	return protocol.PowerInfo{
		Flags:  flags,
		Status: PowerStatusFromFlags(flags),
	}
}

// parseMeasureTemp 解析形如 temp=48.3'C 的输出
func parseMeasureTemp(out string) (float64, bool) {
	out = strings.TrimSpace(out)
	if !strings.HasPrefix(out, "temp=") || !strings.HasSuffix(out, "'C") {
		return 0, false
	}
	value, err := strconv.ParseFloat(out[len("temp="):len(out)-len("'C")], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// parseThrottled 解析形如 throttled=0x50005 的输出
func parseThrottled(out string) (uint32, error) {
	_, raw, ok := strings.Cut(strings.TrimSpace(out), "=")
	if !ok {
		return 0, fmt.Errorf("unexpected get_throttled output: %q", out)
	}
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(value), nil
}
