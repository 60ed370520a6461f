package collector

import (
	"fmt"

	"github.com/dushixiang/statuspi/internal/protocol"
)

// get_throttled 位定义
const (
	bitUndervoltage        = 1 << 0
	bitFreqCapped          = 1 << 1
	bitThrottled           = 1 << 2
	bitUndervoltageHistory = 1 << 16
	bitFreqCappedHistory   = 1 << 17
	bitThrottledHistory    = 1 << 18
)

// DecodePowerFlags 解码 get_throttled 位掩码
func DecodePowerFlags(value uint32) *protocol.PowerFlags {
	return &protocol.PowerFlags{
		Raw:                 fmt.Sprintf("0x%x", value),
		Value:               value,
		Undervoltage:        value&bitUndervoltage != 0,
		FreqCapped:          value&bitFreqCapped != 0,
		Throttled:           value&bitThrottled != 0,
		UndervoltageHistory: value&bitUndervoltageHistory != 0,
		FreqCappedHistory:   value&bitFreqCappedHistory != 0,
		ThrottledHistory:    value&bitThrottledHistory != 0,
	}
}

// PowerStatusFromFlags 当前异常 > 历史告警 > 正常，flags 为空表示探测不可用
func PowerStatusFromFlags(flags *protocol.PowerFlags) protocol.PowerStatus {
	if flags == nil {
		return protocol.PowerStatus{
			Level:   protocol.PowerLevelUnknown,
			Message: "Power info not available",
		}
	}

	if flags.Undervoltage || flags.Throttled {
		return protocol.PowerStatus{
			Level:   protocol.PowerLevelBad,
			Message: "Undervoltage / throttled NOW - check PSU or cable",
		}
	}

	if flags.FreqCapped || flags.UndervoltageHistory || flags.FreqCappedHistory || flags.ThrottledHistory {
		return protocol.PowerStatus{
			Level:   protocol.PowerLevelWarn,
			Message: "Power issue occurred in the past",
		}
	}

	return protocol.PowerStatus{
		Level:   protocol.PowerLevelOK,
		Message: "Power OK",
	}
}
