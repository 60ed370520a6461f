package collector

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// BytesToHuman 二进制单位，例如 1.5 GiB
func BytesToHuman(n uint64) string {
	return humanize.IBytes(n)
}

// RateToHuman 每秒字节数，例如 12 KiB/s
func RateToHuman(bps float64) string {
	if bps < 0 {
		bps = 0
	}
	return humanize.IBytes(uint64(bps)) + "/s"
}

// UptimeToHuman 例如 3d 4h 12m；秒数为零且有更大单位时省略秒
func UptimeToHuman(seconds uint64) string {
	const (
		minute = 60
		hour   = 60 * minute
		day    = 24 * hour
		year   = 365 * day
	)

	years, rem := seconds/year, seconds%year
	days, rem := rem/day, rem%day
	hours, rem := rem/hour, rem%hour
	minutes, secs := rem/minute, rem%minute

	var parts []string
	for _, p := range []struct {
		v    uint64
		unit string
	}{{years, "y"}, {days, "d"}, {hours, "h"}, {minutes, "m"}} {
		if p.v > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", p.v, p.unit))
		}
	}
	if len(parts) == 0 || secs > 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}
