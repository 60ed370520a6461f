package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dushixiang/statuspi/internal/metric"
	"github.com/dushixiang/statuspi/internal/protocol"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(10)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)

	powerStyles = map[string]lipgloss.Style{
		protocol.PowerLevelOK:      lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		protocol.PowerLevelWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		protocol.PowerLevelBad:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		protocol.PowerLevelUnknown: subtleStyle,
	}
)

const (
	gaugeFill  = "█"
	gaugeEmpty = "░"
)

// Render 渲染快照摘要，供 watch 界面和 snapshot 命令共用
func Render(snap *protocol.Snapshot, s *metric.Summary) string {
	header := titleStyle.Render(s.Model) + "  " +
		subtleStyle.Render(snap.Timestamp.Format(time.DateTime)+"  up "+s.Uptime)
	system := subtleStyle.Render(s.Hostname + " · " + s.System)

	cpuCard := card("CPU",
		gaugeBar(snap.CPU.UsagePercent, 24),
		row("usage", s.CPU),
		row("load", s.Load),
		row("temp", s.Temp))

	memCard := card("Memory",
		gaugeBar(snap.Memory.Percent, 24),
		row("ram", s.Memory),
		row("swap", s.Swap),
		row("disk", s.DiskText))

	netCard := card("Network",
		row("link", s.Connection),
		row("wifi", s.Wifi),
		row("up/down", s.Network.UpRate+" / "+s.Network.DownRate),
		row("lan", s.LanIP),
		row("external", s.ExternalIP),
		row("router", s.RouterIP+" ("+s.Router+")"),
		row("internet", s.Internet))

	powerStyle, ok := powerStyles[s.PowerLevel]
	if !ok {
		powerStyle = subtleStyle
	}
	powerCard := card("Power", powerStyle.Render(s.Power))

	disks := make([]string, 0, len(snap.Disks))
	for _, d := range snap.Disks {
		disks = append(disks, fmt.Sprintf("%-14s %s", truncate(d.Mount, 14), gaugeBar(d.Percent, 12)))
	}
	if len(disks) == 0 {
		disks = append(disks, subtleStyle.Render("no disks"))
	}
	diskCard := card("Disks", disks...)

	line1 := lipgloss.JoinHorizontal(lipgloss.Top, cpuCard, memCard, powerCard)
	line2 := lipgloss.JoinHorizontal(lipgloss.Top, netCard, diskCard)
	procCard := card("Processes", renderProcesses(s.Processes))

	return lipgloss.JoinVertical(lipgloss.Left, header, system, line1, line2, procCard)
}

func card(title string, lines ...string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
}

func row(key, value string) string {
	return keyStyle.Render(key) + value
}

func gaugeBar(pct float64, width int) string {
	pct = max(0, min(pct, 100))
	filled := min(int(pct/100*float64(width)), width)
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func renderProcesses(procs []metric.ProcessLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-7s %-20s %7s %7s %10s %10s", "pid", "name", "cpu", "mem", "read", "write")
	for _, p := range procs {
		fmt.Fprintf(&b, "\n%-7d %-20s %7s %7s %10s %10s",
			p.PID, truncate(p.Name, 20), p.CPU, p.Mem, p.Read, p.Write)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
