package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dushixiang/statuspi/internal/metric"
	"github.com/dushixiang/statuspi/internal/protocol"
)

// Source 快照来源
type Source interface {
	Summary(ctx context.Context, topN int) (*protocol.Snapshot, *metric.Summary, error)
	ResetRates()
}

// Model watch 界面
type Model struct {
	source   Source
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
	minimum  time.Duration
	topN     int

	snap    *protocol.Snapshot
	summary *metric.Summary
	err     error
	loading bool
	width   int
}

// New 创建界面模型，interval 不会低于 minimum
func New(source Source, interval, minimum time.Duration, topN int) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		source:   source,
		ctx:      ctx,
		cancel:   cancel,
		interval: max(interval, minimum),
		minimum:  minimum,
		topN:     topN,
		loading:  true,
		width:    120,
	}
}

// Messages
type (
	tickMsg     struct{}
	snapshotMsg struct {
		snap    *protocol.Snapshot
		summary *metric.Summary
		err     error
	}
)

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		snap, summary, err := m.source.Summary(m.ctx, m.topN)
		return snapshotMsg{snap: snap, summary: summary, err: err}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Init() tea.Cmd { return m.fetch() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "r":
			m.source.ResetRates()
		case "+":
			m.interval += time.Second
		case "-":
			m.interval = max(m.interval-time.Second, m.minimum)
		}
	case tickMsg:
		m.loading = true
		return m, m.fetch()
	case snapshotMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.snap, m.summary = msg.snap, msg.summary
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) View() string {
	footer := subtleStyle.Render(fmt.Sprintf("refresh %s · +/- change · r reset rates · q quit", m.interval))
	if m.loading {
		footer += subtleStyle.Render(" · sampling…")
	}

	body := subtleStyle.Render("collecting first snapshot…")
	if m.summary != nil {
		body = Render(m.snap, m.summary)
	}
	if m.err != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, errorStyle.Render("error: "+m.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

// Run 启动 watch 界面
func Run(source Source, interval, minimum time.Duration, topN int) error {
	prog := tea.NewProgram(New(source, interval, minimum, topN), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
