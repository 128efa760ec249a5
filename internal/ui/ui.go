package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/droidscout/internal/analyze"
	"github.com/Dicklesworthstone/droidscout/internal/engine"
	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// Model renders live snapshots from the engine.
type Model struct {
	eng       *engine.Engine
	latest    model.Snapshot
	stream    <-chan model.Snapshot
	ctx       context.Context
	ctxCancel context.CancelFunc
	status    string
	width     int
	height    int
}

func New(eng *engine.Engine) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		eng:       eng,
		stream:    eng.Monitor(ctx),
		ctx:       ctx,
		ctxCancel: cancel,
		status:    "r: record  c: clear cache  k: kill top user RAM app  q: quit",
		width:     120,
		height:    40,
	}
}

// Messages
type (
	tickMsg   struct{}
	statusMsg string
)

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopRecording()
			m.ctxCancel()
			return m, tea.Quit
		case "r":
			return m, m.toggleRecording()
		case "c":
			m.status = "clearing cache..."
			return m, m.clearCache()
		case "k":
			return m, m.killTopUserApp()
		}
	case statusMsg:
		m.status = string(msg)
	case tickMsg:
		select {
		case snap, ok := <-m.stream:
			if ok {
				m.latest = snap
			}
		default:
		}
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) toggleRecording() tea.Cmd {
	if !m.eng.Recording() {
		id, err := m.eng.StartSession()
		if err != nil {
			m.status = "start failed: " + err.Error()
			return nil
		}
		m.status = "recording session " + id
		return nil
	}
	m.status = m.stopRecording()
	return nil
}

func (m *Model) stopRecording() string {
	if !m.eng.Recording() {
		return ""
	}
	sess, err := m.eng.StopSession()
	if err != nil {
		return "stop failed: " + err.Error()
	}
	path, err := m.eng.ExportSession(sess)
	if err != nil {
		return "export failed: " + err.Error()
	}
	return fmt.Sprintf("saved %d snapshots to %s", len(sess.Snapshots), path)
}

func (m *Model) clearCache() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		msg, err := m.eng.ClearCache(ctx)
		if err != nil {
			return statusMsg("clear cache failed: " + err.Error())
		}
		return statusMsg(msg)
	}
}

func (m *Model) killTopUserApp() tea.Cmd {
	if len(m.latest.Rankings.UserRAM) == 0 {
		m.status = "no user app to kill"
		return nil
	}
	target := m.latest.Rankings.UserRAM[0]
	ctx := m.ctx
	m.status = fmt.Sprintf("killing %s (PID %d)...", target.Name, target.PID)
	return func() tea.Msg {
		msg, err := m.eng.KillProcess(ctx, target.PID)
		if err != nil {
			return statusMsg("kill failed: " + err.Error())
		}
		return statusMsg(msg)
	}
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	hotStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	header := titleStyle.Render("Android Device Monitor") + "  " +
		subtleStyle.Render(s.Device+"  "+s.Timestamp.Format("Mon Jan 2 15:04:05 MST 2006"))
	if m.eng.Recording() {
		header += "  " + recStyle.Render("● REC")
	}

	memCard := card("Memory", "no data")
	if s.Memory.Known() && s.Memory.FreeBytes <= s.Memory.TotalBytes {
		used := s.Memory.TotalBytes - s.Memory.FreeBytes
		memCard = card("Memory",
			fmt.Sprintf("%s  %.1f/%.1f GiB",
				gaugeBar(pct(used, s.Memory.TotalBytes), 28),
				bytesToGiB(used), bytesToGiB(s.Memory.TotalBytes)))
	}

	thermalLines := make([]string, 0, len(s.Thermal))
	for _, r := range s.Thermal {
		line, hot := thermalRow(r, s.Thresholds)
		if hot {
			line = hotStyle.Render(line)
		}
		thermalLines = append(thermalLines, line)
	}
	if len(thermalLines) == 0 {
		thermalLines = append(thermalLines, "no data")
	}
	thermalCard := card("Thermal", strings.Join(thermalLines, "\n"))

	var degraded []string
	for _, d := range s.Degraded {
		degraded = append(degraded, string(d.Section))
	}
	statusCard := card("Status", fmt.Sprintf("warnings: %d\ndegraded: %s\nskipped ticks: %d",
		len(s.Warnings), orNone(strings.Join(degraded, ", ")), m.eng.Sampler().Skipped()))

	cpuTables := lipgloss.JoinHorizontal(lipgloss.Top,
		card("User CPU", renderTable(s.Rankings.UserCPU)),
		card("System CPU", renderTable(s.Rankings.SystemCPU)))
	ramTables := lipgloss.JoinHorizontal(lipgloss.Top,
		card("User RAM", renderTable(s.Rankings.UserRAM)),
		card("System RAM", renderTable(s.Rankings.SystemRAM)))

	warnLines := make([]string, 0, len(s.Warnings))
	for i, w := range s.Warnings {
		if i >= 6 {
			warnLines = append(warnLines, fmt.Sprintf("... %d more", len(s.Warnings)-i))
			break
		}
		warnLines = append(warnLines, truncate(w.Detail, m.width-6))
	}
	sections := []string{
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, memCard, thermalCard, statusCard),
		cpuTables,
		ramTables,
	}
	if len(warnLines) > 0 {
		sections = append(sections, card("Warnings", strings.Join(warnLines, "\n")))
	}
	sections = append(sections, subtleStyle.Render(m.status))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

// thermalRow formats one sensor reading and reports whether it is over its limit.
func thermalRow(r model.ThermalReading, th model.Thresholds) (string, bool) {
	return fmt.Sprintf("%-10s %5.1f°C", truncate(r.Sensor, 10), r.Celsius), analyze.HotSensor(r, th)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func renderTable(rows []model.ProcessSample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-6s %6s %8s\n", "name", "pid", "cpu", "ram MB")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-24s %-6d %6.1f %8.1f\n",
			truncate(r.Name, 24), r.PID, r.CPUPercent, r.RAMMB())
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if n <= 1 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pct(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) * 100 / float64(total)
}

func bytesToGiB(b uint64) float64 { return float64(b) / (1024 * 1024 * 1024) }

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// RunTUI starts the Bubble Tea program.
func RunTUI(eng *engine.Engine) error {
	prog := tea.NewProgram(New(eng), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
