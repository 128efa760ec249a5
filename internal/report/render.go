package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/droidscout/internal/analyze"
	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// RAMMarker flags RAM rows at or above the RAM threshold.
const RAMMarker = "*"

// Render writes the canonical text report for s. Empty sections keep their
// header so the layout is stable for anything reading the file.
func Render(s model.Snapshot) string {
	th := s.Thresholds
	n := th.TopN
	var b strings.Builder

	b.WriteString("=== ANDROID DIAGNOSTIC REPORT ===\n\n")

	fmt.Fprintf(&b, "Top %d User CPU Processes:\n", n)
	writeCPURows(&b, s.Rankings.UserCPU)
	fmt.Fprintf(&b, "Top %d System CPU Processes:\n", n)
	writeCPURows(&b, s.Rankings.SystemCPU)
	fmt.Fprintf(&b, "Top %d User RAM Apps:\n", n)
	writeRAMRows(&b, s.Rankings.UserRAM, th)
	fmt.Fprintf(&b, "Top %d System RAM Apps:\n", n)
	writeRAMRows(&b, s.Rankings.SystemRAM, th)

	b.WriteString("\nThermal Sensors:\n")
	for _, r := range s.Thermal {
		fmt.Fprintf(&b, "  %s: %.1f°C", r.Sensor, r.Celsius)
		if analyze.HotSensor(r, th) {
			b.WriteString(" [HIGH]")
		}
		b.WriteByte('\n')
	}

	if s.Frames != nil {
		fmt.Fprintf(&b, "\nFrame Rendering Stats for %s:\n", s.Frames.Package)
		if s.Frames.TotalFrames > 0 {
			fmt.Fprintf(&b, "  Avg Frame Time: %.2f ms\n", s.Frames.AvgFrameMS)
			fmt.Fprintf(&b, "  Janky Frames (>16.67ms): %d / %d\n", s.Frames.JankFrames, s.Frames.TotalFrames)
		} else {
			b.WriteString("  No frame data found.\n")
		}
	}

	fmt.Fprintf(&b, "\nRunning Services (first %d):\n", th.ServiceLimit)
	for _, svc := range s.Services {
		fmt.Fprintf(&b, "  %s\n", svc)
	}

	fmt.Fprintf(&b, "\nHeavy CPU Processes (>=%.1f%%):\n", th.CPUPercent)
	for _, w := range s.WarningsOf(model.WarnHeavyCPU) {
		fmt.Fprintf(&b, "  %s (PID %d): %.1f%% CPU\n", w.Subject, w.PID, w.Value)
	}
	fmt.Fprintf(&b, "Heavy RAM Apps (>=%sMB):\n", formatMB(th.RAMBytes))
	for _, w := range s.WarningsOf(model.WarnHeavyRAM) {
		fmt.Fprintf(&b, "  %s (PID %d): %.1f MB RAM\n", w.Subject, w.PID, w.Value)
	}

	b.WriteString("\n=== DIAGNOSTIC WARNINGS & SUGGESTIONS ===\n")
	for _, w := range s.Warnings {
		if w.Severity == model.SeverityWarning {
			fmt.Fprintf(&b, "Warning: %s\n", w.Detail)
		}
	}
	for _, w := range s.Warnings {
		if w.Severity == model.SeveritySuggestion {
			fmt.Fprintf(&b, "Suggestion: %s\n", w.Detail)
		}
	}

	b.WriteString("\n=== END OF REPORT ===\n")
	return b.String()
}

func writeCPURows(b *strings.Builder, rows []model.ProcessSample) {
	for _, p := range rows {
		fmt.Fprintf(b, "  %s (PID %d): %.1f%% CPU\n", p.Name, p.PID, p.CPUPercent)
	}
}

func writeRAMRows(b *strings.Builder, rows []model.ProcessSample, th model.Thresholds) {
	for _, p := range rows {
		fmt.Fprintf(b, "  %s (PID %d): %.1f MB RAM", p.Name, p.PID, p.RAMMB())
		if analyze.HeavyRAM(p, th) {
			b.WriteString(" " + RAMMarker)
		}
		b.WriteByte('\n')
	}
}

func formatMB(bytes uint64) string {
	return strconv.FormatFloat(float64(bytes)/(1024*1024), 'f', -1, 64)
}
