package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// HeavyMarker is the trailing token some listings append to large memory consumers.
const HeavyMarker = "*"

// Column layout of `top -b -n 1` on toybox:
// PID USER PR NI VIRT RES SHR S %CPU %MEM TIME+ ARGS...
const (
	colPID  = 0
	colRES  = 5
	colCPU  = 8
	colName = 11

	topArity = colName + 1
)

// ProcessTable parses a process listing and returns one sample per pid plus
// the number of record lines that had to be skipped. A pid seen twice keeps
// its later row.
func ProcessTable(raw string) ([]model.ProcessSample, int) {
	rows := lines(raw)
	start := 0
	for i, line := range rows {
		if isTopHeader(line) {
			start = i + 1
			break
		}
	}

	var out []model.ProcessSample
	index := make(map[int]int)
	skips := 0
	for _, line := range rows[start:] {
		fields := strings.Fields(line)
		marked := false
		if n := len(fields); n > 0 && fields[n-1] == HeavyMarker {
			marked = true
			fields = fields[:n-1]
		}
		if len(fields) < topArity {
			// a row cut off mid-line still starts with its pid
			if len(fields) > 0 {
				if pid, err := strconv.Atoi(fields[colPID]); err == nil && pid >= 0 {
					skips++
				}
			}
			continue
		}
		pid, err := strconv.Atoi(fields[colPID])
		if err != nil || pid < 0 {
			skips++
			continue
		}
		cpu, ok := parseFloat(fields[colCPU])
		if !ok || cpu < 0 {
			skips++
			continue
		}
		ram, ok := ParseSize(fields[colRES])
		if !ok {
			skips++
			continue
		}
		sample := model.ProcessSample{
			Name:       strings.Join(fields[colName:], " "),
			PID:        pid,
			CPUPercent: cpu,
			RAMBytes:   ram,
			Marked:     marked,
		}
		if i, dup := index[pid]; dup {
			out[i] = sample
			continue
		}
		index[pid] = len(out)
		out = append(out, sample)
	}
	return out, skips
}

func isTopHeader(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && fields[0] == "PID" && strings.Contains(line, "CPU")
}

// FormatProcessTable renders samples in the layout ProcessTable reads.
func FormatProcessTable(samples []model.ProcessSample) string {
	var b strings.Builder
	b.WriteString("  PID USER         PR  NI VIRT  RES  SHR S[%CPU] %MEM     TIME+ ARGS\n")
	for _, p := range samples {
		fmt.Fprintf(&b, "%5d %-10s %3d %3d %4s %sK %4s %s %s %4.1f %9s %s",
			p.PID, "u0_a0", 20, 0, "0", strconv.FormatFloat(float64(p.RAMBytes)/1024, 'f', 3, 64),
			"0", "S", strconv.FormatFloat(p.CPUPercent, 'f', -1, 64), 0.0, "0:00.00", p.Name)
		if p.Marked {
			b.WriteString(" " + HeavyMarker)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
