package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

var (
	rssRow     = regexp.MustCompile(`^\s*([\d,]+)K: (.+?) \(pid (\d+)(?: /.+)?\)`)
	totalRAM   = regexp.MustCompile(`^\s*Total RAM:\s*([\d,]+)K`)
	freeRAM    = regexp.MustCompile(`^\s*Free RAM:\s*([\d,]+)K`)
	rssHeaders = []string{"Total RSS by process:", "Total PSS by process:"}
)

// MemInfo is what `dumpsys meminfo` yields: resident size per pid and the
// device-wide RAM summary.
type MemInfo struct {
	RSS    map[int]uint64
	Names  map[int]string
	Device model.DeviceMemory
}

// ParseMemInfo reads the first per-process RSS (or PSS) section and the
// Total/Free RAM summary lines.
func ParseMemInfo(raw string) (MemInfo, int) {
	info := MemInfo{RSS: make(map[int]uint64), Names: make(map[int]string)}
	skips := 0
	inSection, sectionDone := false, false
	for _, line := range lines(raw) {
		if m := totalRAM.FindStringSubmatch(line); m != nil {
			if v, ok := parseKB(m[1]); ok {
				info.Device.TotalBytes = v
			}
			continue
		}
		if m := freeRAM.FindStringSubmatch(line); m != nil {
			if v, ok := parseKB(m[1]); ok {
				info.Device.FreeBytes = v
			}
			continue
		}
		if sectionDone {
			continue
		}
		if !inSection {
			for _, h := range rssHeaders {
				if strings.Contains(line, h) {
					inSection = true
				}
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			inSection, sectionDone = false, true
			continue
		}
		m := rssRow.FindStringSubmatch(line)
		if m == nil {
			skips++
			continue
		}
		ram, ok := parseKB(m[1])
		pid, err := strconv.Atoi(m[3])
		if !ok || err != nil {
			skips++
			continue
		}
		info.RSS[pid] = ram
		info.Names[pid] = m[2]
	}
	return info, skips
}

// ApplyRSS overrides the RAM figure of every sample whose pid has an RSS row.
// Truncated top names ("com.google.andr+") are replaced with the full name.
func ApplyRSS(samples []model.ProcessSample, info MemInfo) []model.ProcessSample {
	out := make([]model.ProcessSample, len(samples))
	for i, s := range samples {
		if ram, ok := info.RSS[s.PID]; ok {
			s.RAMBytes = ram
			if name := info.Names[s.PID]; name != "" && strings.HasSuffix(s.Name, "+") {
				s.Name = name
			}
		}
		out[i] = s
	}
	return out
}
