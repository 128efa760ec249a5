package parse

import (
	"strings"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// JankFrameMS is the 60Hz frame budget; slower frames count as janky.
const JankFrameMS = 16.67

// FrameStats reads the "Profile data in ms:" block of `dumpsys gfxinfo`.
// Rows carry three (older) or four (newer) per-stage timings that sum to the
// frame time.
func FrameStats(pkg, raw string) (model.FrameStats, int) {
	stats := model.FrameStats{Package: pkg}
	skips := 0
	inSection := false
	var total float64
	for _, line := range lines(raw) {
		if strings.Contains(line, "Profile data in ms:") {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if stats.TotalFrames > 0 {
				break
			}
			continue
		}
		if len(fields) != 3 && len(fields) != 4 {
			continue
		}
		if _, numeric := parseFloat(fields[0]); !numeric {
			// column header or package name line
			continue
		}
		var frame float64
		ok := true
		for _, f := range fields {
			v, good := parseFloat(f)
			if !good {
				ok = false
				break
			}
			frame += v
		}
		if !ok {
			skips++
			continue
		}
		total += frame
		stats.TotalFrames++
		if frame > JankFrameMS {
			stats.JankFrames++
		}
	}
	if stats.TotalFrames > 0 {
		stats.AvgFrameMS = total / float64(stats.TotalFrames)
	}
	return stats, skips
}
