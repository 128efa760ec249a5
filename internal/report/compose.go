// Package report composes snapshots and renders them as text, CSV and JSON.
package report

import (
	"time"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// Parts are the outputs of the parsers, classifier and analyzer for one tick.
type Parts struct {
	Timestamp  time.Time
	Device     string
	Processes  []model.ProcessSample
	Rankings   model.Rankings
	Thermal    model.Thermal
	Services   []model.ServiceEntry
	Memory     model.DeviceMemory
	Frames     *model.FrameStats
	Warnings   []model.Warning
	Thresholds model.Thresholds
	Degraded   []model.Degraded
	ParseSkips map[model.Section]int
}

// Compose builds a snapshot that shares no backing storage with p. Warnings
// whose subject is neither a process in the snapshot nor the device are dropped.
func Compose(p Parts) model.Snapshot {
	procs := append([]model.ProcessSample(nil), p.Processes...)
	model.SortByPID(procs)

	known := make(map[int]string, len(procs))
	for _, s := range procs {
		known[s.PID] = s.Name
	}
	warnings := make([]model.Warning, 0, len(p.Warnings))
	for _, w := range p.Warnings {
		if w.Subject == model.DeviceSubject {
			warnings = append(warnings, w)
			continue
		}
		if name, ok := known[w.PID]; ok && name == w.Subject {
			warnings = append(warnings, w)
		}
	}

	var frames *model.FrameStats
	if p.Frames != nil {
		f := *p.Frames
		frames = &f
	}
	var skips map[model.Section]int
	for sec, n := range p.ParseSkips {
		if n == 0 {
			continue
		}
		if skips == nil {
			skips = make(map[model.Section]int)
		}
		skips[sec] = n
	}
	th := p.Thresholds
	if p.Thresholds.Thermal != nil {
		th.Thermal = make(map[string]float64, len(p.Thresholds.Thermal))
		for k, v := range p.Thresholds.Thermal {
			th.Thermal[k] = v
		}
	}

	return model.Snapshot{
		Timestamp: p.Timestamp,
		Device:    p.Device,
		Processes: procs,
		Rankings: model.Rankings{
			UserCPU:   clone(p.Rankings.UserCPU),
			SystemCPU: clone(p.Rankings.SystemCPU),
			UserRAM:   clone(p.Rankings.UserRAM),
			SystemRAM: clone(p.Rankings.SystemRAM),
		},
		Thermal:    append(model.Thermal(nil), p.Thermal...),
		Services:   append([]model.ServiceEntry(nil), p.Services...),
		Memory:     p.Memory,
		Frames:     frames,
		Warnings:   warnings,
		Thresholds: th,
		Degraded:   append([]model.Degraded(nil), p.Degraded...),
		ParseSkips: skips,
	}
}

func clone(in []model.ProcessSample) []model.ProcessSample {
	return append([]model.ProcessSample(nil), in...)
}
