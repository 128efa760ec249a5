// Package analyze derives warnings from classified samples and device state.
package analyze

import (
	"fmt"
	"sort"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// Input is everything the analyzer looks at for one snapshot.
type Input struct {
	Processes []model.ProcessSample
	Memory    model.DeviceMemory
	Thermal   model.Thermal
}

// Analyze returns warnings in a stable order: heavy CPU (by CPU desc), heavy
// RAM (by RAM desc), hot sensors (sensor order), then low memory. A value
// equal to its threshold counts as crossing it. An empty result is normal.
func Analyze(in Input, th model.Thresholds) []model.Warning {
	var warnings []model.Warning

	heavyCPU := filter(in.Processes, func(p model.ProcessSample) bool {
		return th.CPUPercent > 0 && p.CPUPercent >= th.CPUPercent
	})
	sort.SliceStable(heavyCPU, func(i, j int) bool {
		if heavyCPU[i].CPUPercent != heavyCPU[j].CPUPercent {
			return heavyCPU[i].CPUPercent > heavyCPU[j].CPUPercent
		}
		return heavyCPU[i].PID < heavyCPU[j].PID
	})
	for _, p := range heavyCPU {
		warnings = append(warnings, cpuWarning(p))
	}

	heavyRAM := filter(in.Processes, func(p model.ProcessSample) bool { return HeavyRAM(p, th) })
	sort.SliceStable(heavyRAM, func(i, j int) bool {
		if heavyRAM[i].RAMBytes != heavyRAM[j].RAMBytes {
			return heavyRAM[i].RAMBytes > heavyRAM[j].RAMBytes
		}
		return heavyRAM[i].PID < heavyRAM[j].PID
	})
	for _, p := range heavyRAM {
		warnings = append(warnings, ramWarning(p))
	}

	for _, r := range in.Thermal {
		if HotSensor(r, th) {
			warnings = append(warnings, model.Warning{
				Kind:     model.WarnHighTemperature,
				Severity: model.SeverityWarning,
				Subject:  model.DeviceSubject,
				Detail:   fmt.Sprintf("%s temperature is high (%.1f°C). Consider letting your device cool down.", r.Sensor, r.Celsius),
				Value:    r.Celsius,
			})
		}
	}

	if in.Memory.Known() && th.LowMemoryFraction > 0 && in.Memory.FreeFraction() < th.LowMemoryFraction {
		freeMB := float64(in.Memory.FreeBytes) / (1024 * 1024)
		totalMB := float64(in.Memory.TotalBytes) / (1024 * 1024)
		warnings = append(warnings, model.Warning{
			Kind:     model.WarnLowMemory,
			Severity: model.SeverityWarning,
			Subject:  model.DeviceSubject,
			Detail:   fmt.Sprintf("Device memory is low (%.0f MB free of %.0f MB). Consider closing background apps.", freeMB, totalMB),
			Value:    freeMB,
		})
	}
	return warnings
}

// HotSensor reports whether r meets its configured limit.
func HotSensor(r model.ThermalReading, th model.Thresholds) bool {
	limit, ok := th.Thermal[r.Sensor]
	return ok && limit > 0 && r.Celsius >= limit
}

// HeavyRAM reports whether p meets the RAM threshold.
func HeavyRAM(p model.ProcessSample, th model.Thresholds) bool {
	return th.RAMBytes > 0 && p.RAMBytes >= th.RAMBytes
}

func cpuWarning(p model.ProcessSample) model.Warning {
	w := model.Warning{Kind: model.WarnHeavyCPU, Subject: p.Name, PID: p.PID, Value: p.CPUPercent}
	if p.Category == model.CategorySystem {
		w.Severity = model.SeverityWarning
		w.Detail = fmt.Sprintf("System process %s is using high CPU (%.1f%%). This may indicate OS or hardware issues.", p.Name, p.CPUPercent)
	} else {
		w.Severity = model.SeveritySuggestion
		w.Detail = fmt.Sprintf("App %s is using a lot of CPU. Consider force-stopping or uninstalling if not needed.", p.Name)
	}
	return w
}

func ramWarning(p model.ProcessSample) model.Warning {
	w := model.Warning{Kind: model.WarnHeavyRAM, Subject: p.Name, PID: p.PID, Value: p.RAMMB()}
	if p.Category == model.CategorySystem {
		w.Severity = model.SeverityWarning
		w.Detail = fmt.Sprintf("System process %s is using high RAM (%.1f MB).", p.Name, p.RAMMB())
	} else {
		w.Severity = model.SeveritySuggestion
		w.Detail = fmt.Sprintf("App %s is using a lot of RAM. Consider force-stopping or uninstalling if not needed.", p.Name)
	}
	return w
}

func filter(in []model.ProcessSample, keep func(model.ProcessSample) bool) []model.ProcessSample {
	var out []model.ProcessSample
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
