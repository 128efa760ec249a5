package model

import "sort"

// Category splits processes into apps the user installed and platform/vendor processes.
type Category string

const (
	CategoryUser   Category = "USER"
	CategorySystem Category = "SYSTEM"
)

const bytesPerMB = 1024 * 1024

// ProcessSample is one parsed process row.
type ProcessSample struct {
	Name       string   `json:"name"`
	PID        int      `json:"pid"`
	CPUPercent float64  `json:"cpu_percent"`
	RAMBytes   uint64   `json:"ram_bytes"`
	Category   Category `json:"category"`
	// Marked is set when the source line carried the trailing large-consumer marker.
	Marked bool `json:"marked,omitempty"`
}

// RAMMB returns RAM usage in MiB.
func (p ProcessSample) RAMMB() float64 { return float64(p.RAMBytes) / bytesPerMB }

// MBToBytes converts MiB to bytes.
func MBToBytes(mb float64) uint64 {
	if mb <= 0 {
		return 0
	}
	return uint64(mb * bytesPerMB)
}

// ThermalReading is a single sensor temperature in Celsius.
type ThermalReading struct {
	Sensor  string  `json:"sensor"`
	Celsius float64 `json:"celsius"`
}

// Thermal holds one reading per sensor in first-seen order.
type Thermal []ThermalReading

// Get looks up a sensor by name.
func (t Thermal) Get(sensor string) (ThermalReading, bool) {
	for _, r := range t {
		if r.Sensor == sensor {
			return r, true
		}
	}
	return ThermalReading{}, false
}

// Set replaces the reading for an existing sensor or appends a new one.
func (t Thermal) Set(r ThermalReading) Thermal {
	for i := range t {
		if t[i].Sensor == r.Sensor {
			t[i] = r
			return t
		}
	}
	return append(t, r)
}

// Map returns the readings keyed by sensor name.
func (t Thermal) Map() map[string]float64 {
	m := make(map[string]float64, len(t))
	for _, r := range t {
		m[r.Sensor] = r.Celsius
	}
	return m
}

// ServiceEntry is an opaque "package/component" identifier.
type ServiceEntry string

// DeviceMemory is the device-wide RAM summary; zero TotalBytes means unknown.
type DeviceMemory struct {
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

func (m DeviceMemory) Known() bool { return m.TotalBytes > 0 }

// FreeFraction is FreeBytes/TotalBytes, or 1 when the total is unknown.
func (m DeviceMemory) FreeFraction() float64 {
	if m.TotalBytes == 0 {
		return 1
	}
	return float64(m.FreeBytes) / float64(m.TotalBytes)
}

// FrameStats summarises frame rendering times for one package.
type FrameStats struct {
	Package     string  `json:"package"`
	AvgFrameMS  float64 `json:"avg_frame_time_ms"`
	JankFrames  int     `json:"jank_frames"`
	TotalFrames int     `json:"total_frames"`
}

// SortByPID orders samples by ascending pid in place.
func SortByPID(samples []ProcessSample) {
	sort.Slice(samples, func(i, j int) bool { return samples[i].PID < samples[j].PID })
}
