package model

import "time"

// WarningKind classifies a derived warning.
type WarningKind string

const (
	WarnHeavyCPU        WarningKind = "HEAVY_CPU"
	WarnHeavyRAM        WarningKind = "HEAVY_RAM"
	WarnLowMemory       WarningKind = "LOW_MEMORY"
	WarnHighTemperature WarningKind = "HIGH_TEMPERATURE"
)

// Severity decides how a warning is presented: a hard warning or an actionable suggestion.
type Severity string

const (
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// DeviceSubject is the subject of device-wide warnings.
const DeviceSubject = "device"

// Warning is derived from a snapshot and never stored on its own.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Subject  string      `json:"subject"`
	PID      int         `json:"pid,omitempty"`
	Detail   string      `json:"detail"`
	Value    float64     `json:"measured_value"`
}

// Section names one independently collected part of a snapshot.
type Section string

const (
	SectionProcesses Section = "processes"
	SectionMemory    Section = "memory"
	SectionThermal   Section = "thermal"
	SectionServices  Section = "services"
	SectionFrames    Section = "frames"
)

// Degraded notes a section that was filled with empty or partial data.
type Degraded struct {
	Section Section `json:"section"`
	Reason  string  `json:"reason"`
}

// Thresholds are the limits a snapshot was analysed and rendered with.
type Thresholds struct {
	CPUPercent        float64            `json:"cpu_percent"`
	RAMBytes          uint64             `json:"ram_bytes"`
	LowMemoryFraction float64            `json:"low_memory_fraction"`
	Thermal           map[string]float64 `json:"thermal,omitempty"`
	TopN              int                `json:"top_n"`
	ServiceLimit      int                `json:"service_limit"`
}

// Rankings are the top-N lists per category and metric.
type Rankings struct {
	UserCPU   []ProcessSample `json:"user_cpu"`
	SystemCPU []ProcessSample `json:"system_cpu"`
	UserRAM   []ProcessSample `json:"user_ram"`
	SystemRAM []ProcessSample `json:"system_ram"`
}

// Snapshot is one composed diagnostic record. Treat it as read-only once built.
type Snapshot struct {
	Timestamp  time.Time       `json:"timestamp"`
	Device     string          `json:"device,omitempty"`
	Processes  []ProcessSample `json:"processes"`
	Rankings   Rankings        `json:"rankings"`
	Thermal    Thermal         `json:"thermal"`
	Services   []ServiceEntry  `json:"services"`
	Memory     DeviceMemory    `json:"memory"`
	Frames     *FrameStats     `json:"frames,omitempty"`
	Warnings   []Warning       `json:"warnings"`
	Thresholds Thresholds      `json:"thresholds"`
	Degraded   []Degraded      `json:"degraded,omitempty"`
	ParseSkips map[Section]int `json:"parse_skips,omitempty"`
}

// IsDegraded reports whether sec failed to collect cleanly.
func (s Snapshot) IsDegraded(sec Section) bool {
	for _, d := range s.Degraded {
		if d.Section == sec {
			return true
		}
	}
	return false
}

// Process finds a sample by pid.
func (s Snapshot) Process(pid int) (ProcessSample, bool) {
	for _, p := range s.Processes {
		if p.PID == pid {
			return p, true
		}
	}
	return ProcessSample{}, false
}

// WarningsOf returns warnings of one kind in snapshot order.
func (s Snapshot) WarningsOf(kind WarningKind) []Warning {
	var out []Warning
	for _, w := range s.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// Session is an ordered, recorded run of snapshots.
type Session struct {
	ID        string     `json:"id"`
	Device    string     `json:"device,omitempty"`
	Started   time.Time  `json:"started"`
	Stopped   time.Time  `json:"stopped"`
	Snapshots []Snapshot `json:"snapshots"`
}
