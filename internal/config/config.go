package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// Config carries runtime options for droidscout.
type Config struct {
	ADBPath           string             `yaml:"adb_path"`
	Serial            string             `yaml:"serial"`
	Interval          time.Duration      `yaml:"interval"`
	CommandTimeout    time.Duration      `yaml:"command_timeout"`
	MeminfoTimeout    time.Duration      `yaml:"meminfo_timeout"`
	ClearCacheTimeout time.Duration      `yaml:"clear_cache_timeout"`
	TopN              int                `yaml:"top_n"`
	ServiceLimit      int                `yaml:"service_limit"`
	CPUThreshold      float64            `yaml:"cpu_threshold"`
	RAMThresholdMB    float64            `yaml:"ram_threshold_mb"`
	LowMemoryFraction float64            `yaml:"low_memory_fraction"`
	ThermalLimits     map[string]float64 `yaml:"thermal_limits"`
	RulesFile         string             `yaml:"rules_file"`
	TargetPackage     string             `yaml:"target_package"`
	OutDir            string             `yaml:"out_dir"`
	ExportFormat      string             `yaml:"export_format"`
	LogLevel          string             `yaml:"log_level"`
}

func Default() Config {
	return Config{
		ADBPath:           "adb",
		Interval:          time.Second,
		CommandTimeout:    10 * time.Second,
		MeminfoTimeout:    20 * time.Second,
		ClearCacheTimeout: 20 * time.Second,
		TopN:              5,
		ServiceLimit:      10,
		CPUThreshold:      50.0,
		RAMThresholdMB:    300,
		LowMemoryFraction: 0.10,
		ThermalLimits:     map[string]float64{"AP": 50, "BAT": 45, "SKIN": 40},
		OutDir:            ".",
		ExportFormat:      "json",
		LogLevel:          "info",
	}
}

// Thresholds converts the analysis limits into the snapshot form.
func (c Config) Thresholds() model.Thresholds {
	thermal := make(map[string]float64, len(c.ThermalLimits))
	for k, v := range c.ThermalLimits {
		thermal[k] = v
	}
	return model.Thresholds{
		CPUPercent:        c.CPUThreshold,
		RAMBytes:          model.MBToBytes(c.RAMThresholdMB),
		LowMemoryFraction: c.LowMemoryFraction,
		Thermal:           thermal,
		TopN:              c.TopN,
		ServiceLimit:      c.ServiceLimit,
	}
}

// Validate rejects settings the collector cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Interval <= 0:
		return fmt.Errorf("interval must be positive")
	case c.CommandTimeout <= 0 || c.MeminfoTimeout <= 0 || c.ClearCacheTimeout <= 0:
		return fmt.Errorf("timeouts must be positive")
	case c.TopN <= 0:
		return fmt.Errorf("top-n must be positive")
	case c.ServiceLimit <= 0:
		return fmt.Errorf("service limit must be positive")
	case c.CPUThreshold <= 0:
		return fmt.Errorf("cpu threshold must be positive")
	case c.RAMThresholdMB <= 0:
		return fmt.Errorf("ram threshold must be positive")
	case c.LowMemoryFraction < 0 || c.LowMemoryFraction >= 1:
		return fmt.Errorf("low memory fraction must be in [0,1)")
	}
	switch strings.ToLower(c.ExportFormat) {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown export format %q", c.ExportFormat)
	}
	return nil
}

// LoadFile overlays a YAML file onto base. Keys missing from the file keep
// their base value.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// FromFlags builds the config: defaults, then the -config file, then
// DROIDSCOUT_* environment overrides, then flags.
func FromFlags(name string, args []string) (Config, error) {
	cfg := Default()
	var path string

	// first pass only locates -config
	probe := flag.NewFlagSet(name, flag.ContinueOnError)
	probe.SetOutput(io.Discard)
	bind(probe, &Config{}, &path)
	_ = probe.Parse(args)

	if path != "" {
		loaded, err := LoadFile(path, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	applyEnv(&cfg)

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	bind(fs, &cfg, &path)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func bind(fs *flag.FlagSet, cfg *Config, path *string) {
	fs.StringVar(path, "config", *path, "YAML config file")
	fs.StringVar(&cfg.ADBPath, "adb", cfg.ADBPath, "path to the adb executable")
	fs.StringVar(&cfg.Serial, "serial", cfg.Serial, "device serial (default: first attached device)")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "collection interval")
	fs.DurationVar(&cfg.CommandTimeout, "timeout", cfg.CommandTimeout, "per-command timeout")
	fs.IntVar(&cfg.TopN, "top", cfg.TopN, "processes per top list")
	fs.IntVar(&cfg.ServiceLimit, "services", cfg.ServiceLimit, "running services to list")
	fs.Float64Var(&cfg.CPUThreshold, "cpu-threshold", cfg.CPUThreshold, "heavy CPU threshold in percent")
	fs.Float64Var(&cfg.RAMThresholdMB, "ram-threshold", cfg.RAMThresholdMB, "heavy RAM threshold in MB")
	fs.Float64Var(&cfg.LowMemoryFraction, "low-memory", cfg.LowMemoryFraction, "free RAM fraction below which the device is low on memory")
	fs.StringVar(&cfg.RulesFile, "rules", cfg.RulesFile, "YAML classification rule table")
	fs.StringVar(&cfg.TargetPackage, "target", cfg.TargetPackage, "package to collect frame stats for")
	fs.StringVar(&cfg.OutDir, "outdir", cfg.OutDir, "directory for reports and session exports")
	fs.StringVar(&cfg.ExportFormat, "export", cfg.ExportFormat, "session export format: json|sqlite")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DROIDSCOUT_ADB"); v != "" {
		cfg.ADBPath = v
	}
	if v := os.Getenv("ANDROID_SERIAL"); v != "" {
		cfg.Serial = v
	}
	if v := os.Getenv("DROIDSCOUT_SERIAL"); v != "" {
		cfg.Serial = v
	}
	if v := os.Getenv("DROIDSCOUT_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		}
	}
	if v := os.Getenv("DROIDSCOUT_CPU_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.CPUThreshold = f
		}
	}
	if v := os.Getenv("DROIDSCOUT_RAM_THRESHOLD_MB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RAMThresholdMB = f
		}
	}
	if v := os.Getenv("DROIDSCOUT_RULES"); v != "" {
		cfg.RulesFile = v
	}
	if v := os.Getenv("DROIDSCOUT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
