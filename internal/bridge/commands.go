package bridge

import "strconv"

// Target prefixes args with "-s serial" when a serial is set.
func Target(serial string, args ...string) []string {
	if serial == "" {
		return args
	}
	return append([]string{"-s", serial}, args...)
}

func DevicesArgs() []string { return []string{"devices"} }

// TopArgs lists every process once, in batch mode.
func TopArgs() []string { return []string{"shell", "top", "-b", "-n", "1"} }

func MeminfoArgs() []string { return []string{"shell", "dumpsys", "meminfo"} }

func ThermalArgs() []string { return []string{"shell", "dumpsys", "thermalservice"} }

func ServicesArgs() []string { return []string{"shell", "dumpsys", "activity", "services"} }

func GfxArgs(pkg string) []string { return []string{"shell", "dumpsys", "gfxinfo", pkg} }

func KillArgs(pid int) []string { return []string{"shell", "kill", strconv.Itoa(pid)} }

// TrimCachesArgs asks the package manager to trim app caches across all packages.
func TrimCachesArgs() []string { return []string{"shell", "pm", "trim-caches", "1K"} }
