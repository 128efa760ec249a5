package bridge

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// killTree kills pid and everything it spawned, children first. adb may fork
// a helper that would otherwise outlive a timed-out call.
func killTree(pid int) error {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		if isProcessMissing(err) {
			return nil
		}
		return err
	}
	if children, err := proc.Children(); err == nil {
		for _, child := range children {
			_ = killTree(int(child.Pid))
		}
	}
	if err := proc.Kill(); err != nil && !isProcessMissing(err) {
		return err
	}
	return nil
}

func isProcessMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such process") ||
		strings.Contains(msg, "process does not exist") ||
		strings.Contains(msg, "process already finished") ||
		strings.Contains(msg, "not found")
}
