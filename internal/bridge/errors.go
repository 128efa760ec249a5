package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Match with errors.Is against an *ExecError.
var (
	ErrToolNotFound      = errors.New("bridge tool not found")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrTimeout           = errors.New("bridge command timed out")
	ErrNonZeroExit       = errors.New("bridge command exited non-zero")
)

// ExecError describes a failed bridge invocation. Any output captured before
// the failure is returned alongside it by Run.
type ExecError struct {
	Kind     error
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", strings.Join(e.Args, " "), e.Kind)
	if e.Kind == ErrNonZeroExit {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if msg := firstLine(e.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	return b.String()
}

func (e *ExecError) Unwrap() error { return e.Err }

func (e *ExecError) Is(target error) bool { return target == e.Kind }

// deviceProblems are adb messages meaning the command never reached a usable device.
var deviceProblems = []string{
	"no devices/emulators found",
	"device offline",
	"device unauthorized",
	"unauthorized",
	"more than one device",
	"more than one emulator",
	"not found",
	"no device",
}

func isDeviceProblem(stderr string) bool {
	msg := strings.ToLower(stderr)
	if !strings.Contains(msg, "error:") && !strings.Contains(msg, "adb:") {
		return false
	}
	for _, p := range deviceProblems {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
