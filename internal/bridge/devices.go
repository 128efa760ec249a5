package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Device is one row of `adb devices`.
type Device struct {
	Serial string
	State  string
}

// ParseDevices reads the `adb devices` listing, ignoring banners and daemon
// start-up chatter.
func ParseDevices(raw string) []Device {
	var out []Device
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		out = append(out, Device{Serial: fields[0], State: fields[1]})
	}
	return out
}

// Detect picks the device to talk to. With a serial, that device must be
// present and authorized. Without one, the first ready device is used and a
// warning is logged when several are attached.
func Detect(ctx context.Context, r Runner, serial string, timeout time.Duration, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out, err := r.Run(ctx, DevicesArgs(), timeout)
	if err != nil {
		return "", err
	}
	devices := ParseDevices(out)

	if serial != "" {
		for _, d := range devices {
			if d.Serial != serial {
				continue
			}
			if d.State != "device" {
				return "", &ExecError{Kind: ErrDeviceUnavailable, Args: DevicesArgs(), Stderr: fmt.Sprintf("device %s is %s", serial, d.State)}
			}
			return serial, nil
		}
		return "", &ExecError{Kind: ErrDeviceUnavailable, Args: DevicesArgs(), Stderr: fmt.Sprintf("device %s not attached", serial)}
	}

	var ready []string
	for _, d := range devices {
		if d.State == "device" {
			ready = append(ready, d.Serial)
		}
	}
	switch len(ready) {
	case 0:
		msg := "no device attached"
		if len(devices) > 0 {
			msg = fmt.Sprintf("device %s is %s", devices[0].Serial, devices[0].State)
		}
		return "", &ExecError{Kind: ErrDeviceUnavailable, Args: DevicesArgs(), Stderr: msg}
	case 1:
		return ready[0], nil
	default:
		logger.Warn("multiple devices attached, using the first", "serial", ready[0], "devices", len(ready))
		return ready[0], nil
	}
}
