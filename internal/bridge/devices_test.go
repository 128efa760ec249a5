package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

type stubRunner struct {
	out  string
	err  error
	args [][]string
}

func (s *stubRunner) Run(_ context.Context, args []string, _ time.Duration) (string, error) {
	s.args = append(s.args, args)
	return s.out, s.err
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestParseDevices(t *testing.T) {
	raw := "* daemon not running; starting now at tcp:5037\n* daemon started successfully\nList of devices attached\nR58M123ABC\tdevice\nemulator-5554\toffline\n\n"
	got := ParseDevices(raw)
	want := []Device{{Serial: "R58M123ABC", State: "device"}, {Serial: "emulator-5554", State: "offline"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		serial  string
		want    string
		wantErr error
	}{
		{"single", "List of devices attached\nR58M\tdevice\n", "", "R58M", nil},
		{"first of many", "List of devices attached\nAAA\tdevice\nBBB\tdevice\n", "", "AAA", nil},
		{"skip offline", "List of devices attached\nAAA\toffline\nBBB\tdevice\n", "", "BBB", nil},
		{"configured", "List of devices attached\nAAA\tdevice\nBBB\tdevice\n", "BBB", "BBB", nil},
		{"none", "List of devices attached\n\n", "", "", ErrDeviceUnavailable},
		{"unauthorized", "List of devices attached\nAAA\tunauthorized\n", "", "", ErrDeviceUnavailable},
		{"configured missing", "List of devices attached\nAAA\tdevice\n", "ZZZ", "", ErrDeviceUnavailable},
		{"configured offline", "List of devices attached\nAAA\toffline\n", "AAA", "", ErrDeviceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &stubRunner{out: tc.listing}
			got, err := Detect(context.Background(), r, tc.serial, time.Second, quietLogger())
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q, %v; want %q", got, err, tc.want)
			}
			if !reflect.DeepEqual(r.args[0], DevicesArgs()) {
				t.Fatalf("unexpected args %v", r.args[0])
			}
		})
	}
}

func TestDetect_RunnerError(t *testing.T) {
	r := &stubRunner{err: &ExecError{Kind: ErrToolNotFound, Args: []string{"adb"}}}
	if _, err := Detect(context.Background(), r, "", time.Second, quietLogger()); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestTarget(t *testing.T) {
	if got := Target("", TopArgs()...); strings.Join(got, " ") != "shell top -b -n 1" {
		t.Fatalf("unexpected args %v", got)
	}
	if got := Target("R58M", KillArgs(42)...); strings.Join(got, " ") != "-s R58M shell kill 42" {
		t.Fatalf("unexpected args %v", got)
	}
}

func TestExecError(t *testing.T) {
	err := error(&ExecError{Kind: ErrNonZeroExit, Args: []string{"adb", "shell", "top"}, ExitCode: 2, Stderr: "boom\nmore"})
	if got := err.Error(); got != "adb shell top: bridge command exited non-zero (exit 2): boom" {
		t.Fatalf("unexpected message %q", got)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatal("kind mismatch matched")
	}
}
