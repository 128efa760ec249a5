// Package bridge runs the external device-bridge tool (adb). It is the only
// package that talks to the device.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultTimeout applies when Run is given a non-positive timeout.
const DefaultTimeout = 10 * time.Second

// Runner executes one bridge command and returns its standard output. Output
// captured before a failure is returned together with the error.
type Runner interface {
	Run(ctx context.Context, args []string, timeout time.Duration) (string, error)
}

// ADB runs the adb executable. It keeps no state between calls.
type ADB struct {
	Path string
}

func NewADB(path string) *ADB {
	if path == "" {
		path = "adb"
	}
	return &ADB{Path: path}
}

// LookPath resolves the executable, failing with ErrToolNotFound.
func (a *ADB) LookPath() (string, error) {
	path, err := exec.LookPath(a.Path)
	if err != nil {
		return "", &ExecError{Kind: ErrToolNotFound, Args: []string{a.Path}, Err: err}
	}
	return path, nil
}

// Run spawns adb with args. On timeout the whole process tree is killed.
func (a *ADB) Run(ctx context.Context, args []string, timeout time.Duration) (string, error) {
	path, err := a.LookPath()
	if err != nil {
		return "", err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Cancel = func() error { return killTree(cmd.Process.Pid) }
	cmd.WaitDelay = 2 * time.Second

	runErr := cmd.Run()
	out := stdout.String()
	if runErr == nil {
		return out, nil
	}

	fullArgs := append([]string{a.Path}, args...)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return out, &ExecError{Kind: ErrTimeout, Args: fullArgs, Stderr: stderr.String(), Err: ctx.Err()}
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	if errors.Is(runErr, exec.ErrNotFound) {
		return out, &ExecError{Kind: ErrToolNotFound, Args: fullArgs, Err: runErr}
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		kind := ErrNonZeroExit
		if isDeviceProblem(stderr.String()) {
			kind = ErrDeviceUnavailable
		}
		return out, &ExecError{Kind: kind, Args: fullArgs, ExitCode: exitErr.ExitCode(), Stderr: stderr.String(), Err: runErr}
	}
	return out, &ExecError{Kind: ErrNonZeroExit, Args: fullArgs, ExitCode: -1, Stderr: stderr.String(), Err: runErr}
}
