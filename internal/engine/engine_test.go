package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dicklesworthstone/droidscout/internal/bridge"
	"github.com/Dicklesworthstone/droidscout/internal/classify"
	"github.com/Dicklesworthstone/droidscout/internal/config"
	"github.com/Dicklesworthstone/droidscout/internal/session"
)

// scriptRunner returns canned output keyed by the shell command after "shell".
type scriptRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (r *scriptRunner) Run(_ context.Context, args []string, _ time.Duration) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := strings.Join(args, " ")
	r.calls = append(r.calls, line)
	for key, err := range r.errs {
		if strings.Contains(line, key) {
			return r.outputs[key], err
		}
	}
	for key, out := range r.outputs {
		if strings.Contains(line, key) {
			return out, nil
		}
	}
	return "", nil
}

func (r *scriptRunner) called(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

func newEngine(t *testing.T, r *scriptRunner) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Interval = 20 * time.Millisecond
	cfg.OutDir = t.TempDir()
	rules, err := classify.NewStore("")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	return New(cfg, r, rules, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func deviceRunner() *scriptRunner {
	return &scriptRunner{
		outputs: map[string]string{
			"devices": "List of devices attached\nR58M123\tdevice\n",
			"top":     "  PID USER PR NI VIRT RES SHR S %CPU %MEM TIME+ ARGS\n 4242 u0_a7 10 -10 9G 320M 80M S 4.0 4.0 0:10.00 com.spotify.music\n",
		},
		errs: map[string]error{},
	}
}

func TestConnect(t *testing.T) {
	r := deviceRunner()
	e := newEngine(t, r)
	serial, err := e.Connect(context.Background())
	if err != nil || serial != "R58M123" || e.Serial() != "R58M123" {
		t.Fatalf("connect: %q %v", serial, err)
	}
	snap := e.CollectSnapshot(context.Background())
	if snap.Device != "R58M123" || len(snap.Processes) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !r.called("-s R58M123 shell top") {
		t.Fatal("collection not addressed to the connected device")
	}
	if !strings.Contains(e.RenderReport(snap), "com.spotify.music (PID 4242): 320.0 MB RAM *") {
		t.Fatalf("unexpected report:\n%s", e.RenderReport(snap))
	}
}

func TestConnect_NoDevice(t *testing.T) {
	r := deviceRunner()
	r.outputs["devices"] = "List of devices attached\n\n"
	if _, err := newEngine(t, r).Connect(context.Background()); !errors.Is(err, bridge.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestKillProcess(t *testing.T) {
	r := deviceRunner()
	e := newEngine(t, r)
	msg, err := e.KillProcess(context.Background(), 4242)
	if err != nil || msg != "Process with PID 4242 killed." {
		t.Fatalf("kill: %q %v", msg, err)
	}
	if !r.called("shell kill 4242") {
		t.Fatal("kill command not issued")
	}

	if _, err := e.KillProcess(context.Background(), 0); !errors.Is(err, ErrInvalidPID) {
		t.Fatalf("expected ErrInvalidPID, got %v", err)
	}

	r.outputs["kill 7"] = "/system/bin/sh: kill: 7: Operation not permitted"
	r.errs["kill 7"] = &bridge.ExecError{Kind: bridge.ErrNonZeroExit, ExitCode: 1}
	msg, err = e.KillProcess(context.Background(), 7)
	if !errors.Is(err, bridge.ErrNonZeroExit) || !strings.Contains(msg, "Operation not permitted") {
		t.Fatalf("failed kill: %q %v", msg, err)
	}
}

func TestClearCache(t *testing.T) {
	r := deviceRunner()
	e := newEngine(t, r)
	msg, err := e.ClearCache(context.Background())
	if err != nil || msg != "Cache cleared for all apps." {
		t.Fatalf("clear cache: %q %v", msg, err)
	}
	if !r.called("shell pm trim-caches 1K") {
		t.Fatal("trim-caches not issued")
	}

	r.outputs["trim-caches"] = "Error: java.lang.SecurityException"
	msg, err = e.ClearCache(context.Background())
	if err != nil || msg != "Cache clear output: Error: java.lang.SecurityException" {
		t.Fatalf("clear cache with output: %q %v", msg, err)
	}
}

func TestSessionFlow(t *testing.T) {
	r := deviceRunner()
	e := newEngine(t, r)
	if _, err := e.StopSession(); !errors.Is(err, session.ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream := e.Monitor(ctx)

	// snapshots before start are not recorded
	<-stream
	if _, err := e.StartSession(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !e.Recording() {
		t.Fatal("engine should be recording")
	}
	for i := 0; i < 3; i++ {
		<-stream
	}
	sess, err := e.StopSession()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	cancel()
	for range stream {
	}

	if len(sess.Snapshots) < 2 {
		t.Fatalf("expected recorded snapshots, got %d", len(sess.Snapshots))
	}
	for i := 1; i < len(sess.Snapshots); i++ {
		if sess.Snapshots[i].Timestamp.Before(sess.Snapshots[i-1].Timestamp) {
			t.Fatal("session out of order")
		}
	}

	path, err := e.ExportSession(sess)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Ext(path) != ".json" {
		t.Fatalf("default export should be json, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file: %v", err)
	}
}
