// Package engine is the surface the CLI and dashboard drive: collect, render,
// kill, clear cache and session control.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dicklesworthstone/droidscout/internal/bridge"
	"github.com/Dicklesworthstone/droidscout/internal/classify"
	"github.com/Dicklesworthstone/droidscout/internal/config"
	"github.com/Dicklesworthstone/droidscout/internal/model"
	"github.com/Dicklesworthstone/droidscout/internal/report"
	"github.com/Dicklesworthstone/droidscout/internal/sampler"
	"github.com/Dicklesworthstone/droidscout/internal/session"
)

var ErrInvalidPID = errors.New("invalid pid")

// Engine wires the executor, sampler, rule table and session recorder.
type Engine struct {
	cfg      config.Config
	runner   bridge.Runner
	rules    *classify.Store
	sampler  *sampler.Sampler
	recorder *session.Recorder
	logger   *slog.Logger
}

func New(cfg config.Config, runner bridge.Runner, rules *classify.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		runner:   runner,
		rules:    rules,
		sampler:  sampler.New(cfg, runner, rules, logger),
		recorder: session.NewRecorder(),
		logger:   logger,
	}
}

// Connect finds the device and pins its serial. A missing bridge tool or an
// unusable device is returned as is; callers treat both as fatal at startup.
func (e *Engine) Connect(ctx context.Context) (string, error) {
	serial, err := bridge.Detect(ctx, e.runner, e.cfg.Serial, e.cfg.CommandTimeout, e.logger)
	if err != nil {
		return "", err
	}
	e.sampler.SetSerial(serial)
	e.logger.Info("device connected", "serial", serial)
	return serial, nil
}

func (e *Engine) Serial() string { return e.sampler.Serial() }

func (e *Engine) Sampler() *sampler.Sampler { return e.sampler }

func (e *Engine) Rules() *classify.Store { return e.rules }

// CollectSnapshot runs one collection round.
func (e *Engine) CollectSnapshot(ctx context.Context) model.Snapshot {
	return e.sampler.Collect(ctx).Snapshot
}

// Collect is CollectSnapshot plus the raw source outputs.
func (e *Engine) Collect(ctx context.Context) sampler.Capture {
	return e.sampler.Collect(ctx)
}

// RenderReport renders s without touching the device.
func (e *Engine) RenderReport(s model.Snapshot) string { return report.Render(s) }

// KillProcess sends kill to pid on the device. It waits for any collection
// round in flight to finish first.
func (e *Engine) KillProcess(ctx context.Context, pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	var out string
	err := e.sampler.Exclusive(func() error {
		var runErr error
		out, runErr = e.runner.Run(ctx, bridge.Target(e.Serial(), bridge.KillArgs(pid)...), e.cfg.CommandTimeout)
		return runErr
	})
	if err != nil {
		return strings.TrimSpace(out), err
	}
	if msg := strings.TrimSpace(out); msg != "" {
		return "Kill output: " + msg, nil
	}
	return fmt.Sprintf("Process with PID %d killed.", pid), nil
}

// ClearCache trims every app cache on the device and summarises the result.
func (e *Engine) ClearCache(ctx context.Context) (string, error) {
	var out string
	err := e.sampler.Exclusive(func() error {
		var runErr error
		out, runErr = e.runner.Run(ctx, bridge.Target(e.Serial(), bridge.TrimCachesArgs()...), e.cfg.ClearCacheTimeout)
		return runErr
	})
	if err != nil {
		return strings.TrimSpace(out), err
	}
	if msg := strings.TrimSpace(out); msg != "" {
		return "Cache clear output: " + msg, nil
	}
	return "Cache cleared for all apps.", nil
}

// StartSession begins recording snapshots produced by Monitor.
func (e *Engine) StartSession() (string, error) {
	id, err := e.recorder.Start(e.Serial())
	if err != nil {
		return id, err
	}
	e.logger.Info("session started", "id", id)
	return id, nil
}

// StopSession seals the recording.
func (e *Engine) StopSession() (model.Session, error) {
	sess, err := e.recorder.Stop()
	if err != nil {
		return sess, err
	}
	e.logger.Info("session stopped", "id", sess.ID, "snapshots", len(sess.Snapshots))
	return sess, nil
}

// Recording reports whether a session is being recorded.
func (e *Engine) Recording() bool { return e.recorder.State() == session.Recording }

// ExportSession writes sess under the configured output directory.
func (e *Engine) ExportSession(sess model.Session) (string, error) {
	format, err := session.ParseFormat(e.cfg.ExportFormat)
	if err != nil {
		return "", err
	}
	path, err := session.Export(e.cfg.OutDir, sess, format)
	if err != nil {
		return "", err
	}
	e.logger.Info("session exported", "id", sess.ID, "path", path)
	return path, nil
}

// Monitor streams snapshots every interval and records them while a session
// is active.
func (e *Engine) Monitor(ctx context.Context) <-chan model.Snapshot {
	in := e.sampler.Stream(ctx)
	out := make(chan model.Snapshot)
	go func() {
		defer close(out)
		for snap := range in {
			if err := e.recorder.Record(snap); err != nil {
				e.logger.Warn("snapshot not recorded", "err", err)
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				// drain so the sampler can shut down
				for range in {
				}
				return
			}
		}
	}()
	return out
}
