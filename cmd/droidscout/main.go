package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Dicklesworthstone/droidscout/internal/bridge"
	"github.com/Dicklesworthstone/droidscout/internal/classify"
	"github.com/Dicklesworthstone/droidscout/internal/config"
	"github.com/Dicklesworthstone/droidscout/internal/engine"
	"github.com/Dicklesworthstone/droidscout/internal/report"
	"github.com/Dicklesworthstone/droidscout/internal/ui"
)

const usage = `usage: droidscout <command> [flags]

commands:
  report                 collect once, print the report and save run artifacts
  watch                  live dashboard (r: record session, c: clear cache, q: quit)
  record -for 30s        record a session headless and export it
  clear-cache            trim app caches on the device
  kill <pid>             kill a process on the device

run "droidscout <command> -h" for flags`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		slog.Error("droidscout failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	var duration time.Duration
	var pid int
	switch command {
	case "report", "watch", "clear-cache":
	case "record":
		args, duration = splitDuration(args)
	case "kill":
		if len(args) == 0 {
			return errors.New("kill needs a pid")
		}
		p, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad pid %q: %w", args[0], err)
		}
		pid, args = p, args[1:]
	case "-h", "--help", "help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	cfg, err := config.FromFlags("droidscout "+command, args)
	if err != nil {
		return err
	}
	logOut := io.Writer(os.Stderr)
	if command == "watch" {
		// the dashboard owns the terminal
		f, err := os.OpenFile(filepath.Join(cfg.OutDir, "droidscout.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(cfg.LogLevel, logOut)
	slog.SetDefault(logger)

	rules, err := classify.NewStore(cfg.RulesFile)
	if err != nil {
		return err
	}

	adb := bridge.NewADB(cfg.ADBPath)
	if _, err := adb.LookPath(); err != nil {
		return fmt.Errorf("adb not found, install Android Platform Tools and add adb to PATH: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(cfg, adb, rules, logger)
	if _, err := eng.Connect(ctx); err != nil {
		return err
	}

	switch command {
	case "report":
		return runReport(ctx, eng, cfg)
	case "watch":
		if err := rules.Watch(ctx, logger); err != nil {
			logger.Warn("rule hot reload disabled", "err", err)
		}
		return ui.RunTUI(eng)
	case "record":
		return runRecord(ctx, eng, duration)
	case "clear-cache":
		msg, err := eng.ClearCache(ctx)
		if err != nil {
			return err
		}
		fmt.Println(msg)
	case "kill":
		msg, err := eng.KillProcess(ctx, pid)
		if err != nil {
			return err
		}
		fmt.Println(msg)
	}
	return nil
}

func runReport(ctx context.Context, eng *engine.Engine, cfg config.Config) error {
	capture := eng.Collect(ctx)
	fmt.Print(eng.RenderReport(capture.Snapshot))
	for _, d := range capture.Snapshot.Degraded {
		fmt.Fprintf(os.Stderr, "degraded section %s: %s\n", d.Section, d.Reason)
	}
	dir, err := report.WriteRun(cfg.OutDir, capture.Snapshot, capture.Raw)
	if err != nil {
		return err
	}
	fmt.Printf("Reports and raw files saved to: %s\n", dir)
	return nil
}

func runRecord(ctx context.Context, eng *engine.Engine, d time.Duration) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	if _, err := eng.StartSession(); err != nil {
		return err
	}
	for snap := range eng.Monitor(ctx) {
		slog.Info("snapshot", "processes", len(snap.Processes), "warnings", len(snap.Warnings), "degraded", len(snap.Degraded))
	}
	sess, err := eng.StopSession()
	if err != nil {
		return err
	}
	path, err := eng.ExportSession(sess)
	if err != nil {
		return err
	}
	fmt.Printf("Session with %d snapshots saved to: %s\n", len(sess.Snapshots), path)
	return nil
}

// splitDuration pulls "-for <duration>" out of args; 0 means until interrupted.
func splitDuration(args []string) ([]string, time.Duration) {
	var rest []string
	var d time.Duration
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case (a == "-for" || a == "--for") && i+1 < len(args):
			d, _ = time.ParseDuration(args[i+1])
			i++
		case strings.HasPrefix(a, "-for=") || strings.HasPrefix(a, "--for="):
			d, _ = time.ParseDuration(a[strings.IndexByte(a, '=')+1:])
		default:
			rest = append(rest, a)
		}
	}
	return rest, d
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
