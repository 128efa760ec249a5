package sampler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/droidscout/internal/analyze"
	"github.com/Dicklesworthstone/droidscout/internal/bridge"
	"github.com/Dicklesworthstone/droidscout/internal/classify"
	"github.com/Dicklesworthstone/droidscout/internal/config"
	"github.com/Dicklesworthstone/droidscout/internal/model"
	"github.com/Dicklesworthstone/droidscout/internal/parse"
	"github.com/Dicklesworthstone/droidscout/internal/report"
)

// Sampler builds Snapshots from one round of bridge calls. Collect and
// Exclusive share a device lock, so one-shot commands never interleave with a
// collection round.
type Sampler struct {
	Interval time.Duration

	cfg    config.Config
	runner bridge.Runner
	rules  *classify.Store
	logger *slog.Logger
	now    func() time.Time

	serial atomic.Value // string

	device  sync.Mutex
	busy    atomic.Bool
	skipped atomic.Uint64
}

func New(cfg config.Config, runner bridge.Runner, rules *classify.Store, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sampler{
		Interval: cfg.Interval,
		cfg:      cfg,
		runner:   runner,
		rules:    rules,
		logger:   logger,
		now:      time.Now,
	}
	s.serial.Store(cfg.Serial)
	return s
}

// SetSerial pins the device every later call is addressed to.
func (s *Sampler) SetSerial(serial string) { s.serial.Store(serial) }

func (s *Sampler) Serial() string {
	v, _ := s.serial.Load().(string)
	return v
}

// Skipped counts ticks dropped because the previous round was still running.
func (s *Sampler) Skipped() uint64 { return s.skipped.Load() }

// Capture is a composed snapshot plus the raw outputs it was parsed from.
type Capture struct {
	Snapshot model.Snapshot
	Raw      map[model.Section]string
}

type sourceResult struct {
	out string
	err error
}

// Collect runs every source concurrently, joins them and composes a snapshot.
// A failed source degrades its section to empty; Collect itself never fails.
func (s *Sampler) Collect(ctx context.Context) Capture {
	s.device.Lock()
	defer s.device.Unlock()
	return s.collect(ctx)
}

// Exclusive runs fn while holding the device lock.
func (s *Sampler) Exclusive(fn func() error) error {
	s.device.Lock()
	defer s.device.Unlock()
	return fn()
}

func (s *Sampler) collect(ctx context.Context) Capture {
	serial := s.Serial()
	type source struct {
		section model.Section
		args    []string
		timeout time.Duration
	}
	sources := []source{
		{model.SectionProcesses, bridge.TopArgs(), s.cfg.CommandTimeout},
		{model.SectionMemory, bridge.MeminfoArgs(), s.cfg.MeminfoTimeout},
		{model.SectionThermal, bridge.ThermalArgs(), s.cfg.CommandTimeout},
		{model.SectionServices, bridge.ServicesArgs(), s.cfg.CommandTimeout},
	}
	if s.cfg.TargetPackage != "" {
		sources = append(sources, source{model.SectionFrames, bridge.GfxArgs(s.cfg.TargetPackage), s.cfg.CommandTimeout})
	}

	results := make([]sourceResult, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			out, err := s.runner.Run(ctx, bridge.Target(serial, src.args...), src.timeout)
			results[i] = sourceResult{out: out, err: err}
			return nil
		})
	}
	_ = g.Wait()

	raw := make(map[model.Section]string, len(sources))
	usable := make(map[model.Section]string, len(sources))
	var degraded []model.Degraded
	for i, src := range sources {
		res := results[i]
		raw[src.section] = res.out
		if res.err == nil {
			usable[src.section] = res.out
			continue
		}
		degraded = append(degraded, model.Degraded{Section: src.section, Reason: res.err.Error()})
		// Diagnostic tools often exit non-zero after printing what they could.
		partial := errors.Is(res.err, bridge.ErrNonZeroExit) && res.out != ""
		if partial {
			usable[src.section] = res.out
		}
		s.logger.Warn("section degraded", "section", src.section, "partial", partial, "err", res.err)
	}

	return Capture{Snapshot: s.compose(serial, usable, degraded), Raw: raw}
}

func (s *Sampler) compose(serial string, usable map[model.Section]string, degraded []model.Degraded) model.Snapshot {
	skips := make(map[model.Section]int)

	var procs []model.ProcessSample
	if out, ok := usable[model.SectionProcesses]; ok {
		procs, skips[model.SectionProcesses] = parse.ProcessTable(out)
	}
	var mem model.DeviceMemory
	if out, ok := usable[model.SectionMemory]; ok {
		info, n := parse.ParseMemInfo(out)
		skips[model.SectionMemory] = n
		procs = parse.ApplyRSS(procs, info)
		mem = info.Device
	}
	var thermal model.Thermal
	if out, ok := usable[model.SectionThermal]; ok {
		thermal, skips[model.SectionThermal] = parse.Thermal(out)
	}
	var services []model.ServiceEntry
	if out, ok := usable[model.SectionServices]; ok {
		services, skips[model.SectionServices] = parse.Services(out, s.cfg.ServiceLimit)
	}
	var frames *model.FrameStats
	if s.cfg.TargetPackage != "" {
		f := model.FrameStats{Package: s.cfg.TargetPackage}
		if out, ok := usable[model.SectionFrames]; ok {
			f, skips[model.SectionFrames] = parse.FrameStats(s.cfg.TargetPackage, out)
		}
		frames = &f
	}
	for sec, n := range skips {
		if n > 0 {
			s.logger.Debug("parse skips", "section", sec, "lines", n)
		}
	}

	var rules *classify.Rules
	if s.rules != nil {
		rules = s.rules.Rules()
	}
	th := s.cfg.Thresholds()
	classified := classify.Classify(rules, procs)
	warnings := analyze.Analyze(analyze.Input{Processes: classified, Memory: mem, Thermal: thermal}, th)

	return report.Compose(report.Parts{
		Timestamp:  s.now(),
		Device:     serial,
		Processes:  classified,
		Rankings:   classify.Rank(classified, s.cfg.TopN),
		Thermal:    thermal,
		Services:   services,
		Memory:     mem,
		Frames:     frames,
		Warnings:   warnings,
		Thresholds: th,
		Degraded:   degraded,
		ParseSkips: skips,
	})
}

// Stream returns a channel that receives one snapshot per tick until ctx is
// done. A tick that comes due while the previous round is still running is
// skipped, never queued.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Snapshot {
	ch := make(chan model.Snapshot)
	var inflight sync.WaitGroup
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		defer func() {
			inflight.Wait()
			close(ch)
		}()
		s.tick(ctx, ch, &inflight)
		for {
			select {
			case <-ticker.C:
				s.tick(ctx, ch, &inflight)
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (s *Sampler) tick(ctx context.Context, ch chan<- model.Snapshot, inflight *sync.WaitGroup) {
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Debug("tick skipped, collection still running")
		return
	}
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		defer s.busy.Store(false)
		capture := s.Collect(ctx)
		if ctx.Err() != nil {
			return
		}
		select {
		case ch <- capture.Snapshot:
		case <-ctx.Done():
		}
	}()
}
