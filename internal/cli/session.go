// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/config"
	"github.com/gogpu/lod/metrics"
	"github.com/gogpu/lod/prefs"
	"github.com/gogpu/lod/viewer"
)

// simEpoch is the start of simulated controller time.
var simEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Session wires a device, configuration and optional persistence into
// one simulated viewer session.
type Session struct {
	Config *config.Config
	Device lod.DeviceCapability
	// Store persists manual overrides and load history; nil disables it.
	Store *prefs.Store
	// Metrics receives controller and scheduler events; nil disables it.
	Metrics *metrics.Metrics
	// Compile compiles shading variants with naga when set.
	Compile bool
	// RenderDelay is the simulated render cost per atom.
	RenderDelay time.Duration
	// Override is applied as a manual quality choice after the controller
	// starts when HasOverride is set.
	Override    lod.QualityLevel
	HasOverride bool
	// Observers receive both controller and scheduler events.
	Observers []lod.Observer
}

// SessionReport is the serialized result of a session.
type SessionReport struct {
	SessionID        string         `yaml:"session_id" json:"session_id"`
	Structure        string         `yaml:"structure" json:"structure"`
	Atoms            int            `yaml:"atoms" json:"atoms"`
	Device           string         `yaml:"device" json:"device"`
	Tier             string         `yaml:"tier" json:"tier"`
	StartLevel       string         `yaml:"start_level" json:"start_level"`
	Stages           []StageSummary `yaml:"stages" json:"stages"`
	Cancelled        bool           `yaml:"cancelled,omitempty" json:"cancelled,omitempty"`
	LoadDuration     string         `yaml:"load_duration" json:"load_duration"`
	SimulatedSeconds int            `yaml:"simulated_seconds" json:"simulated_seconds"`
	Timeline         []QualityEvent `yaml:"timeline,omitempty" json:"timeline,omitempty"`
	FinalLevel       string         `yaml:"final_level" json:"final_level"`
	AverageFPS       float64        `yaml:"average_fps" json:"average_fps"`
	PlanCache        string         `yaml:"plan_cache" json:"plan_cache"`
}

// StageSummary is the serialized form of a lod.StageResult.
type StageSummary struct {
	Stage          string  `yaml:"stage" json:"stage"`
	Level          string  `yaml:"level" json:"level"`
	Representation string  `yaml:"representation" json:"representation"`
	AtomsRendered  int     `yaml:"atoms_rendered" json:"atoms_rendered"`
	MemoryMB       float64 `yaml:"memory_mb" json:"memory_mb"`
	Duration       string  `yaml:"duration" json:"duration"`
	Degraded       bool    `yaml:"degraded,omitempty" json:"degraded,omitempty"`
	Success        bool    `yaml:"success" json:"success"`
	Error          string  `yaml:"error,omitempty" json:"error,omitempty"`
}

func newStageSummary(r lod.StageResult) StageSummary {
	s := StageSummary{
		Stage:          r.Stage.String(),
		Level:          r.Level.String(),
		Representation: r.Features.Representation.String(),
		AtomsRendered:  r.AtomsRendered,
		MemoryMB:       float64(r.EstimatedMemory) / (1 << 20),
		Duration:       r.Duration.Round(time.Microsecond).String(),
		Degraded:       r.Degraded,
		Success:        r.Success,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

// Run loads st up to target and then simulates sim.Seconds of interaction.
// A terminal stage failure is returned together with the partial report.
func (s *Session) Run(ctx context.Context, st *lod.Structure, target lod.Stage, sim SimOptions) (*SessionReport, error) {
	c := s.Config
	if c == nil {
		c = config.Default()
	}

	clk := &simClock{t: simEpoch}
	tl := &timeline{}
	key := prefs.DeviceKey(s.Device)

	var ctrl *lod.Controller
	opts := c.ControllerOptions()
	if s.Store != nil {
		p, err := s.Store.Load(key)
		switch {
		case err == nil:
			lod.Logger().Info("lodsim: restoring saved preference", "device", key, "quality", p.Quality.String())
			opts = append(opts, p.ControllerOptions()...)
		case !errors.Is(err, prefs.ErrNotFound):
			return nil, fmt.Errorf("load preference: %w", err)
		}
		opts = append(opts, lod.WithObserver(prefs.NewTracker(s.Store, key, func() bool { return ctrl.AutoAdjust() })))
	}
	opts = append(opts, lod.WithClock(clk.Now), lod.WithObserver(tl))
	if s.Metrics != nil {
		opts = append(opts, lod.WithObserver(s.Metrics))
	}
	for _, o := range s.Observers {
		opts = append(opts, lod.WithObserver(o))
	}
	ctrl = lod.NewController(s.Device, opts...)

	if s.HasOverride {
		if err := ctrl.SetLevel(s.Override); err != nil {
			return nil, err
		}
	}
	startLevel := ctrl.Level()

	var vopts []viewer.Option
	if s.Compile {
		vopts = append(vopts, viewer.WithCompiler(viewer.NagaCompiler))
	}
	adapter := viewer.New(simBackend(s.RenderDelay), vopts...)

	sopts := c.SchedulerOptions()
	if s.Metrics != nil {
		sopts = append(sopts, lod.WithStageObserver(s.Metrics))
	}
	for _, o := range s.Observers {
		sopts = append(sopts, lod.WithStageObserver(o))
	}
	sched, err := lod.NewScheduler(adapter, ctrl, sopts...)
	if err != nil {
		return nil, err
	}

	load, loadErr := sched.Load(ctx, st, target)
	if load == nil {
		return nil, loadErr
	}
	if s.Store != nil {
		if err := s.Store.RecordLoad(key, load); err != nil {
			lod.Logger().Warn("lodsim: record load failed", "err", err)
		}
	}

	rep := &SessionReport{
		SessionID:    load.SessionID,
		Structure:    st.ID,
		Atoms:        load.Complexity.AtomCount,
		Device:       s.Device.Adapter,
		Tier:         s.Device.Tier.String(),
		StartLevel:   startLevel.String(),
		Cancelled:    load.Cancelled,
		LoadDuration: load.Duration.Round(time.Microsecond).String(),
	}
	for _, r := range load.Stages {
		rep.Stages = append(rep.Stages, newStageSummary(r))
	}

	if loadErr == nil && !load.Cancelled && sim.Seconds > 0 {
		model := newFrameModel(s.Device, load.Complexity, sim.Seed)
		if err := simulate(ctx, ctrl, clk, tl, model, sim); err != nil {
			return rep, err
		}
		rep.SimulatedSeconds = sim.Seconds
	}

	perf := ctrl.Metrics()
	if s.Metrics != nil {
		s.Metrics.ObservePerformance(perf)
		s.Metrics.SetQualityLevel(ctrl.Level())
	}
	stats := adapter.CacheStats()
	rep.Timeline = tl.Events()
	rep.FinalLevel = ctrl.Level().String()
	rep.AverageFPS = perf.AverageFPS
	if perf.Samples == 0 {
		// History was just cleared by a transition.
		rep.AverageFPS = perf.FPS
	}
	rep.PlanCache = fmt.Sprintf("%d plans, %d hits, %d misses", stats.Plans, stats.Hits, stats.Misses)
	return rep, loadErr
}
