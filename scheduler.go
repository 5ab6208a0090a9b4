// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Viewer is the boundary to the external 3D viewer. ApplyFeatures renders
// atoms with the given feature set and returns when the viewer reports
// completion. The viewer package provides the standard implementation.
type Viewer interface {
	ApplyFeatures(ctx context.Context, atoms []Atom, features RenderFeatureSet) error
}

// cacheResetter is implemented by viewers that cache per-level
// translations. The scheduler clears the cache when a new structure loads.
type cacheResetter interface {
	ResetCache()
}

// LoadReport describes one structure-load session.
type LoadReport struct {
	SessionID   string
	StructureID string
	Complexity  StructureComplexity
	Target      Stage
	Stages      []StageResult
	// Cancelled reports that the load stopped before reaching Target.
	Cancelled bool
	// FinalLevel is the level of the last successfully rendered stage.
	FinalLevel QualityLevel
	Duration   time.Duration
}

// Completed reports whether every stage up to Target rendered successfully.
func (r *LoadReport) Completed() bool {
	if r.Cancelled || len(r.Stages) != int(r.Target) {
		return false
	}
	for _, s := range r.Stages {
		if !s.Success {
			return false
		}
	}
	return true
}

// Scheduler drives a viewer through the Preview, Interactive and Full
// stages of a structure load.
//
// Each stage reads a copy of the controller's current feature set, caps it
// at the stage's maximum quality and steps it down until its estimated
// memory cost fits the budget. Stages run strictly in sequence. A quality
// change made by the controller during a load affects only stages that
// have not been dispatched yet.
//
// One Scheduler serves one viewer session; concurrent Load calls are
// serialized.
type Scheduler struct {
	viewer Viewer
	ctrl   *Controller
	opts   schedulerOptions

	loadMu    sync.Mutex
	cancelled atomic.Bool
}

// NewScheduler creates a scheduler that renders through v using the
// quality chosen by ctrl.
func NewScheduler(v Viewer, ctrl *Controller, opts ...SchedulerOption) (*Scheduler, error) {
	if v == nil {
		return nil, ErrNilViewer
	}
	if ctrl == nil {
		ctrl = NewController(DeviceCapability{})
	}
	o := defaultSchedulerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Scheduler{viewer: v, ctrl: ctrl, opts: o}, nil
}

// Controller returns the quality controller used by the scheduler.
func (s *Scheduler) Controller() *Controller {
	return s.ctrl
}

// Cancel requests cancellation of the running load, or of the next load
// if none is running. Cancellation is cooperative: it is checked before
// each stage starts, and a stage already dispatched to the viewer runs to
// completion. Results of finished stages are kept in the report. The
// request is consumed when that load returns.
func (s *Scheduler) Cancel() {
	s.cancelled.Store(true)
}

// ClearCache drops the viewer's cached per-level translations, if any.
func (s *Scheduler) ClearCache() {
	if cr, ok := s.viewer.(cacheResetter); ok {
		cr.ResetCache()
	}
}

// Load renders st progressively up to target.
//
// A viewer failure on a stage before target is reported to observers and
// recorded with Success false; loading continues with the next stage. A
// failure on the target stage is returned as a *StageError together with
// the report. Cancellation (Cancel or ctx) is not an error: the report is
// returned with Cancelled set.
func (s *Scheduler) Load(ctx context.Context, st *Structure, target Stage) (*LoadReport, error) {
	if st == nil {
		return nil, ErrNilStructure
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, int(target))
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	defer s.cancelled.Store(false)
	s.ClearCache()

	started := s.opts.now()
	report := &LoadReport{
		SessionID:   uuid.NewString(),
		StructureID: st.ID,
		Complexity:  NewStructureComplexity(st),
		Target:      target,
	}
	defer func() { report.Duration = s.opts.now().Sub(started) }()

	Logger().Info("lod: load started",
		"session", report.SessionID,
		"structure", st.ID,
		"atoms", report.Complexity.AtomCount,
		"target", target.String())

	stages := stagesUpTo(target)
	var total, done time.Duration
	for _, stage := range stages {
		total += stage.Budget()
	}

	for _, stage := range stages {
		if s.cancelled.Load() || ctx.Err() != nil {
			report.Cancelled = true
			Logger().Info("lod: load cancelled", "session", report.SessionID, "before", stage.String())
			s.opts.observers.Cancelled(stage)
			return report, nil
		}

		s.opts.observers.Progress(percent(done, total), stage)
		result := s.runStage(ctx, report.Complexity, st.Atoms, stage)
		report.Stages = append(report.Stages, result)
		done += stage.Budget()

		if result.Success {
			report.FinalLevel = result.Level
			s.opts.observers.StageComplete(result)
			s.opts.observers.Progress(percent(done, total), stage)
			continue
		}

		stageErr := &StageError{Stage: stage, Level: result.Level, Err: result.Err}
		Logger().Warn("lod: stage failed", "session", report.SessionID, "stage", stage.String(), "err", result.Err)
		s.opts.observers.Error(stageErr, stage)
		s.opts.observers.StageComplete(result)
		if stage == target {
			return report, stageErr
		}
		s.opts.observers.Progress(percent(done, total), stage)
	}
	return report, nil
}

// runStage selects the stage's features and dispatches them to the viewer.
func (s *Scheduler) runStage(ctx context.Context, c StructureComplexity, atoms []Atom, stage Stage) StageResult {
	features, cost, degraded := s.selectFeatures(c, stage)

	s.opts.observers.StageStart(stage)
	Logger().Debug("lod: stage start",
		"stage", stage.String(),
		"features", features.String(),
		"memory", cost)

	callCtx := ctx
	if s.opts.stageTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.stageTimeout)
		defer cancel()
	}

	start := s.opts.now()
	err := s.viewer.ApplyFeatures(callCtx, atoms, features)
	elapsed := s.opts.now().Sub(start)

	result := StageResult{
		Stage:           stage,
		Level:           features.Level,
		Features:        features,
		Duration:        elapsed,
		AtomsRendered:   atomsRendered(c, features),
		FPS:             s.ctrl.Metrics().FPS,
		EstimatedMemory: cost,
		Degraded:        degraded,
		Success:         err == nil,
		Err:             err,
	}

	if err == nil {
		Logger().Info("lod: stage complete",
			"stage", stage.String(),
			"level", features.Level.String(),
			"duration", elapsed)
		if budget := stage.Budget(); elapsed > budget {
			s.opts.observers.PerformanceWarning(fmt.Sprintf(
				"%s stage took %v, over its %v budget", stage, elapsed.Round(time.Millisecond), budget))
		}
	}
	return result
}

// selectFeatures returns the feature set for a stage: the controller's
// current features capped at the stage maximum, stepped down one level at
// a time until affordable. If even the lowest level is unaffordable it is
// used anyway and a warning is emitted.
func (s *Scheduler) selectFeatures(c StructureComplexity, stage Stage) (RenderFeatureSet, uint64, bool) {
	requested := s.ctrl.Features().Level
	if limit := stage.MaxQuality(); requested > limit {
		requested = limit
	}

	budget := s.ctrl.MemoryBudget()
	maxAtoms := s.ctrl.Device().MaxAtoms

	level := requested
	for {
		f := FeaturesFor(level)
		cost := EstimateMemory(c, stage, f)
		if affordable(c, f, cost, budget, maxAtoms) {
			if level != requested {
				msg := fmt.Sprintf("%s stage reduced from %s to %s quality: estimated %d MB, budget %d MB, %d atoms",
					stage, requested, level, cost>>20, budget>>20, c.AtomCount)
				Logger().Warn("lod: " + msg)
				s.opts.observers.PerformanceWarning(msg)
			}
			return f, cost, level != requested
		}
		if level == LowestQuality {
			msg := fmt.Sprintf("%v: %s stage needs %d MB at %s quality, budget %d MB",
				ErrMemoryBudgetExceeded, stage, cost>>20, level, budget>>20)
			Logger().Warn(msg)
			s.opts.observers.PerformanceWarning(msg)
			return f, cost, level != requested
		}
		level--
	}
}

// atomsRendered returns how many atoms a representation draws. Backbone
// traces draw one atom per residue.
func atomsRendered(c StructureComplexity, f RenderFeatureSet) int {
	if f.Representation == RepresentationBackbone && c.ResidueCount > 0 && c.ResidueCount < c.AtomCount {
		return c.ResidueCount
	}
	return c.AtomCount
}

func percent(done, total time.Duration) float64 {
	if total <= 0 {
		return 100
	}
	return 100 * float64(done) / float64(total)
}
