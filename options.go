// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import "time"

// Controller defaults. The upgrade margin and cooldown are tunable; the
// values below keep two adjacent levels from oscillating at 60 Hz targets.
const (
	DefaultTargetFPS      = 60.0
	DefaultMinFPS         = 30.0
	DefaultUpgradeMargin  = 1.2
	DefaultCooldown       = 3 * time.Second
	DefaultMinSamples     = 30
	DefaultHistorySize    = 60
	DefaultSampleInterval = time.Second
	// DefaultFrameWindow is the number of per-frame intervals retained for
	// frame-time averaging (about two seconds at 60 fps).
	DefaultFrameWindow = 120
)

// ControllerOption configures a Controller during creation.
//
// Example:
//
//	ctrl := lod.NewController(device,
//	    lod.WithTargetFPS(90),
//	    lod.WithMemoryBudget(512<<20),
//	)
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	targetFPS      float64
	minFPS         float64
	upgradeMargin  float64
	cooldown       time.Duration
	minSamples     int
	historySize    int
	frameWindow    int
	sampleInterval time.Duration
	autoAdjust     bool
	memoryBudget   uint64
	initial        QualityLevel
	hasInitial     bool
	observers      observers
	now            func() time.Time
}

func defaultControllerOptions() controllerOptions {
	return controllerOptions{
		targetFPS:      DefaultTargetFPS,
		minFPS:         DefaultMinFPS,
		upgradeMargin:  DefaultUpgradeMargin,
		cooldown:       DefaultCooldown,
		minSamples:     DefaultMinSamples,
		historySize:    DefaultHistorySize,
		frameWindow:    DefaultFrameWindow,
		sampleInterval: DefaultSampleInterval,
		autoAdjust:     true,
		memoryBudget:   DefaultMemoryBudget,
		now:            time.Now,
	}
}

// normalize repairs values that would break the control loop.
func (o *controllerOptions) normalize() {
	if o.targetFPS <= 0 {
		o.targetFPS = DefaultTargetFPS
	}
	if o.minFPS <= 0 || o.minFPS > o.targetFPS {
		o.minFPS = o.targetFPS / 2
	}
	if o.upgradeMargin < 1 {
		o.upgradeMargin = DefaultUpgradeMargin
	}
	if o.cooldown < 0 {
		o.cooldown = 0
	}
	if o.minSamples < 1 {
		o.minSamples = DefaultMinSamples
	}
	if o.historySize < o.minSamples {
		o.historySize = o.minSamples
	}
	if o.frameWindow < 1 {
		o.frameWindow = DefaultFrameWindow
	}
	if o.sampleInterval <= 0 {
		o.sampleInterval = DefaultSampleInterval
	}
	if o.now == nil {
		o.now = time.Now
	}
}

// WithTargetFPS sets the frame rate the controller steers toward.
func WithTargetFPS(fps float64) ControllerOption {
	return func(o *controllerOptions) { o.targetFPS = fps }
}

// WithMinFPS sets the frame rate below which quality is reduced.
func WithMinFPS(fps float64) ControllerOption {
	return func(o *controllerOptions) { o.minFPS = fps }
}

// WithUpgradeMargin sets the multiple of the target fps the average must
// exceed before upgrading.
func WithUpgradeMargin(margin float64) ControllerOption {
	return func(o *controllerOptions) { o.upgradeMargin = margin }
}

// WithCooldown sets the minimum interval between automatic adjustments.
func WithCooldown(d time.Duration) ControllerOption {
	return func(o *controllerOptions) { o.cooldown = d }
}

// WithMinSamples sets how many fps samples must accumulate before an
// automatic decision is made.
func WithMinSamples(n int) ControllerOption {
	return func(o *controllerOptions) { o.minSamples = n }
}

// WithHistorySize sets the capacity of the fps history window. It is
// raised to the minimum sample count if smaller.
func WithHistorySize(n int) ControllerOption {
	return func(o *controllerOptions) { o.historySize = n }
}

// WithSampleInterval sets the aggregation period for fps samples.
func WithSampleInterval(d time.Duration) ControllerOption {
	return func(o *controllerOptions) { o.sampleInterval = d }
}

// WithAutoAdjust enables or disables automatic quality adjustment.
func WithAutoAdjust(enabled bool) ControllerOption {
	return func(o *controllerOptions) { o.autoAdjust = enabled }
}

// WithMemoryBudget sets the GPU memory budget in bytes used by the
// scheduler's affordability check. Zero disables the check.
func WithMemoryBudget(bytes uint64) ControllerOption {
	return func(o *controllerOptions) { o.memoryBudget = bytes }
}

// WithInitialQuality overrides the device recommendation for the starting
// level. Like SetLevel, it may exceed the device ceiling.
func WithInitialQuality(level QualityLevel) ControllerOption {
	return func(o *controllerOptions) {
		o.initial = level
		o.hasInitial = true
	}
}

// WithObserver registers an observer for quality-change, warning and
// error events.
func WithObserver(obs Observer) ControllerOption {
	return func(o *controllerOptions) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithClock replaces time.Now, mainly for tests and replays.
func WithClock(now func() time.Time) ControllerOption {
	return func(o *controllerOptions) { o.now = now }
}

// SchedulerOption configures a Scheduler during creation.
type SchedulerOption func(*schedulerOptions)

type schedulerOptions struct {
	observers    observers
	stageTimeout time.Duration
	now          func() time.Time
}

func defaultSchedulerOptions() schedulerOptions {
	return schedulerOptions{now: time.Now}
}

// WithStageObserver registers an observer for stage, progress, warning,
// error and cancellation events.
func WithStageObserver(obs Observer) SchedulerOption {
	return func(o *schedulerOptions) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithStageTimeout bounds each viewer call with a context deadline.
// Zero (the default) leaves stage budgets advisory.
func WithStageTimeout(d time.Duration) SchedulerOption {
	return func(o *schedulerOptions) { o.stageTimeout = d }
}

// WithSchedulerClock replaces time.Now for stage timing.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(o *schedulerOptions) {
		if now != nil {
			o.now = now
		}
	}
}
