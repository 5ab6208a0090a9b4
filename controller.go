// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Controller owns the current QualityLevel and steers it toward the
// highest level the device sustains at the target frame rate.
//
// The host reports every rendered frame through RecordFrame (or Frame).
// Once per sample interval the frame count is turned into an fps sample
// and pushed into a history window. When the window holds enough samples
// and the cooldown has expired, the controller downgrades one level if
// the average is below the minimum fps, or upgrades one level if it is
// above target fps times the upgrade margin and the device ceiling allows
// it. Every transition clears the history and restarts the cooldown, so
// decisions are never made on data measured at a previous level.
//
// Controller is safe for concurrent use. Observers are invoked after the
// internal lock is released.
type Controller struct {
	mu   sync.Mutex
	opts controllerOptions

	device     DeviceCapability
	ceiling    QualityLevel
	hasCeiling bool

	level      QualityLevel
	features   RenderFeatureSet
	autoAdjust bool

	history     *ring[float64]
	frameTimes  *ring[time.Duration]
	frames      int
	windowStart time.Time
	lastFrame   time.Time
	lastAdjust  time.Time

	metrics PerformanceMetrics
}

// Reasons reported with QualityChange for changes not made by the
// decision loop.
const (
	ReasonManual = "manual override"
	ReasonReset  = "reset"
)

// event is an observer notification deferred until the lock is released.
type event func(observers)

// NewController creates a controller for a detected device.
//
// The starting level is the WithInitialQuality override if given,
// otherwise the device's recommended quality. A device without a ceiling
// (zero DeviceCapability) starts at QualityLow and never upgrades
// automatically.
func NewController(device DeviceCapability, opts ...ControllerOption) *Controller {
	o := defaultControllerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.normalize()

	c := &Controller{
		opts:       o,
		device:     device,
		autoAdjust: o.autoAdjust,
		history:    newRing[float64](o.historySize),
		frameTimes: newRing[time.Duration](o.frameWindow),
	}
	c.ceiling, c.hasCeiling = device.Ceiling()
	c.level = c.startLevel()
	c.features = FeaturesFor(c.level)
	return c
}

// startLevel returns the level used at construction and by Reset.
func (c *Controller) startLevel() QualityLevel {
	if c.opts.hasInitial && c.opts.initial.Valid() {
		return c.opts.initial
	}
	if c.hasCeiling {
		return c.ceiling
	}
	return QualityLow
}

// Level returns the current quality level.
func (c *Controller) Level() QualityLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// Features returns a copy of the feature set for the current level.
func (c *Controller) Features() RenderFeatureSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.features
}

// Device returns the capability the controller was created with.
func (c *Controller) Device() DeviceCapability {
	return c.device
}

// MemoryBudget returns the configured GPU memory budget in bytes.
func (c *Controller) MemoryBudget() uint64 {
	return c.opts.memoryBudget
}

// TargetFPS returns the configured target frame rate.
func (c *Controller) TargetFPS() float64 { return c.opts.targetFPS }

// MinFPS returns the configured minimum acceptable frame rate.
func (c *Controller) MinFPS() float64 { return c.opts.minFPS }

// AutoAdjust reports whether automatic adjustment is enabled.
func (c *Controller) AutoAdjust() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoAdjust
}

// SetAutoAdjust enables or disables automatic adjustment. Sampling
// continues while disabled so metrics stay current.
func (c *Controller) SetAutoAdjust(enabled bool) {
	c.mu.Lock()
	c.autoAdjust = enabled
	c.mu.Unlock()
}

// Metrics returns a copy of the latest performance snapshot.
func (c *Controller) Metrics() PerformanceMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// UpdateRenderStats records renderer statistics reported by the viewer.
func (c *Controller) UpdateRenderStats(drawCalls, triangles int, memoryBytes uint64) {
	c.mu.Lock()
	c.metrics.DrawCalls = drawCalls
	c.metrics.Triangles = triangles
	c.metrics.MemoryBytes = memoryBytes
	c.mu.Unlock()
}

// SetLevel applies level immediately, bypassing the decision loop and the
// device ceiling. The fps history is cleared. Automatic adjustment stays
// enabled unless SetAutoAdjust(false) is also called.
func (c *Controller) SetLevel(level QualityLevel) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, int(level))
	}
	c.mu.Lock()
	events := c.applyLocked(level, ReasonManual)
	c.restartWindowLocked()
	c.mu.Unlock()
	c.emit(events)
	return nil
}

// Reset restores the starting level, clears the history and the cooldown.
func (c *Controller) Reset() {
	c.mu.Lock()
	events := c.applyLocked(c.startLevel(), ReasonReset)
	c.restartWindowLocked()
	c.lastAdjust = time.Time{}
	c.metrics = PerformanceMetrics{}
	c.mu.Unlock()
	c.emit(events)
}

// Frame records a rendered frame at the controller's clock time.
func (c *Controller) Frame() {
	c.RecordFrame(c.opts.now())
}

// RecordFrame is the per-frame hook. The host calls it once for every
// rendered frame with the frame's timestamp; timestamps must be
// non-decreasing and come from the same clock as the controller's.
func (c *Controller) RecordFrame(now time.Time) {
	c.mu.Lock()
	if c.windowStart.IsZero() {
		c.windowStart = now
		c.lastFrame = now
		c.mu.Unlock()
		return
	}
	c.frames++
	if dt := now.Sub(c.lastFrame); dt > 0 {
		c.frameTimes.push(dt)
	}
	c.lastFrame = now
	events := c.aggregateLocked(now)
	c.mu.Unlock()
	c.emit(events)
}

// Tick aggregates a sample without a frame. The monitoring loop calls it
// from a timer so that a stalled renderer still produces (zero) samples.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	if c.windowStart.IsZero() {
		c.windowStart = now
		c.lastFrame = now
		c.mu.Unlock()
		return
	}
	events := c.aggregateLocked(now)
	c.mu.Unlock()
	c.emit(events)
}

// Run is the monitoring loop. It records every timestamp received on
// frames and ticks on the sample interval until ctx is done or frames is
// closed. It returns ctx.Err() on cancellation and nil when frames closes.
func (c *Controller) Run(ctx context.Context, frames <-chan time.Time) error {
	ticker := time.NewTicker(c.opts.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-frames:
			if !ok {
				return nil
			}
			c.RecordFrame(t)
		case <-ticker.C:
			c.Tick(c.opts.now())
		}
	}
}

// aggregateLocked turns the frames counted since windowStart into an fps
// sample once the sample interval has elapsed, then runs the decision.
// Caller must hold c.mu.
func (c *Controller) aggregateLocked(now time.Time) []event {
	elapsed := now.Sub(c.windowStart)
	if elapsed < c.opts.sampleInterval {
		return nil
	}

	fps := float64(c.frames) / elapsed.Seconds()
	c.frames = 0
	c.windowStart = now
	c.history.push(fps)

	c.metrics.FPS = fps
	c.metrics.AverageFPS = c.history.mean()
	c.metrics.Samples = c.history.len()
	c.metrics.FrameTime = time.Duration(c.frameTimes.mean())
	c.metrics.SampledAt = now

	Logger().Debug("lod: fps sample",
		"fps", fps,
		"avg", c.metrics.AverageFPS,
		"samples", c.metrics.Samples,
		"level", c.level.String())

	if !c.autoAdjust || c.history.len() < c.opts.minSamples {
		return nil
	}
	if !c.lastAdjust.IsZero() && now.Sub(c.lastAdjust) < c.opts.cooldown {
		return nil
	}
	return c.decideLocked(now, c.metrics.AverageFPS)
}

// decideLocked applies the hysteresis rules. Caller must hold c.mu.
func (c *Controller) decideLocked(now time.Time, avg float64) []event {
	switch {
	case avg < c.opts.minFPS:
		if c.level > LowestQuality {
			c.lastAdjust = now
			reason := fmt.Sprintf("average %.1f fps below minimum %.0f fps", avg, c.opts.minFPS)
			return c.applyLocked(c.level-1, reason)
		}
		// Already at the floor: warn once per window instead of every sample.
		c.history.reset()
		c.lastAdjust = now
		msg := fmt.Sprintf("average %.1f fps below minimum %.0f fps at lowest quality", avg, c.opts.minFPS)
		Logger().Warn("lod: "+msg, "level", c.level.String())
		return []event{func(o observers) { o.PerformanceWarning(msg) }}

	case avg > c.opts.targetFPS*c.opts.upgradeMargin && c.hasCeiling && c.level < c.ceiling:
		c.lastAdjust = now
		reason := fmt.Sprintf("average %.1f fps above %.0f fps", avg, c.opts.targetFPS*c.opts.upgradeMargin)
		return c.applyLocked(c.level+1, reason)
	}
	return nil
}

// applyLocked switches to level and clears the fps history.
// Caller must hold c.mu.
func (c *Controller) applyLocked(level QualityLevel, reason string) []event {
	prev := c.level
	c.level = level
	c.features = FeaturesFor(level)
	c.history.reset()
	c.metrics.AverageFPS = 0
	c.metrics.Samples = 0

	features := c.features
	Logger().Info("lod: quality changed",
		"from", prev.String(),
		"to", level.String(),
		"reason", reason)
	return []event{func(o observers) { o.QualityChange(features, reason) }}
}

// restartWindowLocked discards the partially counted sample window.
func (c *Controller) restartWindowLocked() {
	c.frames = 0
	c.windowStart = time.Time{}
}

func (c *Controller) emit(events []event) {
	for _, e := range events {
		e(c.opts.observers)
	}
}
