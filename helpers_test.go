// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"context"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// feed renders seconds worth of frames at a steady fps. fps must divide
// one second into whole nanoseconds so that every second yields exactly
// one sample of value fps.
func feed(c *Controller, clk *fakeClock, fps, seconds int) {
	c.Tick(clk.Now())
	step := time.Second / time.Duration(fps)
	for range fps * seconds {
		c.RecordFrame(clk.Advance(step))
	}
}

// limits returns default limits with the given maximum 2D texture size.
func limits(maxTexture uint32) gputypes.Limits {
	l := gputypes.DefaultLimits()
	l.MaxTextureDimension2D = maxTexture
	return l
}

type proberFunc func(context.Context) (RenderContext, error)

func (f proberFunc) Probe(ctx context.Context) (RenderContext, error) { return f(ctx) }

func lowDevice() DeviceCapability {
	return Classify(RenderContext{Adapter: "test-low", Modern: true, Mobile: true})
}

func mediumDevice() DeviceCapability {
	return Classify(RenderContext{Adapter: "test-medium", Modern: true, Limits: limits(4096)})
}

func ultraDevice() DeviceCapability {
	return DeviceCapability{
		Tier:               TierUltra,
		Adapter:            "test-ultra",
		MaxTextureSize:     16384,
		Instancing:         true,
		RecommendedQuality: QualityUltra,
		MaxAtoms:           500_000,
	}
}

// recorder collects observer events.
type recorder struct {
	mu       sync.Mutex
	events   []string
	changes  []RenderFeatureSet
	reasons  []string
	warnings []string
	errs     []error
	progress []float64
	results  []StageResult
}

func (r *recorder) observer() ObserverFuncs {
	return ObserverFuncs{
		OnStageStart: func(s Stage) { r.add("start " + s.String()) },
		OnStageComplete: func(res StageResult) {
			r.add("complete " + res.Stage.String())
			r.mu.Lock()
			r.results = append(r.results, res)
			r.mu.Unlock()
		},
		OnProgress: func(p float64, _ Stage) {
			r.mu.Lock()
			r.progress = append(r.progress, p)
			r.mu.Unlock()
		},
		OnQualityChange: func(f RenderFeatureSet, reason string) {
			r.add("change " + f.Level.String())
			r.mu.Lock()
			r.changes = append(r.changes, f)
			r.reasons = append(r.reasons, reason)
			r.mu.Unlock()
		},
		OnPerformanceWarning: func(msg string) {
			r.add("warning")
			r.mu.Lock()
			r.warnings = append(r.warnings, msg)
			r.mu.Unlock()
		},
		OnError: func(err error, s Stage) {
			r.add("error " + s.String())
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnCancelled: func(s Stage) { r.add("cancelled " + s.String()) },
	}
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}
