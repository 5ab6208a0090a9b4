// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewControllerStartLevel(t *testing.T) {
	tests := []struct {
		name   string
		device DeviceCapability
		opts   []ControllerOption
		want   QualityLevel
	}{
		{"low tier", lowDevice(), nil, QualityLow},
		{"medium tier", mediumDevice(), nil, QualityMedium},
		{"ultra tier", ultraDevice(), nil, QualityUltra},
		{"fallback", FallbackCapability(), nil, QualityLow},
		{"unknown device", DeviceCapability{}, nil, QualityLow},
		{"initial override", mediumDevice(), []ControllerOption{WithInitialQuality(QualityMinimal)}, QualityMinimal},
		{"override above ceiling", lowDevice(), []ControllerOption{WithInitialQuality(QualityHigh)}, QualityHigh},
		{"invalid override ignored", mediumDevice(), []ControllerOption{WithInitialQuality(QualityLevel(9))}, QualityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(tt.device, tt.opts...)
			if got := c.Level(); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
			if got := c.Features(); got != FeaturesFor(tt.want) {
				t.Errorf("Features() = %v, want %v", got, FeaturesFor(tt.want))
			}
		})
	}
}

func TestControllerOptionsNormalized(t *testing.T) {
	c := NewController(mediumDevice(),
		WithTargetFPS(-1),
		WithMinFPS(500),
		WithMinSamples(0),
		WithUpgradeMargin(0.5),
		WithSampleInterval(0),
		WithClock(nil),
	)
	if c.TargetFPS() != DefaultTargetFPS {
		t.Errorf("TargetFPS() = %v, want %v", c.TargetFPS(), DefaultTargetFPS)
	}
	if c.MinFPS() != DefaultTargetFPS/2 {
		t.Errorf("MinFPS() = %v, want %v", c.MinFPS(), DefaultTargetFPS/2)
	}
	if c.opts.minSamples != DefaultMinSamples {
		t.Errorf("minSamples = %d, want %d", c.opts.minSamples, DefaultMinSamples)
	}
	if c.opts.upgradeMargin != DefaultUpgradeMargin {
		t.Errorf("upgradeMargin = %v, want %v", c.opts.upgradeMargin, DefaultUpgradeMargin)
	}
	if c.opts.sampleInterval != DefaultSampleInterval {
		t.Errorf("sampleInterval = %v, want %v", c.opts.sampleInterval, DefaultSampleInterval)
	}
	if c.opts.now == nil {
		t.Error("nil clock not replaced")
	}
	if c.MemoryBudget() != DefaultMemoryBudget {
		t.Errorf("MemoryBudget() = %d, want %d", c.MemoryBudget(), DefaultMemoryBudget)
	}
}

func TestControllerNeedsMinimumSamples(t *testing.T) {
	clk := newFakeClock()
	c := NewController(mediumDevice(), WithClock(clk.Now))

	feed(c, clk, 10, DefaultMinSamples-1)
	if got := c.Level(); got != QualityMedium {
		t.Fatalf("after %d samples Level() = %v, want medium", DefaultMinSamples-1, got)
	}
	if got := c.Metrics().Samples; got != DefaultMinSamples-1 {
		t.Fatalf("Metrics().Samples = %d, want %d", got, DefaultMinSamples-1)
	}

	feed(c, clk, 10, 1)
	if got := c.Level(); got != QualityLow {
		t.Errorf("after %d samples Level() = %v, want low", DefaultMinSamples, got)
	}
	if got := c.Metrics().Samples; got != 0 {
		t.Errorf("history not cleared after transition: %d samples", got)
	}
}

func TestControllerDowngradeToFloor(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	c := NewController(mediumDevice(),
		WithClock(clk.Now),
		WithMinSamples(1),
		WithCooldown(0),
		WithObserver(rec.observer()),
	)

	feed(c, clk, 10, 5)

	if got := c.Level(); got != QualityMinimal {
		t.Fatalf("Level() = %v, want minimal", got)
	}
	want := []QualityLevel{QualityLow, QualityMinimal}
	if len(rec.changes) != len(want) {
		t.Fatalf("got %d quality changes, want %d", len(rec.changes), len(want))
	}
	for i, f := range rec.changes {
		if f.Level != want[i] {
			t.Errorf("change %d = %v, want %v", i, f.Level, want[i])
		}
	}
	// The remaining three samples were taken at the floor.
	if len(rec.warnings) != 3 {
		t.Errorf("got %d performance warnings, want 3", len(rec.warnings))
	}
}

func TestControllerUpgradeStopsAtCeiling(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	c := NewController(mediumDevice(),
		WithClock(clk.Now),
		WithInitialQuality(QualityMinimal),
		WithMinSamples(1),
		WithCooldown(0),
		WithObserver(rec.observer()),
	)

	feed(c, clk, 100, 10)

	if got := c.Level(); got != QualityMedium {
		t.Fatalf("Level() = %v, want medium (device ceiling)", got)
	}
	if len(rec.changes) != 2 {
		t.Fatalf("got %d quality changes, want 2", len(rec.changes))
	}
	for i, f := range rec.changes {
		if f.Level != QualityLow+QualityLevel(i) {
			t.Errorf("change %d = %v, want %v", i, f.Level, QualityLow+QualityLevel(i))
		}
	}
}

func TestControllerUnknownDeviceNeverUpgrades(t *testing.T) {
	clk := newFakeClock()
	c := NewController(DeviceCapability{}, WithClock(clk.Now), WithMinSamples(1), WithCooldown(0))

	feed(c, clk, 100, 10)
	if got := c.Level(); got != QualityLow {
		t.Errorf("Level() = %v, want low", got)
	}
}

func TestControllerHysteresisBand(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	c := NewController(ultraDevice(),
		WithClock(clk.Now),
		WithInitialQuality(QualityMedium),
		WithObserver(rec.observer()),
	)

	// 50 fps is above the minimum (30) and below target*margin (72).
	feed(c, clk, 50, 120)
	if len(rec.changes) != 0 {
		t.Errorf("got %d quality changes inside the hysteresis band", len(rec.changes))
	}
	if got := c.Metrics().AverageFPS; got != 50 {
		t.Errorf("Metrics().AverageFPS = %v, want 50", got)
	}
}

func TestControllerCooldown(t *testing.T) {
	clk := newFakeClock()
	c := NewController(mediumDevice(),
		WithClock(clk.Now),
		WithMinSamples(2),
		WithCooldown(5*time.Second),
	)

	feed(c, clk, 10, 2)
	if got := c.Level(); got != QualityLow {
		t.Fatalf("Level() = %v, want low after first decision", got)
	}

	// Four more samples satisfy the sample count but not the cooldown.
	feed(c, clk, 10, 4)
	if got := c.Level(); got != QualityLow {
		t.Fatalf("Level() = %v, want low during cooldown", got)
	}

	feed(c, clk, 10, 1)
	if got := c.Level(); got != QualityMinimal {
		t.Errorf("Level() = %v, want minimal once cooldown expired", got)
	}
}

func TestControllerTransitionsRespectCooldown(t *testing.T) {
	clk := newFakeClock()
	var at []time.Time
	c := NewController(ultraDevice(),
		WithClock(clk.Now),
		WithInitialQuality(QualityMinimal),
		WithMinSamples(1),
		WithCooldown(DefaultCooldown),
		WithObserver(ObserverFuncs{
			OnQualityChange: func(RenderFeatureSet, string) { at = append(at, clk.Now()) },
		}),
	)

	feed(c, clk, 100, 20)

	if len(at) < 2 {
		t.Fatalf("got %d transitions, want at least 2", len(at))
	}
	for i := 1; i < len(at); i++ {
		if gap := at[i].Sub(at[i-1]); gap < DefaultCooldown {
			t.Errorf("transitions %d and %d only %v apart", i-1, i, gap)
		}
	}
	if got := c.Level(); got != QualityUltra {
		t.Errorf("Level() = %v, want ultra", got)
	}
}

func TestControllerCooldownAcrossDirections(t *testing.T) {
	clk := newFakeClock()
	var levels []QualityLevel
	c := NewController(ultraDevice(),
		WithClock(clk.Now),
		WithInitialQuality(QualityMedium),
		WithMinSamples(1),
		WithCooldown(3*time.Second),
		WithObserver(ObserverFuncs{
			OnQualityChange: func(f RenderFeatureSet, _ string) { levels = append(levels, f.Level) },
		}),
	)

	// Three seconds well below the minimum, then three seconds above the
	// upgrade threshold.
	feed(c, clk, 20, 3)
	feed(c, clk, 80, 3)

	if len(levels) != 1 {
		t.Fatalf("transitions = %v, want exactly one", levels)
	}
	if levels[0] != QualityLow {
		t.Errorf("transition to %v, want low", levels[0])
	}
	if got := c.Level(); got != QualityLow {
		t.Errorf("Level() = %v, want low", got)
	}
}

func TestControllerAutoAdjustDisabled(t *testing.T) {
	clk := newFakeClock()
	c := NewController(mediumDevice(), WithClock(clk.Now), WithMinSamples(1), WithAutoAdjust(false))
	if c.AutoAdjust() {
		t.Fatal("AutoAdjust() = true, want false")
	}

	feed(c, clk, 10, 5)
	if got := c.Level(); got != QualityMedium {
		t.Errorf("Level() = %v, want medium with auto-adjust off", got)
	}
	if got := c.Metrics().FPS; got != 10 {
		t.Errorf("Metrics().FPS = %v, want 10 while auto-adjust is off", got)
	}

	c.SetAutoAdjust(true)
	feed(c, clk, 10, 1)
	if got := c.Level(); got != QualityLow {
		t.Errorf("Level() = %v, want low after re-enabling", got)
	}
}

func TestControllerSetLevel(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	c := NewController(lowDevice(), WithClock(clk.Now), WithObserver(rec.observer()))

	if err := c.SetLevel(QualityLevel(-1)); !errors.Is(err, ErrInvalidQuality) {
		t.Errorf("SetLevel(-1) error = %v, want ErrInvalidQuality", err)
	}

	feed(c, clk, 50, 3)
	if err := c.SetLevel(QualityUltra); err != nil {
		t.Fatalf("SetLevel(ultra) error = %v", err)
	}
	if got := c.Level(); got != QualityUltra {
		t.Errorf("Level() = %v, want ultra (manual override ignores ceiling)", got)
	}
	if got := c.Metrics().Samples; got != 0 {
		t.Errorf("Metrics().Samples = %d, want 0 after SetLevel", got)
	}
	if len(rec.reasons) != 1 || rec.reasons[0] != ReasonManual {
		t.Errorf("reasons = %v, want [manual override]", rec.reasons)
	}
}

func TestControllerReset(t *testing.T) {
	clk := newFakeClock()
	c := NewController(mediumDevice(), WithClock(clk.Now), WithMinSamples(1), WithCooldown(time.Hour))

	feed(c, clk, 10, 1)
	if c.Level() != QualityLow {
		t.Fatalf("Level() = %v, want low", c.Level())
	}
	c.UpdateRenderStats(12, 3400, 1<<20)

	c.Reset()
	if got := c.Level(); got != QualityMedium {
		t.Errorf("Level() after Reset = %v, want medium", got)
	}
	if got := c.Metrics(); got != (PerformanceMetrics{}) {
		t.Errorf("Metrics() after Reset = %+v, want zero", got)
	}

	// Reset clears the cooldown, so the next sample may decide again.
	feed(c, clk, 10, 1)
	if got := c.Level(); got != QualityLow {
		t.Errorf("Level() = %v, want low right after Reset", got)
	}
}

func TestControllerMetrics(t *testing.T) {
	clk := newFakeClock()
	c := NewController(mediumDevice(), WithClock(clk.Now))

	feed(c, clk, 40, 2)
	c.UpdateRenderStats(7, 120_000, 64<<20)

	m := c.Metrics()
	if m.FPS != 40 || m.AverageFPS != 40 {
		t.Errorf("FPS = %v avg %v, want 40", m.FPS, m.AverageFPS)
	}
	if m.FrameTime != 25*time.Millisecond {
		t.Errorf("FrameTime = %v, want 25ms", m.FrameTime)
	}
	if m.Samples != 2 {
		t.Errorf("Samples = %d, want 2", m.Samples)
	}
	if m.DrawCalls != 7 || m.Triangles != 120_000 || m.MemoryBytes != 64<<20 {
		t.Errorf("render stats = %d/%d/%d, want 7/120000/%d", m.DrawCalls, m.Triangles, m.MemoryBytes, 64<<20)
	}
	if !m.SampledAt.Equal(clk.Now()) {
		t.Errorf("SampledAt = %v, want %v", m.SampledAt, clk.Now())
	}
}

func TestControllerTickWithoutFrames(t *testing.T) {
	clk := newFakeClock()
	c := NewController(mediumDevice(), WithClock(clk.Now), WithMinSamples(3), WithCooldown(0))

	c.Tick(clk.Now())
	for range 3 {
		c.Tick(clk.Advance(time.Second))
	}
	if got := c.Metrics().FPS; got != 0 {
		t.Errorf("Metrics().FPS = %v, want 0 for a stalled renderer", got)
	}
	if got := c.Level(); got != QualityLow {
		t.Errorf("Level() = %v, want low after stalled samples", got)
	}
}

func TestControllerFrameUsesClock(t *testing.T) {
	clk := newFakeClock()
	c := NewController(mediumDevice(), WithClock(clk.Now))

	c.Frame()
	for range 20 {
		clk.Advance(50 * time.Millisecond)
		c.Frame()
	}
	if got := c.Metrics().FPS; got != 20 {
		t.Errorf("Metrics().FPS = %v, want 20", got)
	}
}

func TestControllerRun(t *testing.T) {
	t.Run("frames closed", func(t *testing.T) {
		clk := newFakeClock()
		c := NewController(mediumDevice(), WithClock(clk.Now))
		frames := make(chan time.Time)
		done := make(chan error, 1)
		go func() { done <- c.Run(context.Background(), frames) }()

		frames <- clk.Now()
		for range 10 {
			frames <- clk.Advance(100 * time.Millisecond)
		}
		close(frames)

		if err := <-done; err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
		if got := c.Metrics().FPS; got != 10 {
			t.Errorf("Metrics().FPS = %v, want 10", got)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		c := NewController(mediumDevice())
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- c.Run(ctx, make(chan time.Time)) }()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run() error = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Run() did not return after cancellation")
		}
	})
}

func TestControllerConcurrentUse(t *testing.T) {
	c := NewController(ultraDevice(), WithMinSamples(1), WithCooldown(0), WithSampleInterval(time.Millisecond))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			c.Frame()
		}
	}()
	for range 100 {
		_ = c.Level()
		_ = c.Features()
		_ = c.Metrics()
	}
	<-done
	if !c.Level().Valid() {
		t.Errorf("Level() = %v, not a valid level", c.Level())
	}
}
