// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		rc   RenderContext
		tier Tier
		want QualityLevel
	}{
		{"mobile with big limits", RenderContext{Modern: true, Mobile: true, Instancing: true,
			DeviceType: gputypes.DeviceTypeDiscreteGPU, Limits: limits(16384)}, TierLow, QualityLow},
		{"legacy context", RenderContext{Instancing: true, Limits: limits(16384)}, TierLow, QualityLow},
		{"small textures", RenderContext{Modern: true, Instancing: true, Limits: limits(2048)}, TierLow, QualityLow},
		{"discrete 16k instancing", RenderContext{Modern: true, Instancing: true,
			DeviceType: gputypes.DeviceTypeDiscreteGPU, Limits: limits(16384)}, TierUltra, QualityUltra},
		{"integrated 16k instancing", RenderContext{Modern: true, Instancing: true,
			DeviceType: gputypes.DeviceTypeIntegratedGPU, Limits: limits(16384)}, TierHigh, QualityHigh},
		{"8k instancing", RenderContext{Modern: true, Instancing: true, Limits: limits(8192)}, TierHigh, QualityHigh},
		{"8k without instancing", RenderContext{Modern: true, Limits: limits(8192)}, TierMedium, QualityMedium},
		{"4k instancing", RenderContext{Modern: true, Instancing: true, Limits: limits(4096)}, TierMedium, QualityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.rc)
			if d.Tier != tt.tier {
				t.Errorf("Tier = %v, want %v", d.Tier, tt.tier)
			}
			if d.RecommendedQuality != tt.want {
				t.Errorf("RecommendedQuality = %v, want %v", d.RecommendedQuality, tt.want)
			}
			if d.MaxTextureSize != tt.rc.MaxTextureSize() {
				t.Errorf("MaxTextureSize = %d, want %d", d.MaxTextureSize, tt.rc.MaxTextureSize())
			}
			if d.MaxAtoms <= 0 || d.Fallback {
				t.Errorf("unexpected capability %+v", d)
			}
			if Classify(tt.rc) != d {
				t.Error("Classify is not deterministic")
			}
		})
	}
}

func TestClassifyMaxAtomsGrowsWithTier(t *testing.T) {
	prev := 0
	for tier := TierLow; tier <= TierUltra; tier++ {
		p := tierProfiles[tier]
		if p.maxAtoms <= prev {
			t.Errorf("%v max atoms %d not above %d", tier, p.maxAtoms, prev)
		}
		prev = p.maxAtoms
	}
}

func TestDeviceCapabilityCeiling(t *testing.T) {
	if _, ok := (DeviceCapability{}).Ceiling(); ok {
		t.Error("zero capability reports a ceiling")
	}
	if _, ok := (DeviceCapability{Tier: TierHigh, RecommendedQuality: QualityLevel(9)}).Ceiling(); ok {
		t.Error("invalid recommended quality reports a ceiling")
	}
	level, ok := mediumDevice().Ceiling()
	if !ok || level != QualityMedium {
		t.Errorf("Ceiling() = %v, %t; want medium, true", level, ok)
	}
}

func TestDetect(t *testing.T) {
	ctx := context.Background()

	t.Run("nil prober", func(t *testing.T) {
		d := Detect(ctx, nil)
		if !d.Fallback || d.Tier != TierLow || d.RecommendedQuality != QualityLow {
			t.Errorf("Detect(nil) = %+v, want fallback", d)
		}
	})

	t.Run("failing prober", func(t *testing.T) {
		d := Detect(ctx, proberFunc(func(context.Context) (RenderContext, error) {
			return RenderContext{}, fmt.Errorf("webgl: %w", ErrNoRenderContext)
		}))
		if d != FallbackCapability() {
			t.Errorf("Detect() = %+v, want FallbackCapability", d)
		}
	})

	t.Run("working prober", func(t *testing.T) {
		rc := RenderContext{Adapter: "Test GPU", Modern: true, Instancing: true, Limits: limits(8192)}
		d := Detect(ctx, proberFunc(func(context.Context) (RenderContext, error) { return rc, nil }))
		if d != Classify(rc) {
			t.Errorf("Detect() = %+v, want %+v", d, Classify(rc))
		}
		if d.Adapter != "Test GPU" {
			t.Errorf("Adapter = %q", d.Adapter)
		}
	})

	t.Run("context passed through", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		d := Detect(cctx, proberFunc(func(ctx context.Context) (RenderContext, error) {
			return RenderContext{}, ctx.Err()
		}))
		if !d.Fallback {
			t.Error("cancelled detection did not fall back")
		}
	})
}

func TestDeviceStrings(t *testing.T) {
	if got := Tier(9).String(); got != "Tier(9)" {
		t.Errorf("Tier(9).String() = %q", got)
	}
	s := ultraDevice().String()
	for _, want := range []string{"ultra tier", "test-ultra", "16384"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if !errors.Is(fmt.Errorf("probe: %w", ErrNoRenderContext), ErrNoRenderContext) {
		t.Error("ErrNoRenderContext does not unwrap")
	}
}
