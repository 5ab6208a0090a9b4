// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"strings"
	"testing"
)

func TestFeaturesForCatalog(t *testing.T) {
	tests := []struct {
		level   QualityLevel
		rep     Representation
		shadows bool
		ao      bool
		aa      AntiAliasing
		ligands LigandDetail
		scale   float64
	}{
		{QualityMinimal, RepresentationBackbone, false, false, AntiAliasingNone, LigandNone, 0.5},
		{QualityLow, RepresentationSecondary, false, false, AntiAliasingNone, LigandSimple, 0.75},
		{QualityMedium, RepresentationSecondary, false, false, AntiAliasingFast, LigandSimple, 1.0},
		{QualityHigh, RepresentationBallAndStick, true, true, AntiAliasingFast, LigandDetailed, 1.0},
		{QualityUltra, RepresentationSurface, true, true, AntiAliasingMultiSample, LigandDetailed, 1.0},
	}
	if len(tests) != len(QualityLevels()) {
		t.Fatalf("table covers %d levels, want %d", len(tests), len(QualityLevels()))
	}
	for _, level := range QualityLevels() {
		if f := catalog[level]; f.Level != level || f.RenderScale == 0 {
			t.Errorf("catalog[%v] = %v, want a populated entry", level, f)
		}
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			f := FeaturesFor(tt.level)
			if f.Level != tt.level {
				t.Errorf("Level = %v, want %v", f.Level, tt.level)
			}
			if f.Representation != tt.rep {
				t.Errorf("Representation = %v, want %v", f.Representation, tt.rep)
			}
			if f.Shadows != tt.shadows || f.AmbientOcclusion != tt.ao {
				t.Errorf("Shadows/AO = %t/%t, want %t/%t", f.Shadows, f.AmbientOcclusion, tt.shadows, tt.ao)
			}
			if f.AntiAliasing != tt.aa {
				t.Errorf("AntiAliasing = %v, want %v", f.AntiAliasing, tt.aa)
			}
			if f.Ligands != tt.ligands {
				t.Errorf("Ligands = %v, want %v", f.Ligands, tt.ligands)
			}
			if f.RenderScale != tt.scale {
				t.Errorf("RenderScale = %v, want %v", f.RenderScale, tt.scale)
			}
		})
	}
}

func TestFeaturesForMonotonic(t *testing.T) {
	levels := QualityLevels()
	for i := 1; i < len(levels); i++ {
		prev, cur := FeaturesFor(levels[i-1]), FeaturesFor(levels[i])
		if cur.Representation < prev.Representation {
			t.Errorf("%v representation cheaper than %v", cur.Level, prev.Level)
		}
		if cur.AntiAliasing < prev.AntiAliasing || cur.Ligands < prev.Ligands || cur.RenderScale < prev.RenderScale {
			t.Errorf("%v has less detail than %v", cur.Level, prev.Level)
		}
		if prev.Shadows && !cur.Shadows || prev.AmbientOcclusion && !cur.AmbientOcclusion {
			t.Errorf("%v drops an effect enabled at %v", cur.Level, prev.Level)
		}
	}
}

func TestFeaturesForDeterministic(t *testing.T) {
	for _, level := range QualityLevels() {
		a := FeaturesFor(level)
		a.Shadows = !a.Shadows // mutating a copy must not affect the catalog
		if b := FeaturesFor(level); b == a {
			t.Errorf("FeaturesFor(%v) returned shared state", level)
		}
		if FeaturesFor(level) != FeaturesFor(level) {
			t.Errorf("FeaturesFor(%v) not deterministic", level)
		}
	}
}

func TestFeaturesForOutOfRange(t *testing.T) {
	if got := FeaturesFor(QualityLevel(-2)); got != FeaturesFor(QualityMinimal) {
		t.Errorf("FeaturesFor(-2) = %v, want minimal", got)
	}
	if got := FeaturesFor(QualityLevel(99)); got != FeaturesFor(QualityUltra) {
		t.Errorf("FeaturesFor(99) = %v, want ultra", got)
	}
}

func TestFeatureNames(t *testing.T) {
	if got := RepresentationSecondary.String(); got != "secondary-structure" {
		t.Errorf("RepresentationSecondary.String() = %q", got)
	}
	if got := AntiAliasingFast.String(); got != "fxaa" {
		t.Errorf("AntiAliasingFast.String() = %q", got)
	}
	if AntiAliasingMultiSample.Samples() != 4 || AntiAliasingFast.Samples() != 1 {
		t.Error("unexpected anti-aliasing sample counts")
	}
	s := FeaturesFor(QualityHigh).String()
	for _, want := range []string{"high", "ball-and-stick", "shadows=true", "aa=fxaa", "scale=1.00"} {
		if !strings.Contains(s, want) {
			t.Errorf("FeaturesFor(high).String() = %q, missing %q", s, want)
		}
	}
}
