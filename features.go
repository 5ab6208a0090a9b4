// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import "fmt"

// Representation is the geometric style used to draw a structure,
// ordered from cheapest to most expensive.
type Representation int

const (
	// RepresentationBackbone draws a trace through alpha carbons.
	RepresentationBackbone Representation = iota

	// RepresentationSecondary draws cartoon helices, sheets and coils.
	RepresentationSecondary

	// RepresentationBallAndStick draws every atom and bond.
	RepresentationBallAndStick

	// RepresentationSurface draws a solvent-excluded surface.
	RepresentationSurface
)

// String returns the representation name.
func (r Representation) String() string {
	switch r {
	case RepresentationBackbone:
		return "backbone"
	case RepresentationSecondary:
		return "secondary-structure"
	case RepresentationBallAndStick:
		return "ball-and-stick"
	case RepresentationSurface:
		return "surface"
	default:
		return fmt.Sprintf("Representation(%d)", int(r))
	}
}

// AntiAliasing selects the anti-aliasing technique.
type AntiAliasing int

const (
	// AntiAliasingNone disables anti-aliasing.
	AntiAliasingNone AntiAliasing = iota

	// AntiAliasingFast is a post-process approximation (FXAA).
	AntiAliasingFast

	// AntiAliasingMultiSample renders with 4x MSAA.
	AntiAliasingMultiSample
)

// String returns the anti-aliasing mode name.
func (a AntiAliasing) String() string {
	switch a {
	case AntiAliasingNone:
		return "none"
	case AntiAliasingFast:
		return "fxaa"
	case AntiAliasingMultiSample:
		return "msaa"
	default:
		return fmt.Sprintf("AntiAliasing(%d)", int(a))
	}
}

// Samples returns the number of framebuffer samples per pixel.
func (a AntiAliasing) Samples() int {
	if a == AntiAliasingMultiSample {
		return 4
	}
	return 1
}

// LigandDetail controls how ligands (non-polymer groups) are drawn.
type LigandDetail int

const (
	LigandNone LigandDetail = iota
	LigandSimple
	LigandDetailed
)

// String returns the ligand detail name.
func (l LigandDetail) String() string {
	switch l {
	case LigandNone:
		return "none"
	case LigandSimple:
		return "simple"
	case LigandDetailed:
		return "detailed"
	default:
		return fmt.Sprintf("LigandDetail(%d)", int(l))
	}
}

// RenderFeatureSet is the concrete set of rendering options for one
// QualityLevel. It is comparable and safe to copy.
type RenderFeatureSet struct {
	Level            QualityLevel
	Representation   Representation
	Shadows          bool
	AmbientOcclusion bool
	AntiAliasing     AntiAliasing
	Ligands          LigandDetail
	// RenderScale multiplies the canvas resolution, in [0.5, 1.0].
	RenderScale float64
}

// String returns a compact description of the feature set.
func (f RenderFeatureSet) String() string {
	return fmt.Sprintf("%s{%s shadows=%t ao=%t aa=%s ligands=%s scale=%.2f}",
		f.Level, f.Representation, f.Shadows, f.AmbientOcclusion,
		f.AntiAliasing, f.Ligands, f.RenderScale)
}

// catalog maps every QualityLevel to its feature set. The array length is
// fixed by HighestQuality; an omitted index would silently hold the zero
// RenderFeatureSet, so TestFeaturesForCatalog checks every level's entry.
var catalog = [HighestQuality + 1]RenderFeatureSet{
	QualityMinimal: {
		Level:          QualityMinimal,
		Representation: RepresentationBackbone,
		AntiAliasing:   AntiAliasingNone,
		Ligands:        LigandNone,
		RenderScale:    0.5,
	},
	QualityLow: {
		Level:          QualityLow,
		Representation: RepresentationSecondary,
		AntiAliasing:   AntiAliasingNone,
		Ligands:        LigandSimple,
		RenderScale:    0.75,
	},
	QualityMedium: {
		Level:          QualityMedium,
		Representation: RepresentationSecondary,
		AntiAliasing:   AntiAliasingFast,
		Ligands:        LigandSimple,
		RenderScale:    1.0,
	},
	QualityHigh: {
		Level:            QualityHigh,
		Representation:   RepresentationBallAndStick,
		Shadows:          true,
		AmbientOcclusion: true,
		AntiAliasing:     AntiAliasingFast,
		Ligands:          LigandDetailed,
		RenderScale:      1.0,
	},
	QualityUltra: {
		Level:            QualityUltra,
		Representation:   RepresentationSurface,
		Shadows:          true,
		AmbientOcclusion: true,
		AntiAliasing:     AntiAliasingMultiSample,
		Ligands:          LigandDetailed,
		RenderScale:      1.0,
	},
}

// FeaturesFor returns the catalog entry for level. Out-of-range levels are
// clamped to the nearest defined level.
func FeaturesFor(level QualityLevel) RenderFeatureSet {
	return catalog[level.Clamp()]
}
