// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

// DefaultMemoryBudget is the default GPU memory budget for one structure (256 MB).
const DefaultMemoryBudget uint64 = 256 << 20

// Reference framebuffer the render scale applies to.
const (
	referenceWidth  = 1920
	referenceHeight = 1080
)

// Per-vertex cost: position, normal, color (32 bytes) plus index data.
const (
	bytesPerVertex    = 44
	bytesPerOcclusion = 4
	shadowMapBytes    = 2048 * 2048 * 4
)

// Vertex density per representation. Backbone and secondary structure are
// tessellated per residue, ball-and-stick and surfaces per atom.
const (
	backboneVerticesPerResidue  = 16
	secondaryVerticesPerResidue = 96
	ballVerticesPerAtom         = sphereVertices
	bondVerticesPerBond         = cylinderVertices
)

// stageDensity scales tessellation for coarser stages.
func stageDensity(s Stage) float64 {
	switch s {
	case StagePreview:
		return 0.25
	case StageInteractive:
		return 0.5
	default:
		return 1.0
	}
}

// EstimateVertices returns the number of vertices f generates for c at
// the given stage.
func EstimateVertices(c StructureComplexity, stage Stage, f RenderFeatureSet) int {
	residues := c.ResidueCount
	if residues <= 0 || residues > c.AtomCount {
		residues = c.AtomCount
	}

	var v int
	switch f.Representation {
	case RepresentationBackbone:
		v = residues * backboneVerticesPerResidue
	case RepresentationSecondary:
		v = residues * secondaryVerticesPerResidue
	case RepresentationBallAndStick:
		v = c.AtomCount*ballVerticesPerAtom + c.BondCount*bondVerticesPerBond
	case RepresentationSurface:
		v = c.AtomCount * surfaceVertices
	}
	return int(float64(v) * stageDensity(stage))
}

// EstimateMemory returns the estimated GPU memory in bytes needed to
// render c with feature set f at the given stage: geometry buffers plus
// color, depth, shadow and occlusion targets.
func EstimateMemory(c StructureComplexity, stage Stage, f RenderFeatureSet) uint64 {
	vertices := uint64(EstimateVertices(c, stage, f))
	perVertex := uint64(bytesPerVertex)
	if f.AmbientOcclusion {
		perVertex += bytesPerOcclusion
	}
	geometry := vertices * perVertex

	scale := f.RenderScale
	if scale <= 0 {
		scale = 1
	}
	pixels := uint64(float64(referenceWidth) * scale * float64(referenceHeight) * scale)
	// color + depth, per sample
	framebuffer := pixels * 8 * uint64(f.AntiAliasing.Samples())
	if f.AntiAliasing != AntiAliasingNone {
		framebuffer += pixels * 4 // resolve / post-process target
	}
	if f.AmbientOcclusion {
		framebuffer += pixels // half-resolution, two channels
	}
	if f.Shadows {
		framebuffer += shadowMapBytes
	}
	return geometry + framebuffer
}

// affordable reports whether f fits the memory budget and the device's
// atom ceiling. Structures above the ceiling are limited to per-residue
// representations.
func affordable(c StructureComplexity, f RenderFeatureSet, cost, budget uint64, maxAtoms int) bool {
	if budget > 0 && cost > budget {
		return false
	}
	if maxAtoms > 0 && c.AtomCount > maxAtoms && f.Representation > RepresentationSecondary {
		return false
	}
	return true
}
