// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package viewer

import (
	"fmt"
	"strings"

	"github.com/gogpu/lod"
)

// Op identifies a viewer command.
type Op int

const (
	// OpClear removes the previously applied representation.
	OpClear Op = iota
	// OpRepresentation selects the polymer representation (Arg).
	OpRepresentation
	// OpLigands selects the ligand style (Arg), or hides ligands ("hidden").
	OpLigands
	// OpAntiAliasing selects the anti-aliasing mode (Arg) and sample count (Value).
	OpAntiAliasing
	// OpRenderScale sets the resolution multiplier (Value).
	OpRenderScale
	// OpShadows toggles shadow mapping (Value 0 or 1).
	OpShadows
	// OpAmbientOcclusion toggles ambient occlusion (Value 0 or 1).
	OpAmbientOcclusion
	// OpShading binds the compiled shading program (Arg is its label).
	OpShading
	// OpDraw renders the structure with the state set above.
	OpDraw
)

var opNames = [...]string{
	OpClear:            "clear",
	OpRepresentation:   "representation",
	OpLigands:          "ligands",
	OpAntiAliasing:     "anti-aliasing",
	OpRenderScale:      "render-scale",
	OpShadows:          "shadows",
	OpAmbientOcclusion: "ambient-occlusion",
	OpShading:          "shading",
	OpDraw:             "draw",
}

// String returns the command name.
func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// Command is one call against the external viewer.
type Command struct {
	Op    Op
	Arg   string
	Value float64
}

// String returns the command in "op arg value" form.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Op.String())
	if c.Arg != "" {
		b.WriteByte(' ')
		b.WriteString(c.Arg)
	}
	switch c.Op {
	case OpAntiAliasing, OpRenderScale, OpShadows, OpAmbientOcclusion:
		fmt.Fprintf(&b, " %g", c.Value)
	}
	return b.String()
}

// Shading is the fragment shading program for a feature set.
type Shading struct {
	Label  string
	Source string   // WGSL
	SPIRV  []uint32 // compiled words, nil when compiled lazily by the backend
}

// Plan is the translation of one RenderFeatureSet into viewer commands.
// Plans are immutable once built and shared between calls.
type Plan struct {
	Features lod.RenderFeatureSet
	Commands []Command
	Shading  Shading
}

// Viewer vocabulary for each representation.
func representationName(r lod.Representation) string {
	switch r {
	case lod.RepresentationBackbone:
		return "trace"
	case lod.RepresentationSecondary:
		return "cartoon"
	case lod.RepresentationBallAndStick:
		return "ball-and-stick"
	case lod.RepresentationSurface:
		return "molecular-surface"
	default:
		return "cartoon"
	}
}

func ligandStyle(l lod.LigandDetail) string {
	switch l {
	case lod.LigandSimple:
		return "stick"
	case lod.LigandDetailed:
		return "ball-and-stick"
	default:
		return "hidden"
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Translate builds the plan for f without compiling its shading program.
func Translate(f lod.RenderFeatureSet) *Plan {
	shading := shadingFor(f)
	return &Plan{
		Features: f,
		Shading:  shading,
		Commands: []Command{
			{Op: OpClear},
			{Op: OpRepresentation, Arg: representationName(f.Representation)},
			{Op: OpLigands, Arg: ligandStyle(f.Ligands)},
			{Op: OpAntiAliasing, Arg: f.AntiAliasing.String(), Value: float64(f.AntiAliasing.Samples())},
			{Op: OpRenderScale, Value: f.RenderScale},
			{Op: OpShadows, Value: flag(f.Shadows)},
			{Op: OpAmbientOcclusion, Value: flag(f.AmbientOcclusion)},
			{Op: OpShading, Arg: shading.Label},
			{Op: OpDraw},
		},
	}
}
