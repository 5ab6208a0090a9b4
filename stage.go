// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"fmt"
	"time"
)

// Stage is one step of progressive structure loading.
type Stage int

const (
	// StageNone is used for events that are not tied to a stage.
	StageNone Stage = iota

	// StagePreview shows a coarse trace as fast as possible.
	StagePreview

	// StageInteractive shows a representation cheap enough to rotate smoothly.
	StageInteractive

	// StageFull shows the controller's current quality level.
	StageFull
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StagePreview:
		return "preview"
	case StageInteractive:
		return "interactive"
	case StageFull:
		return "full"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Valid reports whether s is a loadable stage.
func (s Stage) Valid() bool {
	return s >= StagePreview && s <= StageFull
}

// Budget returns the advisory wall-clock target for the stage. Budgets
// drive progress reporting and budget-overrun warnings; they are not
// enforced deadlines.
func (s Stage) Budget() time.Duration {
	switch s {
	case StagePreview:
		return 200 * time.Millisecond
	case StageInteractive:
		return time.Second
	case StageFull:
		return 3 * time.Second
	default:
		return 0
	}
}

// MaxQuality returns the highest level a stage renders at. The Full stage
// is uncapped and follows the Quality Controller.
func (s Stage) MaxQuality() QualityLevel {
	switch s {
	case StagePreview:
		return QualityMinimal
	case StageInteractive:
		return QualityMedium
	default:
		return HighestQuality
	}
}

// ParseStage parses a stage name as returned by String.
func ParseStage(name string) (Stage, error) {
	for s := StagePreview; s <= StageFull; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return StageNone, fmt.Errorf("%w: %q", ErrInvalidStage, name)
}

// stagesUpTo returns the stages from Preview through target, in order.
func stagesUpTo(target Stage) []Stage {
	stages := make([]Stage, 0, int(target))
	for s := StagePreview; s <= target; s++ {
		stages = append(stages, s)
	}
	return stages
}

// StageResult records the outcome of one rendered stage.
type StageResult struct {
	Stage    Stage
	Level    QualityLevel
	Features RenderFeatureSet
	Duration time.Duration
	// AtomsRendered is the number of atoms the representation draws;
	// a backbone trace draws one atom per residue.
	AtomsRendered   int
	FPS             float64
	EstimatedMemory uint64
	// Degraded reports that the memory budget forced a cheaper level.
	Degraded bool
	Success  bool
	Err      error
}
