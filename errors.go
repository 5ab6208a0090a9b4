// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuality is returned for a QualityLevel outside the defined scale.
	ErrInvalidQuality = errors.New("lod: invalid quality level")

	// ErrInvalidStage is returned when a load targets an undefined stage.
	ErrInvalidStage = errors.New("lod: invalid stage")

	// ErrNilStructure is returned when Load is called without a structure.
	ErrNilStructure = errors.New("lod: structure must not be nil")

	// ErrNilViewer is returned by NewScheduler when no viewer is supplied.
	ErrNilViewer = errors.New("lod: viewer must not be nil")

	// ErrNoRenderContext indicates that a prober could not create a
	// rendering context. Detect absorbs it and returns FallbackCapability.
	ErrNoRenderContext = errors.New("lod: rendering context unavailable")

	// ErrMemoryBudgetExceeded is reported (as a warning) when no
	// representation of a stage fits the configured memory budget.
	ErrMemoryBudgetExceeded = errors.New("lod: memory budget exceeded")
)

// StageError reports a viewer failure while rendering a stage.
// Only a failure of the terminal stage is returned from Scheduler.Load;
// earlier failures are delivered to observers and recorded in the report.
type StageError struct {
	Stage Stage
	Level QualityLevel
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("lod: %s stage failed at %s quality: %v", e.Stage, e.Level, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
