// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

// Observer receives the events emitted by a Controller and a Scheduler.
// Methods are called synchronously from the emitting goroutine and never
// while an internal lock is held, so an observer may call back into the
// Controller or request cancellation.
//
// Embed NopObserver to implement only the events of interest.
type Observer interface {
	// StageStart is called before a stage is dispatched to the viewer.
	StageStart(stage Stage)

	// StageComplete is called after a stage finished, successfully or not.
	StageComplete(result StageResult)

	// Progress reports overall load progress in percent, weighted by
	// stage budgets.
	Progress(percent float64, stage Stage)

	// QualityChange is called when the controller applies a new level.
	QualityChange(features RenderFeatureSet, reason string)

	// PerformanceWarning reports a condition that degraded rendering
	// without failing it.
	PerformanceWarning(message string)

	// Error reports a failure. stage is StageNone for errors outside a load.
	Error(err error, stage Stage)

	// Cancelled is called when a load stops before stage because
	// cancellation was requested.
	Cancelled(stage Stage)
}

// NopObserver implements Observer with no-op methods.
type NopObserver struct{}

func (NopObserver) StageStart(Stage)                       {}
func (NopObserver) StageComplete(StageResult)              {}
func (NopObserver) Progress(float64, Stage)                {}
func (NopObserver) QualityChange(RenderFeatureSet, string) {}
func (NopObserver) PerformanceWarning(string)              {}
func (NopObserver) Error(error, Stage)                     {}
func (NopObserver) Cancelled(Stage)                        {}

// ObserverFuncs adapts optional functions to the Observer interface.
// Nil fields are skipped.
type ObserverFuncs struct {
	OnStageStart         func(stage Stage)
	OnStageComplete      func(result StageResult)
	OnProgress           func(percent float64, stage Stage)
	OnQualityChange      func(features RenderFeatureSet, reason string)
	OnPerformanceWarning func(message string)
	OnError              func(err error, stage Stage)
	OnCancelled          func(stage Stage)
}

func (o ObserverFuncs) StageStart(stage Stage) {
	if o.OnStageStart != nil {
		o.OnStageStart(stage)
	}
}

func (o ObserverFuncs) StageComplete(result StageResult) {
	if o.OnStageComplete != nil {
		o.OnStageComplete(result)
	}
}

func (o ObserverFuncs) Progress(percent float64, stage Stage) {
	if o.OnProgress != nil {
		o.OnProgress(percent, stage)
	}
}

func (o ObserverFuncs) QualityChange(features RenderFeatureSet, reason string) {
	if o.OnQualityChange != nil {
		o.OnQualityChange(features, reason)
	}
}

func (o ObserverFuncs) PerformanceWarning(message string) {
	if o.OnPerformanceWarning != nil {
		o.OnPerformanceWarning(message)
	}
}

func (o ObserverFuncs) Error(err error, stage Stage) {
	if o.OnError != nil {
		o.OnError(err, stage)
	}
}

func (o ObserverFuncs) Cancelled(stage Stage) {
	if o.OnCancelled != nil {
		o.OnCancelled(stage)
	}
}

// observers fans events out to every registered Observer in order.
type observers []Observer

func (obs observers) StageStart(stage Stage) {
	for _, o := range obs {
		o.StageStart(stage)
	}
}

func (obs observers) StageComplete(result StageResult) {
	for _, o := range obs {
		o.StageComplete(result)
	}
}

func (obs observers) Progress(percent float64, stage Stage) {
	for _, o := range obs {
		o.Progress(percent, stage)
	}
}

func (obs observers) QualityChange(features RenderFeatureSet, reason string) {
	for _, o := range obs {
		o.QualityChange(features, reason)
	}
}

func (obs observers) PerformanceWarning(message string) {
	for _, o := range obs {
		o.PerformanceWarning(message)
	}
}

func (obs observers) Error(err error, stage Stage) {
	for _, o := range obs {
		o.Error(err, stage)
	}
}

func (obs observers) Cancelled(stage Stage) {
	for _, o := range obs {
		o.Cancelled(stage)
	}
}
