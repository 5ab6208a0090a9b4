// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lod provides adaptive level-of-detail rendering for large
// molecular structures.
//
// # Overview
//
// lod decides how much geometric and shading detail a viewer shows, loads
// that detail progressively, and adapts it at run time to sustain a target
// frame rate on hardware ranging from phones to workstations.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/lod"
//	    "github.com/gogpu/lod/probe"
//	    "github.com/gogpu/lod/viewer"
//	)
//
//	device := lod.Detect(ctx, probe.NewHAL())
//	ctrl := lod.NewController(device, lod.WithTargetFPS(60))
//	sched, _ := lod.NewScheduler(viewer.New(backend), ctrl)
//
//	go ctrl.Run(ctx, frames) // frames: one timestamp per rendered frame
//	report, err := sched.Load(ctx, structure, lod.StageFull)
//
// # Architecture
//
// The package is organized into:
//   - Detection: Detect and Classify map a RenderContext to a DeviceCapability
//   - Catalog: FeaturesFor maps each of five QualityLevels to a RenderFeatureSet
//   - Controller: a hysteresis control loop over per-second fps samples
//   - Scheduler: Preview, Interactive and Full stages under memory budgets
//
// Sub-packages provide the viewer translation layer (viewer), rendering
// context probes (probe), Prometheus export (metrics), preference
// persistence (prefs) and configuration loading (config).
//
// # Events
//
// Controller and Scheduler report stage start and completion, progress,
// quality changes, performance warnings, errors and cancellation through
// the Observer interface. Only a failure of the terminal stage is returned
// as an error; everything else degrades gracefully and is reported as an
// event.
package lod
