// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package viewer translates lod render feature sets into calls against an
// external 3D viewer.
//
// A feature set becomes a Plan: an ordered list of Commands (clear,
// representation, ligand style, anti-aliasing, render scale, shadows,
// ambient occlusion, shading, draw) plus a WGSL shading program compiled
// to SPIR-V with naga. Plans are cached per feature set, so switching back
// and forth between quality levels does not recompile.
//
// Usage:
//
//	adapter := viewer.New(viewer.BackendFunc(func(ctx context.Context, atoms []lod.Atom, p *viewer.Plan) error {
//	    for _, cmd := range p.Commands {
//	        scene.Apply(cmd)
//	    }
//	    return scene.WaitFrame(ctx)
//	}))
//	sched, err := lod.NewScheduler(adapter, ctrl)
package viewer
