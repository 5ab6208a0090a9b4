// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/internal/cache"
)

// ErrNilBackend is returned when an Adapter has no backend to render with.
var ErrNilBackend = errors.New("viewer: backend must not be nil")

// Backend is the external 3D viewer. Execute applies the plan's commands
// to atoms and returns once the frame with the new state has been
// rendered, or ctx is done.
type Backend interface {
	Execute(ctx context.Context, atoms []lod.Atom, plan *Plan) error
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, atoms []lod.Atom, plan *Plan) error

// Execute calls f.
func (f BackendFunc) Execute(ctx context.Context, atoms []lod.Atom, plan *Plan) error {
	return f(ctx, atoms, plan)
}

// DefaultCacheSize holds one plan per quality level with headroom.
const DefaultCacheSize = 8

// Adapter implements lod.Viewer on top of a Backend. It translates each
// feature set into a Plan, compiles the plan's shading program and caches
// the result per feature set until ResetCache is called.
//
// Adapter is safe for concurrent use.
type Adapter struct {
	backend Backend
	compile Compiler
	plans   *cache.Cache[lod.RenderFeatureSet, *Plan]
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCompiler replaces the shading compiler. A nil compiler leaves
// shading uncompiled for backends that compile WGSL themselves.
func WithCompiler(c Compiler) Option {
	return func(a *Adapter) { a.compile = c }
}

// WithCacheSize sets the plan cache soft limit.
func WithCacheSize(n int) Option {
	return func(a *Adapter) { a.plans = cache.New[lod.RenderFeatureSet, *Plan](n) }
}

// New creates an Adapter rendering through b. Shading is compiled with
// NagaCompiler unless WithCompiler is given.
func New(b Backend, opts ...Option) *Adapter {
	a := &Adapter{
		backend: b,
		compile: NagaCompiler,
		plans:   cache.New[lod.RenderFeatureSet, *Plan](DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ lod.Viewer = (*Adapter)(nil)

// ApplyFeatures translates features and executes the plan on the backend.
func (a *Adapter) ApplyFeatures(ctx context.Context, atoms []lod.Atom, features lod.RenderFeatureSet) error {
	if a.backend == nil {
		return ErrNilBackend
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	plan, err := a.Plan(features)
	if err != nil {
		return err
	}
	if err := a.backend.Execute(ctx, atoms, plan); err != nil {
		return fmt.Errorf("viewer: render %s: %w", features.Level, err)
	}
	return nil
}

// Plan returns the cached plan for features, building it on first use.
func (a *Adapter) Plan(features lod.RenderFeatureSet) (*Plan, error) {
	return a.plans.GetOrCreate(features, func() (*Plan, error) {
		p := Translate(features)
		if a.compile != nil {
			words, err := a.compile(p.Shading.Source)
			if err != nil {
				return nil, fmt.Errorf("viewer: %s shading: %w", features.Level, err)
			}
			p.Shading.SPIRV = words
		}
		lod.Logger().Debug("viewer: plan built",
			"level", features.Level.String(),
			"commands", len(p.Commands),
			"spirvWords", len(p.Shading.SPIRV))
		return p, nil
	})
}

// ResetCache drops all cached plans. The scheduler calls it when a new
// structure loads.
func (a *Adapter) ResetCache() {
	a.plans.Clear()
}

// CacheStats reports plan cache usage.
type CacheStats struct {
	Plans  int
	Hits   uint64
	Misses uint64
}

// CacheStats returns plan cache statistics.
func (a *Adapter) CacheStats() CacheStats {
	s := a.plans.Stats()
	return CacheStats{Plans: s.Len, Hits: s.Hits, Misses: s.Misses}
}
