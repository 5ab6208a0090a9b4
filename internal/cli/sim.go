// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/viewer"
)

// Vertex throughput per second for each tier, used by the frame-rate model.
var tierThroughput = [...]float64{
	lod.TierUnknown: 2e7,
	lod.TierLow:     3e7,
	lod.TierMedium:  1.2e8,
	lod.TierHigh:    4e8,
	lod.TierUltra:   1.2e9,
}

const maxSimFPS = 240

// frameModel estimates the frame rate a device sustains for a structure.
type frameModel struct {
	throughput float64
	complexity lod.StructureComplexity
	jitter     float64
	rng        *rand.Rand
}

func newFrameModel(d lod.DeviceCapability, c lod.StructureComplexity, seed uint64) *frameModel {
	t := tierThroughput[lod.TierUnknown]
	if int(d.Tier) < len(tierThroughput) {
		t = tierThroughput[d.Tier]
	}
	return &frameModel{
		throughput: t,
		complexity: c,
		jitter:     0.05,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// fps returns the frame rate for f with the throughput scaled by load.
func (m *frameModel) fps(f lod.RenderFeatureSet, load float64) float64 {
	cost := float64(lod.EstimateVertices(m.complexity, lod.StageFull, f))
	cost *= float64(f.AntiAliasing.Samples())
	if f.Shadows {
		cost *= 1.3
	}
	if f.AmbientOcclusion {
		cost *= 1.5
	}
	if cost < 1 {
		cost = 1
	}
	fps := m.throughput * load / cost
	if m.jitter > 0 {
		fps *= 1 + m.jitter*(2*m.rng.Float64()-1)
	}
	return math.Min(fps, maxSimFPS)
}

// simClock is a manually advanced clock shared with the controller.
type simClock struct{ t time.Time }

func (c *simClock) Now() time.Time { return c.t }

func (c *simClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

// QualityEvent is one entry of the session timeline.
type QualityEvent struct {
	Second  int    `yaml:"second" json:"second"`
	Level   string `yaml:"level,omitempty" json:"level,omitempty"`
	Reason  string `yaml:"reason,omitempty" json:"reason,omitempty"`
	Warning string `yaml:"warning,omitempty" json:"warning,omitempty"`
}

// timeline records controller events stamped with the simulated second.
type timeline struct {
	lod.NopObserver
	mu     sync.Mutex
	second int
	events []QualityEvent
}

func (t *timeline) setSecond(s int) {
	t.mu.Lock()
	t.second = s
	t.mu.Unlock()
}

func (t *timeline) QualityChange(f lod.RenderFeatureSet, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, QualityEvent{Second: t.second, Level: f.Level.String(), Reason: reason})
}

func (t *timeline) PerformanceWarning(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, QualityEvent{Second: t.second, Warning: msg})
}

// Events returns a copy of the recorded events.
func (t *timeline) Events() []QualityEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]QualityEvent(nil), t.events...)
}

// SimOptions parameterizes a simulated interaction period.
type SimOptions struct {
	Seconds int
	// ThrottleAt is the second from which throughput is multiplied by
	// ThrottleFactor, simulating thermal throttling or a busy host.
	// Zero disables throttling.
	ThrottleAt     int
	ThrottleFactor float64
	Seed           uint64
}

// simulate drives ctrl with synthetic frames for opts.Seconds simulated
// seconds. ctrl must use clk as its clock and tl as an observer.
func simulate(ctx context.Context, ctrl *lod.Controller, clk *simClock, tl *timeline, model *frameModel, opts SimOptions) error {
	ctrl.Tick(clk.Now())
	for second := 1; second <= opts.Seconds; second++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tl.setSecond(second)
		load := 1.0
		if opts.ThrottleAt > 0 && second >= opts.ThrottleAt && opts.ThrottleFactor > 0 {
			load = opts.ThrottleFactor
		}
		n := int(model.fps(ctrl.Features(), load))
		if n < 1 {
			ctrl.Tick(clk.Advance(time.Second))
			continue
		}
		step := time.Second / time.Duration(n)
		for range n {
			ctrl.RecordFrame(clk.Advance(step))
		}
		// Absorb the rounding remainder so every simulated second is whole.
		if rest := time.Second - step*time.Duration(n); rest > 0 {
			clk.Advance(rest)
		}
		ctrl.Tick(clk.Now())
	}
	return nil
}

// syntheticStructure builds a protein-like structure of the given size,
// split across chains with eight atoms per residue and a trailing ligand.
func syntheticStructure(id string, atoms int, chains int) *lod.Structure {
	if chains < 1 {
		chains = 1
	}
	names := [...]string{"N", "CA", "C", "O", "CB", "CG", "CD", "CE"}
	atoms = max(atoms, 0)
	st := &lod.Structure{ID: id, Atoms: make([]lod.Atom, 0, atoms)}

	perChain := atoms / chains
	for i := range atoms {
		chain := min(i/max(perChain, 1), chains-1)
		res := i / len(names)
		a := lod.Atom{
			Serial:     i + 1,
			Name:       names[i%len(names)],
			Element:    names[i%len(names)][:1],
			Residue:    "ALA",
			ResidueSeq: res + 1,
			Chain:      string(rune('A' + chain%26)),
			X:          float32(res) * 3.8,
			Y:          float32(i%len(names)) * 1.5,
			Z:          float32(chain) * 20,
		}
		// Close the structure with a small ligand.
		if i >= atoms-min(24, atoms/10) {
			a.Residue = "LIG"
			a.Hetero = true
		}
		st.Atoms = append(st.Atoms, a)
	}
	return st
}

// simBackend pretends to render: each call takes perAtom per drawn atom
// times the number of commands in the plan, and honors cancellation.
func simBackend(perAtom time.Duration) viewer.BackendFunc {
	return func(ctx context.Context, atoms []lod.Atom, plan *viewer.Plan) error {
		if plan == nil {
			return fmt.Errorf("lodsim: nil plan")
		}
		d := perAtom * time.Duration(len(atoms)) * time.Duration(len(plan.Commands)) / 10
		if d <= 0 {
			return ctx.Err()
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}
