// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/lod"
)

// Report is a rendering context measured by a remote client, typically a
// browser reading the limits of a WebGL or WebGPU context.
type Report struct {
	// Renderer is the unmasked renderer string, e.g. "ANGLE (NVIDIA GeForce RTX 3070)".
	Renderer string `yaml:"renderer" json:"renderer"`
	// API is "webgpu", "webgl2" or "webgl".
	API            string `yaml:"api" json:"api"`
	MaxTextureSize int    `yaml:"max_texture_size" json:"max_texture_size"`
	Instancing     bool   `yaml:"instancing" json:"instancing"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
}

var _ lod.Prober = Report{}

var (
	mobileAgents      = []string{"Mobile", "Android", "iPhone", "iPad"}
	softwareRenderers = []string{"swiftshader", "llvmpipe", "software", "microsoft basic render"}
	discreteRenderers = []string{"nvidia", "geforce", "quadro", "radeon rx", "radeon pro", "amd"}
	integratedVendors = []string{"intel", "apple", "mali", "adreno", "powervr"}
)

// Probe converts the report into a render context. A report without a
// renderer or texture limit means the client could not create a context.
func (r Report) Probe(ctx context.Context) (lod.RenderContext, error) {
	if err := ctx.Err(); err != nil {
		return lod.RenderContext{}, err
	}
	if r.Renderer == "" || r.MaxTextureSize <= 0 {
		return lod.RenderContext{}, fmt.Errorf("%w: client reported no context", lod.ErrNoRenderContext)
	}

	renderer := strings.ToLower(r.Renderer)
	limits := gputypes.DefaultLimits()
	limits.MaxTextureDimension2D = uint32(r.MaxTextureSize)

	api := strings.ToLower(r.API)
	return lod.RenderContext{
		Adapter:    r.Renderer,
		DeviceType: deviceType(renderer),
		Limits:     limits,
		Instancing: r.Instancing,
		Modern:     (api == "webgpu" || api == "webgl2") && !containsAny(renderer, softwareRenderers),
		Mobile:     containsAny(r.UserAgent, mobileAgents),
	}, nil
}

// deviceType guesses the adapter type from a lowercase renderer string.
// Unknown renderers keep the zero DeviceType.
func deviceType(renderer string) gputypes.DeviceType {
	var t gputypes.DeviceType
	switch {
	case containsAny(renderer, softwareRenderers):
	case containsAny(renderer, discreteRenderers):
		t = gputypes.DeviceTypeDiscreteGPU
	case containsAny(renderer, integratedVendors):
		t = gputypes.DeviceTypeIntegratedGPU
	}
	return t
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
