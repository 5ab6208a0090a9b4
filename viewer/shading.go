// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package viewer

import (
	"fmt"

	"github.com/gogpu/lod"
	"github.com/gogpu/naga"
)

// Shading weights baked into the program for each feature set.
const (
	occlusionWeight = 0.8
	shadowFloor     = 0.25
)

// shadingTemplate is the WGSL program shared by all levels. Feature flags
// are baked in as constants so that the compiler drops disabled terms.
const shadingTemplate = `// lod shading: %s
struct Camera {
    view_proj: mat4x4<f32>,
    light_dir: vec4<f32>,
}

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) color: vec4<f32>,
    @location(3) occlusion: f32,
    @location(4) shadow: f32,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) normal: vec3<f32>,
    @location(1) color: vec4<f32>,
    @location(2) occlusion: f32,
    @location(3) shadow: f32,
}

@group(0) @binding(0) var<uniform> camera: Camera;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = camera.view_proj * vec4<f32>(in.position, 1.0);
    out.normal = in.normal;
    out.color = in.color;
    out.occlusion = in.occlusion;
    out.shadow = in.shadow;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let ao_weight: f32 = %.2f;
    let shadow_weight: f32 = %.2f;
    let n = normalize(in.normal);
    let diffuse = max(dot(n, -camera.light_dir.xyz), 0.0);
    let ao = 1.0 - ao_weight * (1.0 - in.occlusion);
    let shade = 1.0 - shadow_weight * in.shadow;
    let lit = (0.3 + 0.7 * diffuse * shade) * ao;
    return vec4<f32>(in.color.rgb * lit, in.color.a);
}
`

// shadingFor returns the uncompiled shading program for f.
func shadingFor(f lod.RenderFeatureSet) Shading {
	label := fmt.Sprintf("lod-%s-shadows%t-ao%t", f.Level, f.Shadows, f.AmbientOcclusion)
	var ao, shadow float64
	if f.AmbientOcclusion {
		ao = occlusionWeight
	}
	if f.Shadows {
		shadow = 1 - shadowFloor
	}
	return Shading{
		Label:  label,
		Source: fmt.Sprintf(shadingTemplate, label, ao, shadow),
	}
}

// Compiler turns WGSL source into SPIR-V words.
type Compiler func(wgsl string) ([]uint32, error)

// NagaCompiler compiles WGSL to SPIR-V with naga.
func NagaCompiler(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("viewer: compile shading: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
