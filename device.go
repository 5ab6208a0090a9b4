// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Tier is a coarse classification of client rendering power.
type Tier int

const (
	// TierUnknown means no classification was made. A capability with an
	// unknown tier has no quality ceiling.
	TierUnknown Tier = iota
	TierLow
	TierMedium
	TierHigh
	TierUltra
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierUnknown:
		return "unknown"
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierUltra:
		return "ultra"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// RenderContext describes the limits of a rendering context as observed
// by a Prober.
type RenderContext struct {
	// Adapter is a human-readable adapter name.
	Adapter    string
	DeviceType gputypes.DeviceType
	// Limits are the limits the device was successfully opened with.
	Limits gputypes.Limits
	// Instancing reports hardware instanced drawing support.
	Instancing bool
	// Modern reports a WebGPU/Vulkan/Metal/DX12 class context rather than
	// a legacy GL context.
	Modern bool
	// Mobile reports a phone or tablet client.
	Mobile bool
}

// MaxTextureSize returns the maximum 2D texture dimension.
func (rc RenderContext) MaxTextureSize() int {
	return int(rc.Limits.MaxTextureDimension2D)
}

// DeviceCapability is the result of device detection. It is computed once
// per viewer and read-only afterwards.
type DeviceCapability struct {
	Tier               Tier
	Adapter            string
	MaxTextureSize     int
	Instancing         bool
	RecommendedQuality QualityLevel
	// MaxAtoms is the largest structure the device renders atom-by-atom.
	MaxAtoms int
	// Fallback reports that detection failed and defaults were used.
	Fallback bool
}

// Ceiling returns the highest quality automatic adjustment may reach.
// ok is false when the device was never classified.
func (d DeviceCapability) Ceiling() (level QualityLevel, ok bool) {
	if d.Tier == TierUnknown || !d.RecommendedQuality.Valid() {
		return LowestQuality, false
	}
	return d.RecommendedQuality, true
}

// String returns a one-line description of the capability.
func (d DeviceCapability) String() string {
	return fmt.Sprintf("%s tier (%s, max texture %d, instancing %t, quality %s, max atoms %d)",
		d.Tier, d.Adapter, d.MaxTextureSize, d.Instancing, d.RecommendedQuality, d.MaxAtoms)
}

// Texture-size thresholds of the decision table.
const (
	minTextureSize   = 4096
	highTextureSize  = 8192
	ultraTextureSize = 16384
)

var tierProfiles = [...]struct {
	quality  QualityLevel
	maxAtoms int
}{
	TierLow:    {QualityLow, 20_000},
	TierMedium: {QualityMedium, 50_000},
	TierHigh:   {QualityHigh, 200_000},
	TierUltra:  {QualityUltra, 500_000},
}

// Classify maps a render context to a capability using a fixed decision
// table. It is deterministic:
//
//   - mobile clients are low tier regardless of limits
//   - legacy contexts or textures below 4096 are low tier
//   - textures >= 16384 with instancing on a discrete GPU are ultra tier
//   - textures >= 8192 with instancing are high tier
//   - everything else is medium tier
func Classify(rc RenderContext) DeviceCapability {
	maxTex := rc.MaxTextureSize()

	var tier Tier
	switch {
	case rc.Mobile:
		tier = TierLow
	case !rc.Modern || maxTex < minTextureSize:
		tier = TierLow
	case maxTex >= ultraTextureSize && rc.Instancing && rc.DeviceType == gputypes.DeviceTypeDiscreteGPU:
		tier = TierUltra
	case maxTex >= highTextureSize && rc.Instancing:
		tier = TierHigh
	default:
		tier = TierMedium
	}

	p := tierProfiles[tier]
	return DeviceCapability{
		Tier:               tier,
		Adapter:            rc.Adapter,
		MaxTextureSize:     maxTex,
		Instancing:         rc.Instancing,
		RecommendedQuality: p.quality,
		MaxAtoms:           p.maxAtoms,
	}
}

// FallbackCapability is the lowest-tier capability returned when no
// rendering context can be created.
func FallbackCapability() DeviceCapability {
	p := tierProfiles[TierLow]
	return DeviceCapability{
		Tier:               TierLow,
		Adapter:            "unavailable",
		RecommendedQuality: p.quality,
		MaxAtoms:           p.maxAtoms,
		Fallback:           true,
	}
}

// Prober creates (or inspects) a rendering context and reports its limits.
// Implementations live in the probe package.
type Prober interface {
	Probe(ctx context.Context) (RenderContext, error)
}

// Detect probes the rendering context once and classifies it.
// Detection never fails: if the prober is nil or returns an error, the
// lowest-tier FallbackCapability is returned and a warning is logged.
func Detect(ctx context.Context, p Prober) DeviceCapability {
	if p == nil {
		Logger().Warn("lod: no prober configured, using fallback capability")
		return FallbackCapability()
	}
	rc, err := p.Probe(ctx)
	if err != nil {
		Logger().Warn("lod: device detection failed, using fallback capability", "err", err)
		return FallbackCapability()
	}
	d := Classify(rc)
	Logger().Info("lod: device detected",
		"adapter", d.Adapter,
		"tier", d.Tier.String(),
		"maxTexture", d.MaxTextureSize,
		"quality", d.RecommendedQuality.String())
	return d
}
