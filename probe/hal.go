// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package probe

import (
	"context"
	"fmt"
	"runtime"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/lod"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// textureSteps are the maximum 2D texture sizes requested when opening the
// probe device, largest first.
var textureSteps = [...]uint32{16384, 8192, 4096}

// HAL probes the local GPU through the wgpu HAL.
type HAL struct {
	backend hal.Backend
	mobile  bool
}

// HALOption configures a HAL prober.
type HALOption func(*HAL)

// WithBackend probes through b instead of the registered Vulkan backend.
func WithBackend(b hal.Backend) HALOption {
	return func(h *HAL) { h.backend = b }
}

// WithMobile overrides mobile detection, which defaults to the GOOS.
func WithMobile(mobile bool) HALOption {
	return func(h *HAL) { h.mobile = mobile }
}

// NewHAL creates a HAL prober.
func NewHAL(opts ...HALOption) *HAL {
	h := &HAL{mobile: runtime.GOOS == "android" || runtime.GOOS == "ios"}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ lod.Prober = (*HAL)(nil)

// Probe creates an instance, selects an adapter (discrete, then
// integrated, then the first one) and opens a device with the largest
// texture limit the adapter accepts. The device is destroyed before
// Probe returns.
func (h *HAL) Probe(ctx context.Context) (lod.RenderContext, error) {
	if err := ctx.Err(); err != nil {
		return lod.RenderContext{}, err
	}

	backend := h.backend
	if backend == nil {
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return lod.RenderContext{}, fmt.Errorf("%w: vulkan backend not available", lod.ErrNoRenderContext)
		}
		backend = b
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return lod.RenderContext{}, fmt.Errorf("%w: create instance: %w", lod.ErrNoRenderContext, err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return lod.RenderContext{}, fmt.Errorf("%w: no GPU adapters found", lod.ErrNoRenderContext)
	}
	selected := selectAdapter(adapters)

	var lastErr error
	for _, limits := range candidateLimits() {
		if err := ctx.Err(); err != nil {
			return lod.RenderContext{}, err
		}
		openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
		if err != nil {
			lastErr = err
			continue
		}
		openDev.Device.Destroy()

		lod.Logger().Debug("probe: device opened",
			"adapter", selected.Info.Name,
			"maxTexture", limits.MaxTextureDimension2D)
		return lod.RenderContext{
			Adapter:    selected.Info.Name,
			DeviceType: selected.Info.DeviceType,
			Limits:     limits,
			Instancing: true,
			Modern:     true,
			Mobile:     h.mobile,
		}, nil
	}
	return lod.RenderContext{}, fmt.Errorf("%w: open device on %s: %w", lod.ErrNoRenderContext, selected.Info.Name, lastErr)
}

// selectAdapter prefers a discrete GPU, then an integrated one.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// candidateLimits returns the limits to try, ending with the defaults.
func candidateLimits() []gputypes.Limits {
	base := gputypes.DefaultLimits()
	out := make([]gputypes.Limits, 0, len(textureSteps)+1)
	for _, size := range textureSteps {
		if size <= base.MaxTextureDimension2D {
			break
		}
		l := base
		l.MaxTextureDimension2D = size
		out = append(out, l)
	}
	return append(out, base)
}
