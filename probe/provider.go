// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package probe

import (
	"context"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/lod"
)

// Provider probes a device owned by the host application. The host keeps
// ownership of the device; Provider never creates or destroys one.
type Provider struct {
	provider gpucontext.DeviceProvider
	name     string
	limits   gputypes.Limits
	devType  gputypes.DeviceType
	mobile   bool
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithAdapterName sets the adapter name reported in the capability.
func WithAdapterName(name string) ProviderOption {
	return func(p *Provider) { p.name = name }
}

// WithLimits sets the limits the host opened its device with. The
// default is gputypes.DefaultLimits.
func WithLimits(l gputypes.Limits) ProviderOption {
	return func(p *Provider) { p.limits = l }
}

// WithDeviceType sets the adapter type of the host device.
func WithDeviceType(t gputypes.DeviceType) ProviderOption {
	return func(p *Provider) { p.devType = t }
}

// WithMobileClient marks the host as a phone or tablet.
func WithMobileClient(mobile bool) ProviderOption {
	return func(p *Provider) { p.mobile = mobile }
}

// NewProvider creates a prober over a host device.
func NewProvider(dp gpucontext.DeviceProvider, opts ...ProviderOption) *Provider {
	p := &Provider{
		provider: dp,
		name:     "host",
		limits:   gputypes.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ lod.Prober = (*Provider)(nil)

// Probe reports the host device. It fails when the host has no device.
func (p *Provider) Probe(ctx context.Context) (lod.RenderContext, error) {
	if err := ctx.Err(); err != nil {
		return lod.RenderContext{}, err
	}
	if p.provider == nil || p.provider.Device() == nil {
		return lod.RenderContext{}, fmt.Errorf("%w: host provides no device", lod.ErrNoRenderContext)
	}
	lod.Logger().Debug("probe: host device",
		"adapter", p.name,
		"surfaceFormat", p.provider.SurfaceFormat())
	return lod.RenderContext{
		Adapter:    p.name,
		DeviceType: p.devType,
		Limits:     p.limits,
		Instancing: true,
		Modern:     true,
		Mobile:     p.mobile,
	}, nil
}
