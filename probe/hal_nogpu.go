// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package probe

import (
	"context"
	"fmt"

	"github.com/gogpu/lod"
)

// HAL is unavailable in nogpu builds; Probe always fails.
type HAL struct{}

// HALOption configures a HAL prober.
type HALOption func(*HAL)

// NewHAL creates a HAL prober.
func NewHAL(...HALOption) *HAL { return &HAL{} }

// Probe reports that no rendering context exists.
func (*HAL) Probe(context.Context) (lod.RenderContext, error) {
	return lod.RenderContext{}, fmt.Errorf("%w: built with nogpu", lod.ErrNoRenderContext)
}
