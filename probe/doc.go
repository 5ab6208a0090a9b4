// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package probe provides lod.Prober implementations that observe a real
// rendering context.
//
// Three probers are available:
//   - HAL creates a short-lived device through the wgpu HAL (Vulkan by
//     default) and reports the largest texture limits it could open with.
//   - Provider inspects a device already owned by the host application
//     through gpucontext.DeviceProvider.
//   - Report describes a context measured by a remote client, such as a
//     browser reporting its WebGL limits.
//
// All probers return an error wrapping lod.ErrNoRenderContext when no
// context can be created; lod.Detect turns that into the fallback
// capability.
package probe
