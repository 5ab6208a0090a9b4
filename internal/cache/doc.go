// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a small generic LRU cache with a soft limit.
//
//	c := cache.New[lod.RenderFeatureSet, *Plan](8)
//	plan, err := c.GetOrCreate(features, func() (*Plan, error) {
//	    return translate(features)
//	})
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
