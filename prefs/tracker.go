// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package prefs

import "github.com/gogpu/lod"

// Tracker is a lod.Observer that saves manual quality overrides for one
// device, so the next session starts where the user left off. Automatic
// changes are not persisted.
type Tracker struct {
	lod.NopObserver
	store  *Store
	device string
	auto   func() bool
}

// NewTracker creates a tracker for device. auto reports the controller's
// current auto-adjust setting; it is usually ctrl.AutoAdjust.
func NewTracker(s *Store, device string, auto func() bool) *Tracker {
	return &Tracker{store: s, device: device, auto: auto}
}

// QualityChange saves manual overrides.
func (t *Tracker) QualityChange(f lod.RenderFeatureSet, reason string) {
	if reason != lod.ReasonManual {
		return
	}
	p := Preference{Quality: f.Level, AutoAdjust: true}
	if t.auto != nil {
		p.AutoAdjust = t.auto()
	}
	if err := t.store.Save(t.device, p); err != nil {
		lod.Logger().Warn("prefs: save preference failed", "device", t.device, "err", err)
	}
}
