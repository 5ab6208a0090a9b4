// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"fmt"
	"strings"
)

// QualityLevel is an ordered rank selecting a bundle of rendering trade-offs.
// Higher levels cost more GPU time and memory.
type QualityLevel int

const (
	// QualityMinimal renders a backbone trace at half resolution.
	QualityMinimal QualityLevel = iota

	// QualityLow renders secondary structure without post-processing.
	QualityLow

	// QualityMedium renders secondary structure with fast anti-aliasing.
	QualityMedium

	// QualityHigh renders ball-and-stick with shadows and ambient occlusion.
	QualityHigh

	// QualityUltra renders molecular surfaces with multi-sample anti-aliasing.
	QualityUltra
)

// Bounds of the quality scale.
const (
	LowestQuality  = QualityMinimal
	HighestQuality = QualityUltra
)

var qualityNames = [...]string{
	QualityMinimal: "minimal",
	QualityLow:     "low",
	QualityMedium:  "medium",
	QualityHigh:    "high",
	QualityUltra:   "ultra",
}

// String returns the lowercase level name.
func (q QualityLevel) String() string {
	if !q.Valid() {
		return fmt.Sprintf("QualityLevel(%d)", int(q))
	}
	return qualityNames[q]
}

// Valid reports whether q is one of the five defined levels.
func (q QualityLevel) Valid() bool {
	return q >= LowestQuality && q <= HighestQuality
}

// Clamp returns q limited to [LowestQuality, HighestQuality].
func (q QualityLevel) Clamp() QualityLevel {
	if q < LowestQuality {
		return LowestQuality
	}
	if q > HighestQuality {
		return HighestQuality
	}
	return q
}

// QualityLevels returns all levels from lowest to highest.
func QualityLevels() []QualityLevel {
	levels := make([]QualityLevel, 0, len(qualityNames))
	for q := LowestQuality; q <= HighestQuality; q++ {
		levels = append(levels, q)
	}
	return levels
}

// ParseQualityLevel parses a level name as returned by String.
// Matching is case-insensitive.
func ParseQualityLevel(s string) (QualityLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for q, n := range qualityNames {
		if n == name {
			return QualityLevel(q), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
}

// MarshalText implements encoding.TextMarshaler.
func (q QualityLevel) MarshalText() ([]byte, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *QualityLevel) UnmarshalText(text []byte) error {
	v, err := ParseQualityLevel(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}
