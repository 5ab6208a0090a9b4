// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"fmt"
	"time"
)

// PerformanceMetrics is a rolling snapshot of rendering performance,
// refreshed once per sampling tick.
type PerformanceMetrics struct {
	// FPS is the frame rate measured over the last sampling interval.
	FPS float64
	// AverageFPS is the mean over the fps history window.
	AverageFPS float64
	// FrameTime is the mean frame interval over the frame window.
	FrameTime   time.Duration
	DrawCalls   int
	Triangles   int
	MemoryBytes uint64
	// Samples is the number of fps samples in the history window.
	Samples   int
	SampledAt time.Time
}

// String returns a human-readable summary.
func (m PerformanceMetrics) String() string {
	return fmt.Sprintf("Perf[%.1f fps (avg %.1f over %d), %.2f ms/frame, %d draws, %d tris, %d MB]",
		m.FPS, m.AverageFPS, m.Samples,
		float64(m.FrameTime)/float64(time.Millisecond),
		m.DrawCalls, m.Triangles, m.MemoryBytes/(1024*1024))
}

// ring is a fixed-capacity FIFO that overwrites its oldest entry.
type ring[T ~int64 | ~float64] struct {
	buf  []T
	next int
	full bool
}

func newRing[T ~int64 | ~float64](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	r.buf[r.next] = v
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *ring[T]) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

func (r *ring[T]) reset() {
	r.next = 0
	r.full = false
}

// mean returns the arithmetic mean, or zero when empty.
func (r *ring[T]) mean() float64 {
	n := r.len()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(r.buf[i])
	}
	return sum / float64(n)
}
