// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/config"
	"github.com/gogpu/lod/metrics"
	"github.com/gogpu/lod/prefs"
	"github.com/prometheus/client_golang/prometheus"
)

func openStore(t *testing.T) *prefs.Store {
	t.Helper()
	s, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("prefs.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRun(t *testing.T) {
	store := openStore(t)
	s := &Session{Config: config.Default(), Device: highDevice(), Store: store}

	rep, err := s.Run(context.Background(), syntheticStructure("S1", 2000, 2), lod.StageFull, SimOptions{Seconds: 5, Seed: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.SessionID == "" || rep.Structure != "S1" || rep.Atoms != 2000 {
		t.Errorf("report header = %+v", rep)
	}
	if len(rep.Stages) != 3 {
		t.Fatalf("stages = %d, want 3", len(rep.Stages))
	}
	wantStages := []string{"preview", "interactive", "full"}
	for i, st := range rep.Stages {
		if st.Stage != wantStages[i] || !st.Success {
			t.Errorf("stage %d = %+v", i, st)
		}
	}
	if rep.StartLevel != "high" || rep.FinalLevel != "high" || rep.SimulatedSeconds != 5 {
		t.Errorf("levels %s -> %s over %d s", rep.StartLevel, rep.FinalLevel, rep.SimulatedSeconds)
	}
	if rep.AverageFPS <= 0 {
		t.Errorf("AverageFPS = %v", rep.AverageFPS)
	}
	if !strings.HasPrefix(rep.PlanCache, "3 plans") {
		t.Errorf("PlanCache = %q, want three distinct plans", rep.PlanCache)
	}

	loads, err := store.Loads(prefs.DeviceKey(highDevice()))
	if err != nil || len(loads) != 1 || loads[0].SessionID != rep.SessionID {
		t.Errorf("recorded loads = %+v, %v", loads, err)
	}
}

func TestSessionOverridePersists(t *testing.T) {
	store := openStore(t)
	first := &Session{Device: highDevice(), Store: store, Override: lod.QualityLow, HasOverride: true}
	rep, err := first.Run(context.Background(), syntheticStructure("P", 500, 1), lod.StagePreview, SimOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Timeline) == 0 || rep.Timeline[0].Reason != lod.ReasonManual {
		t.Errorf("timeline = %+v, want the manual override first", rep.Timeline)
	}

	second := &Session{Device: highDevice(), Store: store}
	rep, err = second.Run(context.Background(), syntheticStructure("P", 500, 1), lod.StagePreview, SimOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if rep.StartLevel != "low" {
		t.Errorf("StartLevel = %s, want the saved low preference", rep.StartLevel)
	}
}

func TestSessionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Session{Device: highDevice()}
	rep, err := s.Run(ctx, syntheticStructure("C", 100, 1), lod.StageFull, SimOptions{Seconds: 10})
	if err != nil {
		t.Fatalf("Run() error = %v, cancellation is not an error", err)
	}
	if !rep.Cancelled || rep.SimulatedSeconds != 0 {
		t.Errorf("report = %+v, want cancelled without simulation", rep)
	}
}

func TestSessionMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatal(err)
	}
	s := &Session{Device: highDevice(), Metrics: m}
	if _, err := s.Run(context.Background(), syntheticStructure("M", 800, 1), lod.StageFull, SimOptions{Seconds: 3}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := writeMetrics(&buf, reg); err != nil {
		t.Fatalf("writeMetrics() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"lod_quality_level 3",
		`lod_stages_total{stage="full",status="success"} 1`,
		`lod_stage_duration_seconds{stage="preview"} count=1`,
		"lod_load_progress_percent 100",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSummary(t *testing.T) {
	rep := &SessionReport{
		Structure: "BIG", Atoms: 123456, Device: "sim", Tier: "high",
		Stages: []StageSummary{
			{Stage: "preview", Level: "minimal", Representation: "backbone", AtomsRendered: 15432, Success: true},
			{Stage: "full", Level: "medium", Representation: "cartoon", AtomsRendered: 123456, Degraded: true, Success: true},
		},
		SimulatedSeconds: 60, FinalLevel: "medium", AverageFPS: 58.25,
	}
	var buf bytes.Buffer
	writeSummary(&buf, rep)
	out := buf.String()
	for _, want := range []string{"123,456 atoms", "15,432", "degraded", "final quality medium"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
