// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// writeSummary prints a human-readable recap with grouped digits.
func writeSummary(w io.Writer, r *SessionReport) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "structure %s: %d atoms on %s (%s tier)\n", r.Structure, r.Atoms, r.Device, r.Tier)
	for _, s := range r.Stages {
		status := "ok"
		switch {
		case !s.Success:
			status = "failed"
		case s.Degraded:
			status = "degraded"
		}
		p.Fprintf(w, "  %-11s %-7s %-13s %8d atoms %8.1f MB  %s\n",
			s.Stage, s.Level, s.Representation, s.AtomsRendered, s.MemoryMB, status)
	}
	if r.Cancelled {
		p.Fprintf(w, "load cancelled\n")
	}
	p.Fprintf(w, "%d quality events over %d s, final quality %s at %.1f fps\n",
		len(r.Timeline), r.SimulatedSeconds, r.FinalLevel, r.AverageFPS)
}

// writeMetrics prints every sample of the gathered metric families in a
// compact name{labels} value form.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + labelString(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "%s %g\n", name, m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
