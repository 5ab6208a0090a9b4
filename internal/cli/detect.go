// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/probe"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// reportFile is the path of a client-measured probe.Report (YAML).
var reportFile string

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect and classify the rendering device",
	Long: `Detect probes the rendering context once and prints the resulting device
capability. Without --report the local GPU is probed through wgpu; with
--report the limits measured by a remote client are classified instead.
Detection never fails: an unavailable context yields the low-tier fallback.`,
	Example: `  # Probe the local GPU
  lodsim detect

  # Classify limits reported by a browser client
  lodsim detect --report client.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := detectDevice(cmd.Context(), reportFile)
		if err != nil {
			return err
		}
		return writeYAML(cmd.OutOrStdout(), newDeviceSummary(d))
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.PersistentFlags().StringVar(&reportFile, "report", "", "classify a client-measured render report (YAML) instead of probing the local GPU")
}

// detectDevice classifies the context described by path, or the local GPU
// when path is empty. Only a malformed report file is an error.
func detectDevice(ctx context.Context, path string) (lod.DeviceCapability, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if path == "" {
		return lod.Detect(ctx, probe.NewHAL()), nil
	}
	r, err := readReport(path)
	if err != nil {
		return lod.DeviceCapability{}, err
	}
	return lod.Detect(ctx, r), nil
}

func readReport(path string) (probe.Report, error) {
	var r probe.Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read render report: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse render report %s: %w", path, err)
	}
	return r, nil
}

// deviceSummary is the serialized form of a lod.DeviceCapability.
type deviceSummary struct {
	Tier           string `yaml:"tier" json:"tier"`
	Adapter        string `yaml:"adapter" json:"adapter"`
	MaxTextureSize int    `yaml:"max_texture_size" json:"max_texture_size"`
	Instancing     bool   `yaml:"instancing" json:"instancing"`
	Recommended    string `yaml:"recommended_quality" json:"recommended_quality"`
	MaxAtoms       int    `yaml:"max_atoms" json:"max_atoms"`
	Fallback       bool   `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

func newDeviceSummary(d lod.DeviceCapability) deviceSummary {
	return deviceSummary{
		Tier:           d.Tier.String(),
		Adapter:        d.Adapter,
		MaxTextureSize: d.MaxTextureSize,
		Instancing:     d.Instancing,
		Recommended:    d.RecommendedQuality.String(),
		MaxAtoms:       d.MaxAtoms,
		Fallback:       d.Fallback,
	}
}
