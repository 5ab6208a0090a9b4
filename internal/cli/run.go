// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/metrics"
	"github.com/gogpu/lod/prefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	atomsFlag       int
	chainsFlag      int
	secondsFlag     int
	targetFlag      string
	qualityFlag     string
	throttleAtFlag  int
	throttleFactor  float64
	seedFlag        uint64
	renderDelayFlag time.Duration
	compileFlag     bool
	noPrefsFlag     bool
	metricsFlag     bool
	summaryFlag     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated viewer session",
	Long: `Run detects the device, loads a synthetic structure progressively and then
simulates user interaction while the quality controller adapts the level of
detail to the modelled frame rate. The session report is printed as YAML.

Manual choices made with --quality are saved per device and restored on the
next run unless --no-prefs is given.`,
	Example: `  # Load 50,000 atoms on the local GPU and simulate one minute
  lodsim run

  # A large structure on a client-reported device that throttles after 40 s
  lodsim run --report phone.yaml --atoms 120000 --throttle-at 40 --throttle-factor 0.5

  # Force medium quality and print Prometheus metrics afterwards
  lodsim run --quality medium --metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if err := checkSessionSize(atomsFlag, secondsFlag); err != nil {
			return err
		}
		target := cfg.TargetStage()
		if targetFlag != "" {
			t, err := lod.ParseStage(targetFlag)
			if err != nil {
				return err
			}
			target = t
		}

		device, err := detectDevice(ctx, reportFile)
		if err != nil {
			return err
		}

		s := &Session{
			Config:      cfg,
			Device:      device,
			Compile:     compileFlag,
			RenderDelay: renderDelayFlag,
		}
		if qualityFlag != "" {
			q, err := lod.ParseQualityLevel(qualityFlag)
			if err != nil {
				return err
			}
			s.Override, s.HasOverride = q, true
		}
		if !noPrefsFlag {
			store, err := prefs.Open(cfg.PrefsPath)
			if err != nil {
				return err
			}
			defer store.Close()
			s.Store = store
		}
		reg := prometheus.NewRegistry()
		if metricsFlag {
			s.Metrics = metrics.NewMetrics()
			if err := s.Metrics.Register(reg); err != nil {
				return err
			}
		}

		st := syntheticStructure(fmt.Sprintf("SIM%d", atomsFlag), atomsFlag, chainsFlag)
		rep, runErr := s.Run(ctx, st, target, SimOptions{
			Seconds:        secondsFlag,
			ThrottleAt:     throttleAtFlag,
			ThrottleFactor: throttleFactor,
			Seed:           seedFlag,
		})
		if rep == nil {
			return runErr
		}

		out := cmd.OutOrStdout()
		if summaryFlag {
			writeSummary(out, rep)
		} else if err := writeYAML(out, rep); err != nil {
			return err
		}
		if metricsFlag {
			if err := writeMetrics(out, reg); err != nil {
				return err
			}
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&atomsFlag, "atoms", 50_000, "number of atoms in the synthetic structure")
	runCmd.Flags().IntVar(&chainsFlag, "chains", 4, "number of chains in the synthetic structure")
	runCmd.Flags().IntVar(&secondsFlag, "seconds", 60, "simulated interaction time after loading")
	runCmd.Flags().StringVar(&targetFlag, "target", "", "last stage to load: preview, interactive or full (overrides config)")
	runCmd.Flags().StringVarP(&qualityFlag, "quality", "q", "", "manual quality choice: minimal, low, medium, high or ultra")
	runCmd.Flags().IntVar(&throttleAtFlag, "throttle-at", 0, "simulated second from which device throughput drops")
	runCmd.Flags().Float64Var(&throttleFactor, "throttle-factor", 0.5, "throughput multiplier while throttled")
	runCmd.Flags().Uint64Var(&seedFlag, "seed", 1, "seed of the frame-rate jitter")
	runCmd.Flags().DurationVar(&renderDelayFlag, "render-delay", time.Microsecond, "simulated render cost per atom")
	runCmd.Flags().BoolVar(&compileFlag, "compile", false, "compile shading variants to SPIR-V with naga")
	runCmd.Flags().BoolVar(&noPrefsFlag, "no-prefs", false, "do not read or save quality preferences")
	runCmd.Flags().BoolVar(&metricsFlag, "metrics", false, "print Prometheus metrics after the report")
	runCmd.Flags().BoolVar(&summaryFlag, "summary", false, "print a short text summary instead of YAML")
}
