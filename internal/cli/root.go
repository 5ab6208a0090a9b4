// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cli implements the lodsim command line.
package cli

import (
	"log/slog"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/config"
	"github.com/spf13/cobra"
)

var (
	// cfgFile is the path given with --config.
	cfgFile string
	verbose bool

	// cfg is loaded once before any subcommand runs.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "lodsim",
		Short: "Simulate adaptive level-of-detail rendering sessions",
		Long: `lodsim detects the rendering device, loads a synthetic molecular structure
through the Preview, Interactive and Full stages, and then simulates an
interaction period during which the quality controller adapts the level of
detail to the frame rate.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
			return setupLogging(cmd, c)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./lod.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

func setupLogging(cmd *cobra.Command, c *config.Config) error {
	level, err := c.SlogLevel()
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	lod.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}
