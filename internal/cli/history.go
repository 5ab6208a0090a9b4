// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"errors"
	"fmt"

	"github.com/gogpu/lod/prefs"
	"github.com/spf13/cobra"
)

var (
	deviceFilter string
	clearPrefs   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded structure loads",
	Example: `  lodsim history
  lodsim history --device "high/NVIDIA GeForce RTX 3070"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := prefs.Open(cfg.PrefsPath)
		if err != nil {
			return err
		}
		defer store.Close()

		loads, err := store.Loads(deviceFilter)
		if err != nil {
			return err
		}
		if len(loads) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no loads recorded")
			return nil
		}
		return writeYAML(cmd.OutOrStdout(), loads)
	},
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or clear the saved quality preference of the detected device",
	RunE: func(cmd *cobra.Command, args []string) error {
		device, err := detectDevice(cmd.Context(), reportFile)
		if err != nil {
			return err
		}
		store, err := prefs.Open(cfg.PrefsPath)
		if err != nil {
			return err
		}
		defer store.Close()

		key := prefs.DeviceKey(device)
		out := cmd.OutOrStdout()
		if clearPrefs {
			if err := store.Delete(key); err != nil {
				return err
			}
			fmt.Fprintf(out, "cleared preference for %s\n", key)
			return nil
		}

		p, err := store.Load(key)
		if errors.Is(err, prefs.ErrNotFound) {
			fmt.Fprintf(out, "no preference saved for %s\n", key)
			return nil
		}
		if err != nil {
			return err
		}
		return writeYAML(out, map[string]any{
			"device":      key,
			"quality":     p.Quality.String(),
			"auto_adjust": p.AutoAdjust,
			"updated_at":  p.UpdatedAt,
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd, prefsCmd)

	historyCmd.Flags().StringVar(&deviceFilter, "device", "", "only list loads on this device key")
	prefsCmd.Flags().BoolVar(&clearPrefs, "clear", false, "delete the saved preference")
}
