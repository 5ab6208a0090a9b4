// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command lodsim runs simulated adaptive level-of-detail viewer sessions.
//
// Usage:
//
//	lodsim detect [--report client.yaml]
//	lodsim run [--atoms 50000] [--seconds 60] [--quality medium] [--metrics]
//	lodsim history [--device key]
//	lodsim prefs [--clear]
package main

import (
	"fmt"
	"os"

	"github.com/gogpu/lod/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
