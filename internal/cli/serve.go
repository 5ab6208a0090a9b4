// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/prefs"
	"github.com/spf13/cobra"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve detection and simulated sessions over HTTP",
	Long: `Serve exposes the simulator to browser clients:

  GET  /health       liveness and subscriber count
  GET  /metrics      Prometheus metrics of all sessions
  POST /v1/detect    classify a render report (JSON)
  POST /v1/sessions  run a simulated session for a render report
  GET  /v1/loads     recorded loads, optionally ?device=<key>
  GET  /v1/events    websocket stream of stage, progress and quality events`,
	Example: `  lodsim serve --addr :8090
  curl -d '{"renderer":"Apple GPU","api":"webgpu","max_texture_size":8192,"instancing":true}' localhost:8090/v1/detect`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var store *prefs.Store
		if !noPrefsFlag {
			s, err := prefs.Open(cfg.PrefsPath)
			if err != nil {
				return err
			}
			defer s.Close()
			store = s
		}
		svc, err := newService(cfg, store)
		if err != nil {
			return err
		}
		svc.renderDelay = renderDelayFlag

		addr := cfg.ListenAddr
		if addrFlag != "" {
			addr = addrFlag
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           svc.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			lod.Logger().Info("lodsim: listening", "addr", addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		lod.Logger().Info("lodsim: shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().BoolVar(&noPrefsFlag, "no-prefs", false, "do not read or save quality preferences")
	serveCmd.Flags().DurationVar(&renderDelayFlag, "render-delay", time.Microsecond, "simulated render cost per atom")
}
