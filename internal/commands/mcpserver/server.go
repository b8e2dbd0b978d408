// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package mcpserver implements the command that serves HRMLESS actions
// over MCP.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hrmless/adapter/internal/commands/shared"
	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/mcp/server"
)

// NewCommand creates the mcp command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol integration",
	}
	cmd.AddCommand(newServeCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var (
		metricsAddr string
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve HRMLESS actions as MCP tools over stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdio.

Every action is exposed as a tool named hrmless_<key>, plus
hrmless_connection_test to check the stored session. Tool arguments use
the flat input keys shown by 'hrmless actions schema'. The session is
read from the keychain on every call, so 'hrmless auth login' takes
effect without a restart.

Configuration example for an MCP client:
  {
    "mcpServers": {
      "hrmless": {
        "command": "hrmless",
        "args": ["mcp", "serve"]
      }
    }
  }

With --metrics-addr, Prometheus metrics for tool calls are served on
http://<addr>/metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, metricsAddr, all)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	cmd.Flags().BoolVar(&all, "all", false, "Also expose the position and settings maintenance actions")
	return cmd
}

func runServe(cmd *cobra.Command, metricsAddr string, all bool) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := shared.NewRuntime(ctx, shared.OptionsFromFlags(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

	srv, err := newServer(rt, all)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if metricsAddr != "" {
		stop, err := serveMetrics(metricsAddr, rt.Prometheus, rt.Logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		rt.Logger.Info("received shutdown signal, shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Error("error during shutdown", log.Error(err))
		}
		cancel()
	}()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// newServer builds the MCP server over the runtime's catalog, performer
// and session.
func newServer(rt *shared.Runtime, all bool) (*server.Server, error) {
	reg, err := rt.Registry(all)
	if err != nil {
		return nil, err
	}
	performer, err := rt.Performer()
	if err != nil {
		return nil, err
	}
	version, _, _ := shared.GetVersion()
	return server.NewServer(server.ServerConfig{
		Version:   version,
		Registry:  reg,
		Performer: performer,
		Session:   rt.Session,
		Tester:    rt.Auth,
		Logger:    rt.Logger,
	})
}

// metricsHandler serves reg on /metrics and a liveness probe on /healthz.
func metricsHandler(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// serveMetrics starts the metrics listener and returns a function that
// stops it.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, shared.NewInvalidUsageError(fmt.Sprintf("cannot listen on --metrics-addr %q", addr), err)
	}
	httpSrv := &http.Server{Handler: metricsHandler(reg), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", log.Error(err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctx)
	}, nil
}
