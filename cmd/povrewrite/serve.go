package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/povrewrite"
	httpadapter "github.com/aretw0/povrewrite/pkg/adapters/http"
	"github.com/aretw0/povrewrite/pkg/adapters/mcp"
	"github.com/aretw0/povrewrite/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the rewrite pipeline as a JSON API with server-sent events and
Prometheus metrics. Rewrites with showPreview enabled stay pending until they
are committed through POST /documents/{id}/apply.

With --mcp-addr the MCP tools are also served over SSE from the same process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		mcpAddr, _ := cmd.Flags().GetString("mcp-addr")

		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		for _, w := range settings.Warnings() {
			logger.Warn("Settings warning", "warning", w)
		}

		b, err := openBackends(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(reg)
		streams := httpadapter.NewStreamManager(logger)

		engine, err := newEngine(b, settings, logger, povrewrite.WithLifecycleHooks(observability.Combine(
			observability.LogHooks(logger),
			metrics.Hooks(),
			streams.Hooks(),
		)))
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr: addr,
			Handler: httpadapter.NewHandler(engine, settings,
				httpadapter.WithStreams(streams),
				httpadapter.WithMetrics(reg),
				httpadapter.WithLogger(logger),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Info("Starting povrewrite server", "address", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down povrewrite server")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return srv.Close()
			}
			return nil
		})

		if mcpAddr != "" {
			baseURL, _ := cmd.Flags().GetString("mcp-base-url")
			mcpSrv := mcp.NewServer(engine, settings, logger)
			g.Go(func() error {
				if err := mcpSrv.ServeSSE(gctx, mcpAddr, baseURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("povrewrite server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("mcp-addr", "", "Also serve MCP over SSE on this address")
	serveCmd.Flags().String("mcp-base-url", "http://localhost:8081", "Public base URL of the MCP SSE server")
}
