package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/feiskyer/jobplace/mcpserver"
)

var httpAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the locator as an MCP tool",
	Long: "Runs an MCP server exposing the locate_job_place tool, on stdio by default " +
		"or as a streamable HTTP endpoint at /mcp with --http.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&model, "model", "", "chat model (overrides config)")
	serveCmd.Flags().StringVar(&httpAddr, "http", "", "listen address for streamable HTTP instead of stdio, e.g. :8080")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	// stdout carries the protocol, so no trace or streaming here
	verbose, stream = false, false
	locator, err := a.newLocator(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	srv := mcpserver.New(locator, a.logger, version, a.cfg.Agent.PostingTimeout)
	if httpAddr == "" {
		return srv.Run(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", srv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("MCP HTTP server shutdown with error", "err", err)
		}
	}()

	a.logger.Info("MCP HTTP server listening", "addr", httpAddr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
