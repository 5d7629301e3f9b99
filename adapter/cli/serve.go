package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/adapter/api"
)

var (
	serveAddr            string
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the layout REST API",
	Long: `Serve the layout REST API and run the outbox processor.

The server listens on HTTP_ADDR unless --addr is given and stops
gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Container() == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		c := app.Container()
		ctx := cmd.Context()

		if err := c.StartBackground(ctx); err != nil {
			return fmt.Errorf("failed to start background workers: %w", err)
		}

		cfg := api.DefaultServerConfig()
		if serveAddr != "" {
			cfg.Addr = serveAddr
		} else if c.Config.HTTPAddr != "" {
			cfg.Addr = c.Config.HTTPAddr
		}

		handler := api.NewLayoutHandler(api.LayoutHandlerConfig{
			SubmitLayouts:     app.SubmitLayoutsHandler,
			UpdateWeight:      app.UpdateWeightHandler,
			SetLayoutClosed:   app.SetLayoutClosedHandler,
			ListLayouts:       app.ListLayoutsHandler,
			GetProjectLayouts: app.GetProjectLayoutsHandler,
			GetWeightHistory:  app.GetWeightHistoryHandler,
			GetGantt:          app.GetGanttHandler,
			LayoutRepo:        app.LayoutRepo,
			Logger:            c.Logger,
		})
		server := api.NewServer(cfg, handler, c.Health, c.Metrics, c.Logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return <-errCh
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR)")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	rootCmd.AddCommand(serveCmd)
}
