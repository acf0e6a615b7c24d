package cmd

import (
	"fmt"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/adapters/httpapi"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timer behind a local HTTP API",
	Long: `Start the HTTP API so other tools can drive the timer and read the session
log. The engine lives as long as the server does. Stop with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = app.config.Server.Addr
		}

		ctx, cancel := setupSignalHandler(cmd.Context())
		defer cancel()

		logger := app.logger("http")
		handler := httpapi.NewHandler(app.engine, app.engine.Sessions())
		srv := httpapi.NewServer(addr, httpapi.NewRouter(handler, logger),
			time.Duration(app.config.Server.ShutdownTimeout), logger)

		fmt.Fprintf(cmd.ErrOrStderr(), "Serving the timer API on http://%s (Ctrl+C to stop)\n", addr)
		return srv.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:7420)")
}
