package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ca-srg/researchpanel/internal/webui"
)

var (
	webuiHost string
	webuiPort int
)

var webuiCmd = &cobra.Command{
	Use:   "webui",
	Short: "Start the research panel web UI",
	Long: `
The webui command starts a local web server hosting the query panel.
Each browser session gets its own panel; results are pushed to open
tabs of the session over server-sent events.

The page uses HTMX for form submission without a JavaScript framework.
POST /api/research is forwarded to RESEARCH_ENDPOINT_URL.

Example:
  researchpanel webui                   # Start with defaults (localhost:8081)
  researchpanel webui --port 8080       # Use custom port
  researchpanel webui --host 0.0.0.0    # Listen on all interfaces
`,
	RunE: runWebUI,
}

func init() {
	webuiCmd.Flags().StringVar(&webuiHost, "host", "localhost",
		"Host to bind the web server (overrides WEBUI_HOST)")
	webuiCmd.Flags().IntVarP(&webuiPort, "port", "p", 8081,
		"Port to bind the web server (overrides WEBUI_PORT)")
}

func runWebUI(cmd *cobra.Command, args []string) error {
	serverConfig := webui.ServerConfigFromApp(appConfig)
	if flagChanged(cmd.Flags(), "host") {
		serverConfig.Host = webuiHost
	}
	if flagChanged(cmd.Flags(), "port") {
		serverConfig.Port = webuiPort
	}
	if serverConfig.Port < 1 || serverConfig.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	client, err := newSearchClient(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create search client: %w", err)
	}

	server, err := webui.NewServer(serverConfig, client, logger)
	if err != nil {
		return fmt.Errorf("failed to create webui server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return server.Run(gctx)
	})

	g.Go(func() error {
		select {
		case sig := <-sigChan:
			logger.Info("received signal", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	return g.Wait()
}
