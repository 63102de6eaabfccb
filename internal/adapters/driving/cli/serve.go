package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kurator/internal/adapters/driving/httpapi"
)

var (
	serveAddr        string
	serveCORSOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server in front of the query engine.

Endpoints:
  POST /v1/ask       {"question": "..."}        answer with citations
  POST /v1/retrieve  {"query": "...", "top_k": 5} ranked passages
  POST /v1/reload                                 serve the latest generation
  GET  /healthz                                   liveness and serving generation

The server keeps answering from the generation it loaded at startup until
/v1/reload is called, so ingestion can run alongside it.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", nil, "allowed CORS origins")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	query, err := openQueryService(ctx)
	if err != nil {
		return err
	}

	server, err := httpapi.New(httpapi.Config{
		ListenAddr:  serveAddr,
		CORSOrigins: serveCORSOrigins,
	}, query)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on http://%s\n", serveAddr)
	return server.Start(ctx)
}
