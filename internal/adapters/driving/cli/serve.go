package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Serves the document, search and entity graph endpoints over HTTP until
interrupted. The listen address defaults to [server] addr in the config.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := httpapi.NewServer(httpapi.Services{
		Indexer:   app.Indexer,
		Documents: app.Documents,
		Search:    app.Search,
		Keyword:   app.Keyword,
		Graph:     app.Graph,
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = app.Config.Server.Addr
	}
	cmd.Printf("REST API listening on http://%s\n", addr)
	return server.Run(cmd.Context(), addr)
}
