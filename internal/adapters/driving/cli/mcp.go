package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose search and documents to MCP clients",
	Long: `Runs an MCP server offering the search, keyword_search, document_context,
list_documents and list_entities tools plus ragcore://documents resources.

Without --port the server speaks JSON-RPC on stdin and stdout, which is what
desktop assistants expect when they launch ragcore themselves:

  {"mcpServers": {"ragcore": {"command": "ragcore", "args": ["mcp", "serve"]}}}

With --port it serves the streamable HTTP transport instead.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Search:    app.Search,
		Keyword:   app.Keyword,
		Documents: app.Documents,
		Graph:     app.Graph,
	})
	if err != nil {
		return err
	}
	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}
	return server.RunHTTP(cmd.Context(), fmt.Sprintf(":%d", mcpPort))
}
