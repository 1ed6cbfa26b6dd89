package cli

import (
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docchat/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:         "mcp",
	Short:       "Model Context Protocol server",
	Annotations: annotate("runtime", false),
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve docchat to MCP clients",
	Long: `Serve the ask, retrieve, reload and status tools and the
docchat://documents resources to an MCP client.

Without --port the server speaks JSON-RPC on stdin/stdout, which is what
desktop assistants launch:

  {"mcpServers": {"docchat": {"command": "docchat", "args": ["mcp", "serve"]}}}

With --port it serves streamable HTTP instead, for the MCP Inspector or
remote clients:

  docchat mcp serve --port 8081
  docchat mcp serve --host 0.0.0.0 --port 8081`,
	Args:        cobra.NoArgs,
	Annotations: annotate("runtime", true),
	RunE:        runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().String("host", "127.0.0.1", "HTTP listen host")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	// An index that fails to load still leaves status and reload usable.
	if indexService != nil {
		if _, err := indexService.Initialise(cmd.Context()); err != nil {
			logger.Warn("index not ready: %v", err)
		}
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Chat:      chatService,
		Retrieval: retrievalService,
		Index:     indexService,
		Documents: documentService,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if port <= 0 {
		return server.Run(cmd.Context())
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	cmd.PrintErrf("MCP server on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
