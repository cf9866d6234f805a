package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/qplens/qplens/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve qplens to MCP clients",
	Long: `Serve the leaderboard, paper processing and session retrieval to AI
assistants over the Model Context Protocol.

Without --port the server speaks JSON-RPC on stdin/stdout, which is what
desktop assistants launch. With --port it serves the streamable HTTP
transport instead, for the MCP Inspector or remote clients.

Client configuration for stdio:
  {"mcpServers": {"qplens": {"command": "qplens", "args": ["mcp", "serve"]}}}`,
	Example: `  qplens mcp serve
  qplens mcp serve --port 8080 --host 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var (
	mcpPort int
	mcpHost string
)

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "interface for --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Leaderboard: leaderboardService,
		Papers:      paperService,
		Retrieval:   retrievalService,
		Answer:      answerService,
		Normalisers: normaliserRegistry,
	})
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
