package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/adapters/driving/mcp"
)

var (
	mcpPort  int
	mcpHost  string
	mcpNoAsk bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the course index to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve course search and outlines over MCP",
	Long: `Serves the indexed courses to Model Context Protocol clients.

Tools:
  search_course_content  transcript passages, filtered by course and lesson
  get_course_outline     course title, link, instructor and lesson list
  ask                    a full answer with sources (needs an LLM; --no-ask hides it)

Resources:
  lectern://courses          every indexed course as JSON
  lectern://courses/{title}  one course outline as text

Without --port the server speaks JSON-RPC on stdio, which is what desktop
assistants launch:

  {"mcpServers": {"lectern": {"command": "lectern", "args": ["mcp", "serve"]}}}

With --port it serves streamable HTTP instead, for the MCP Inspector or
remote clients:

  lectern mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "interface to bind with --port")
	mcpServeCmd.Flags().BoolVar(&mcpNoAsk, "no-ask", false, "do not offer the ask tool")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errSearchNotConfigured
	}
	if courseService == nil {
		return errCoursesNotConfigured
	}
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	ports := &mcp.Ports{Search: searchService, Courses: courseService}
	if answerService != nil && !mcpNoAsk {
		ports.Answer = answerService
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpPort == 0 {
		return server.Run(ctx)
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.PrintErrf("MCP server listening on http://%s/\n", addr)
	return server.RunHTTP(ctx, addr)
}
