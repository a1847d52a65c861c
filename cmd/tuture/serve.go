package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	tuturemcp "github.com/tutureproject/tuture/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run tuture as a Model Context Protocol (MCP) server over stdio.

This exposes commit listings, parsed diffs and the diff artifact as MCP tools
that any MCP-capable agent environment can use.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "tuture": {
        "command": "tuture",
        "args": ["serve"]
      }
    }
  }

Available tools: log, changed_files, diff, artifact, reload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			server := tuturemcp.NewServer(buildVersion(), tuturemcp.Deps{
				Git:   a.git,
				Store: a.store,
				Rules: a.rules,
			})
			a.logger.InfoContext(cmd.Context(), "serving MCP over stdio", "artifact", a.store.Path())
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
