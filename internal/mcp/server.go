// Package mcp provides a Model Context Protocol server for tuture.
// It exposes commit listings, parsed diffs and the diff artifact as MCP tools.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tutureproject/tuture/internal/git"
	"github.com/tutureproject/tuture/internal/ignore"
	"github.com/tutureproject/tuture/internal/store"
)

// Deps is what the tools read from and write to.
type Deps struct {
	Git   *git.Client
	Store *store.Store
	Rules *ignore.RuleSet
}

// NewServer creates an MCP server with all tuture tools registered.
func NewServer(version string, deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tuture",
		Version: version,
	}, nil)
	registerTools(server, deps)
	return server
}

func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations returns annotations for tools that rewrite the artifact.
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		IdempotentHint:  true,
		OpenWorldHint:   boolPtr(false),
	}
}

func registerTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "log",
		Description: "List non-merge commits, newest first, as abbreviated id and subject.",
		Annotations: readOnlyAnnotations(),
	}, handleLog(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "changed_files",
		Description: "List the files a commit touched, excluding files matched by ignoredFiles.",
		Annotations: readOnlyAnnotations(),
	}, handleChangedFiles(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "diff",
		Description: "Parse a commit's patch into files, hunks and numbered lines.",
		Annotations: readOnlyAnnotations(),
	}, handleDiff(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "artifact",
		Description: "Read the stored diff artifact. Returns no records when it has not been generated.",
		Annotations: readOnlyAnnotations(),
	}, handleArtifact(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reload",
		Description: "Regenerate the diff artifact from the full commit history, oldest first.",
		Annotations: writeAnnotations(),
	}, handleReload(deps))
}
