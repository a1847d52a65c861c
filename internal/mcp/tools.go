package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tutureproject/tuture/internal/diff"
	"github.com/tutureproject/tuture/internal/git"
	"github.com/tutureproject/tuture/internal/store"
)

// --- Shared types ---

// CommitRef is one `git log --oneline` line split into id and subject.
type CommitRef struct {
	ID      string `json:"id"      jsonschema:"abbreviated commit id"`
	Subject string `json:"subject" jsonschema:"commit subject line"`
}

// CommitInput names a single commit.
type CommitInput struct {
	Commit string `json:"commit" jsonschema:"commit id or any revision git show accepts"`
}

func (in CommitInput) validate() error {
	if in.Commit == "" {
		return errors.New("commit is required")
	}
	return nil
}

// --- Log tool ---

// LogInput is the input for the log tool (no parameters needed).
type LogInput struct{}

// LogOutput is the output for the log tool.
type LogOutput struct {
	Count   int         `json:"count"   jsonschema:"number of commits"`
	Commits []CommitRef `json:"commits" jsonschema:"commits, newest first"`
}

func handleLog(deps Deps) mcp.ToolHandlerFor[LogInput, LogOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ LogInput) (*mcp.CallToolResult, LogOutput, error) {
		logs := deps.Git.Logs(ctx)
		commits := make([]CommitRef, 0, len(logs))
		for _, c := range logs {
			commits = append(commits, CommitRef{ID: c.ID(), Subject: c.Subject()})
		}
		return nil, LogOutput{Count: len(commits), Commits: commits}, nil
	}
}

// --- Changed files tool ---

// ChangedFilesOutput is the output for the changed_files tool.
type ChangedFilesOutput struct {
	Commit string            `json:"commit" jsonschema:"the requested commit"`
	Files  []git.ChangedFile `json:"files"  jsonschema:"changed files after ignore filtering"`
}

func handleChangedFiles(deps Deps) mcp.ToolHandlerFor[CommitInput, ChangedFilesOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CommitInput) (*mcp.CallToolResult, ChangedFilesOutput, error) {
		if err := input.validate(); err != nil {
			return nil, ChangedFilesOutput{}, err
		}
		files, err := deps.Git.ChangedFiles(ctx, input.Commit, deps.Rules)
		if err != nil {
			return nil, ChangedFilesOutput{}, fmt.Errorf("listing changed files: %w", err)
		}
		return nil, ChangedFilesOutput{Commit: input.Commit, Files: files}, nil
	}
}

// --- Diff tool ---

// DiffOutput is the output for the diff tool.
type DiffOutput struct {
	Commit    string          `json:"commit"    jsonschema:"the requested commit"`
	Files     []diff.FileDiff `json:"files"     jsonschema:"parsed file diffs in patch order"`
	Anomalies int             `json:"anomalies" jsonschema:"number of patch lines the parser could not place"`
}

func handleDiff(deps Deps) mcp.ToolHandlerFor[CommitInput, DiffOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CommitInput) (*mcp.CallToolResult, DiffOutput, error) {
		if err := input.validate(); err != nil {
			return nil, DiffOutput{}, err
		}
		record, anomalies, err := deps.Store.Diff(ctx, input.Commit)
		if err != nil {
			return nil, DiffOutput{}, err
		}
		return nil, DiffOutput{Commit: record.Commit, Files: record.Diff, Anomalies: len(anomalies)}, nil
	}
}

// --- Artifact tool ---

// ArtifactInput is the input for the artifact tool (no parameters needed).
type ArtifactInput struct{}

// ArtifactOutput is the output for the artifact tool.
type ArtifactOutput struct {
	Path    string         `json:"path"    jsonschema:"artifact location"`
	Exists  bool           `json:"exists"  jsonschema:"whether the artifact has been generated"`
	Records []store.Record `json:"records" jsonschema:"stored commit diffs in stored order"`
}

func handleArtifact(deps Deps) mcp.ToolHandlerFor[ArtifactInput, ArtifactOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ArtifactInput) (*mcp.CallToolResult, ArtifactOutput, error) {
		path := deps.Store.Path()
		records, err := store.Load(path)
		if err != nil {
			return nil, ArtifactOutput{}, fmt.Errorf("reading artifact: %w", err)
		}
		out := ArtifactOutput{Path: path, Exists: records != nil, Records: records}
		if out.Records == nil {
			out.Records = []store.Record{}
		}
		return nil, out, nil
	}
}

// --- Reload tool ---

// ReloadInput is the input for the reload tool (no parameters needed).
type ReloadInput struct{}

// ReloadOutput is the output for the reload tool.
type ReloadOutput struct {
	Path    string `json:"path"    jsonschema:"artifact location"`
	Records int    `json:"records" jsonschema:"number of commits stored"`
}

func handleReload(deps Deps) mcp.ToolHandlerFor[ReloadInput, ReloadOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ReloadInput) (*mcp.CallToolResult, ReloadOutput, error) {
		ids := git.OldestFirst(deps.Git.Logs(ctx))
		records, err := deps.Store.StoreDiff(ctx, ids)
		if err != nil {
			return nil, ReloadOutput{}, fmt.Errorf("storing diffs: %w", err)
		}
		return nil, ReloadOutput{Path: deps.Store.Path(), Records: len(records)}, nil
	}
}
