package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tutureproject/tuture/internal/diff"
	"github.com/tutureproject/tuture/internal/ignore"
)

const (
	instrumentationName = "github.com/tutureproject/tuture/internal/store"

	spanCommit      = "tuture.store.commit"
	attrCommitID    = "commit.id"
	metricCommits   = "tuture.store.commits"
	metricAnomalies = "tuture.diff.anomalies"
	defaultRoot     = ".tuture"
	defaultArtifact = "diff.json"
)

// DefaultPath is where the artifact lives relative to the repository root.
var DefaultPath = filepath.Join(defaultRoot, defaultArtifact)

// Fetcher returns the raw `git show` output of a commit.
type Fetcher interface {
	Show(ctx context.Context, id string) (string, error)
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	Path        string // artifact path, DefaultPath when empty
	Concurrency int    // parallel fetches, runtime.NumCPU() when < 1
	Rules       *ignore.RuleSet
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Meter       metric.Meter
}

// Store fetches, parses and persists commit diffs.
type Store struct {
	fetcher     Fetcher
	path        string
	concurrency int
	rules       *ignore.RuleSet
	logger      *slog.Logger
	tracer      trace.Tracer

	commits   metric.Int64Counter
	anomalies metric.Int64Counter
}

// New creates a Store reading commits through fetcher.
func New(fetcher Fetcher, opts Options) *Store {
	s := &Store{
		fetcher:     fetcher,
		path:        opts.Path,
		concurrency: opts.Concurrency,
		rules:       opts.Rules,
		logger:      opts.Logger,
		tracer:      opts.Tracer,
	}
	if s.path == "" {
		s.path = DefaultPath
	}
	if s.concurrency < 1 {
		s.concurrency = runtime.NumCPU()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(instrumentationName)
	}

	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	// Instrument creation only fails on invalid names; fall back to no-op.
	if c, err := meter.Int64Counter(metricCommits,
		metric.WithDescription("Commits fetched and parsed"),
		metric.WithUnit("{commit}"),
	); err == nil {
		s.commits = c
	}
	if c, err := meter.Int64Counter(metricAnomalies,
		metric.WithDescription("Diff lines the parser could not place"),
		metric.WithUnit("{line}"),
	); err == nil {
		s.anomalies = c
	}
	return s
}

// Path returns the artifact path.
func (s *Store) Path() string {
	return s.path
}

// Collect fetches and parses commits without writing anything. Records follow
// the order of commits. The first failure cancels the remaining fetches.
func (s *Store) Collect(ctx context.Context, commits []string) ([]Record, error) {
	records := make([]Record, len(commits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range commits {
		g.Go(func() error {
			record, _, err := s.Diff(gctx, id)
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// StoreDiff collects commits and replaces the artifact with the result.
// On any failure the existing artifact is left untouched.
func (s *Store) StoreDiff(ctx context.Context, commits []string) ([]Record, error) {
	records, err := s.Collect(ctx, commits)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeArtifact(s.path, records); err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "artifact written", "path", s.path, "records", len(records))
	return records, nil
}

// Diff fetches and parses a single commit. Anomalies are returned alongside
// the record; they never fail the call.
func (s *Store) Diff(ctx context.Context, id string) (Record, []diff.Anomaly, error) {
	ctx, span := s.tracer.Start(ctx, spanCommit, trace.WithAttributes(attribute.String(attrCommitID, id)))
	defer span.End()

	raw, err := s.fetcher.Show(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return Record{}, nil, fmt.Errorf("commit %s: %w", id, err)
	}

	report := diff.ParseReport(diff.ExtractBody(raw))
	for _, a := range report.Anomalies {
		s.logger.DebugContext(ctx, "diff anomaly", "commit", id, "line", a.Line, "reason", a.Reason, "text", a.Text)
	}

	files := make([]diff.FileDiff, 0, len(report.Files))
	for _, f := range report.Files {
		if s.rules.Match(f.Path()) {
			continue
		}
		files = append(files, f)
	}

	if s.commits != nil {
		s.commits.Add(ctx, 1)
	}
	if s.anomalies != nil && len(report.Anomalies) > 0 {
		s.anomalies.Add(ctx, int64(len(report.Anomalies)))
	}
	span.SetAttributes(
		attribute.Int("diff.files", len(files)),
		attribute.Int("diff.anomalies", len(report.Anomalies)),
	)
	s.logger.DebugContext(ctx, "commit parsed", "commit", id, "files", len(files), "ignored", len(report.Files)-len(files))

	return Record{Commit: id, Diff: files}, report.Anomalies, nil
}
