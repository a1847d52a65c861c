package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tutureproject/tuture/internal/diff"
	"github.com/tutureproject/tuture/internal/ignore"
)

// fakeFetcher serves canned `git show` output with optional per-commit
// latency and failures.
type fakeFetcher struct {
	patches map[string]string
	delays  map[string]time.Duration
	errs    map[string]error

	mu       sync.Mutex
	finished []string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFetcher) Show(ctx context.Context, id string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if d := f.delays[id]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	f.finished = append(f.finished, id)
	f.mu.Unlock()

	if err := f.errs[id]; err != nil {
		return "", err
	}
	patch, ok := f.patches[id]
	if !ok {
		return "", fmt.Errorf("fatal: bad object %s", id)
	}
	return patch, nil
}

func showOutput(id, file, added string) string {
	return fmt.Sprintf("commit %s\nAuthor: T <t@example.com>\nDate:   Mon Jan 1 00:00:00 2024 +0000\n\n    change %s\n\n"+
		"diff --git a/%s b/%s\nindex 1111111..2222222 100644\n--- a/%s\n+++ b/%s\n@@ -1 +1,2 @@\n keep\n+%s\n",
		id, id, file, file, file, file, added)
}

func newFetcher() *fakeFetcher {
	return &fakeFetcher{
		patches: map[string]string{
			"c1": showOutput("c1", "a.txt", "one"),
			"c2": showOutput("c2", "b.txt", "two"),
			"c3": showOutput("c3", "c.txt", "three"),
		},
		delays: map[string]time.Duration{},
		errs:   map[string]error{},
	}
}

func commitIDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.Commit
	}
	return ids
}

func TestStoreDiff_PreservesInputOrder(t *testing.T) {
	fetcher := newFetcher()
	fetcher.delays["c2"] = 50 * time.Millisecond
	path := filepath.Join(t.TempDir(), ".tuture", "diff.json")

	s := New(fetcher, Options{Path: path, Concurrency: 3})
	records, err := s.StoreDiff(context.Background(), []string{"c1", "c2", "c3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, commitIDs(records))

	fetcher.mu.Lock()
	assert.Equal(t, "c2", fetcher.finished[len(fetcher.finished)-1], "c2 should complete last")
	fetcher.mu.Unlock()

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, commitIDs(loaded))
	require.Len(t, loaded[1].Diff, 1)
	assert.Equal(t, "b.txt", loaded[1].Diff[0].Path())
	assert.Equal(t, "two", loaded[1].Diff[0].Hunks[0].Lines[1].Content)
}

func TestStoreDiff_FailureLeavesArtifactUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff.json")
	before := []byte(`[{"commit":"old","diff":[]}]`)
	require.NoError(t, os.WriteFile(path, before, 0o644))

	fetcher := newFetcher()
	fetcher.errs["c2"] = errors.New("fatal: bad object c2")

	s := New(fetcher, Options{Path: path})
	_, err := s.StoreDiff(context.Background(), []string{"c1", "c2", "c3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit c2")
	assert.Contains(t, err.Error(), "fatal: bad object c2")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")
}

func TestStoreDiff_FailureWithNoPriorArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".tuture", "diff.json")
	fetcher := newFetcher()

	_, err := New(fetcher, Options{Path: path}).StoreDiff(context.Background(), []string{"c1", "missing"})
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestStoreDiff_FirstErrorCancelsOutstanding(t *testing.T) {
	fetcher := newFetcher()
	fetcher.delays["c3"] = 10 * time.Second
	fetcher.errs["c1"] = errors.New("boom")

	start := time.Now()
	_, err := New(fetcher, Options{Path: filepath.Join(t.TempDir(), "diff.json"), Concurrency: 3}).
		StoreDiff(context.Background(), []string{"c1", "c2", "c3"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStoreDiff_ConcurrencyBound(t *testing.T) {
	fetcher := newFetcher()
	ids := make([]string, 0, 12)
	for i := range 12 {
		id := fmt.Sprintf("k%d", i)
		fetcher.patches[id] = showOutput(id, id+".txt", "x")
		fetcher.delays[id] = 5 * time.Millisecond
		ids = append(ids, id)
	}

	records, err := New(fetcher, Options{Path: filepath.Join(t.TempDir(), "diff.json"), Concurrency: 2}).
		StoreDiff(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, ids, commitIDs(records))
	assert.LessOrEqual(t, fetcher.peak.Load(), int32(2))
}

func TestStoreDiff_IdenticalInputsAreByteIdentical(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "one.json")
	second := filepath.Join(dir, "two.json")
	ids := []string{"c3", "c1", "c2"}

	_, err := New(newFetcher(), Options{Path: first}).StoreDiff(context.Background(), ids)
	require.NoError(t, err)
	_, err = New(newFetcher(), Options{Path: second, Concurrency: 1}).StoreDiff(context.Background(), ids)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStoreDiff_AppliesIgnoreRules(t *testing.T) {
	fetcher := newFetcher()
	fetcher.patches["lock"] = "commit lock\n\n    bump\n\n" +
		"diff --git a/yarn.lock b/yarn.lock\n--- a/yarn.lock\n+++ b/yarn.lock\n@@ -1 +1 @@\n-a\n+b\n" +
		"diff --git a/src/main.ts b/src/main.ts\n--- a/src/main.ts\n+++ b/src/main.ts\n@@ -1 +1 @@\n-a\n+b\n" +
		"diff --git a/old.lock b/old.lock\ndeleted file mode 100644\n--- a/old.lock\n+++ /dev/null\n@@ -1 +0,0 @@\n-a\n"

	rules, err := ignore.New([]string{"*.lock"})
	require.NoError(t, err)

	records, err := New(fetcher, Options{Path: filepath.Join(t.TempDir(), "diff.json"), Rules: rules}).
		StoreDiff(context.Background(), []string{"lock"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Diff, 1)
	assert.Equal(t, "src/main.ts", records[0].Diff[0].Path())
}

func TestStoreDiff_EmptyCommitList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff.json")
	records, err := New(newFetcher(), Options{Path: path}).StoreDiff(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestStoreDiff_CommitWithoutPatch(t *testing.T) {
	fetcher := newFetcher()
	fetcher.patches["empty"] = "commit empty\nAuthor: T <t@example.com>\n\n    nothing here\n"
	path := filepath.Join(t.TempDir(), "diff.json")

	_, err := New(fetcher, Options{Path: path}).StoreDiff(context.Background(), []string{"empty"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"commit":"empty","diff":[]}]`, string(data))
}

func TestStoreDiff_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newFetcher(), Options{Path: path}).StoreDiff(ctx, []string{"c1"})
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestCollect_DoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff.json")
	records, err := New(newFetcher(), Options{Path: path}).Collect(context.Background(), []string{"c2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, diff.StatusModified, records[0].Diff[0].Status)
	assert.NoFileExists(t, path)
}

func TestDiff_ReturnsAnomalies(t *testing.T) {
	fetcher := newFetcher()
	fetcher.patches["odd"] = "commit odd\n\n    msg\n\ndiff --git a/x b/x\n--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+b\n+surplus\n"

	s := New(fetcher, Options{Path: filepath.Join(t.TempDir(), "diff.json")})
	record, anomalies, err := s.Diff(context.Background(), "odd")
	require.NoError(t, err)
	assert.Equal(t, "odd", record.Commit)
	require.Len(t, record.Diff, 1)
	require.Len(t, anomalies, 1)
	assert.Equal(t, diff.ReasonOutsideHunk, anomalies[0].Reason)

	_, _, err = s.Diff(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit missing")
}

// recordingMeter keeps the attribute sets passed to its counters.
type recordingMeter struct {
	noop.Meter

	mu   sync.Mutex
	adds map[string][]attribute.Set
}

func (m *recordingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return &recordingCounter{meter: m, name: name}, nil
}

func (m *recordingMeter) attrs(name string) []attribute.Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adds[name]
}

type recordingCounter struct {
	noop.Int64Counter

	meter *recordingMeter
	name  string
}

func (c *recordingCounter) Add(_ context.Context, _ int64, opts ...metric.AddOption) {
	set := metric.NewAddConfig(opts).Attributes()
	c.meter.mu.Lock()
	defer c.meter.mu.Unlock()
	if c.meter.adds == nil {
		c.meter.adds = map[string][]attribute.Set{}
	}
	c.meter.adds[c.name] = append(c.meter.adds[c.name], set)
}

func TestDiff_CountersCarryNoCommitID(t *testing.T) {
	fetcher := newFetcher()
	fetcher.patches["odd"] = "commit odd\n\n    msg\n\ndiff --git a/x b/x\n--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+b\n+surplus\n"
	meter := &recordingMeter{}

	s := New(fetcher, Options{Path: filepath.Join(t.TempDir(), "diff.json"), Meter: meter})
	_, err := s.Collect(context.Background(), []string{"c1", "odd"})
	require.NoError(t, err)

	commits := meter.attrs("tuture.store.commits")
	anomalies := meter.attrs("tuture.diff.anomalies")
	assert.Len(t, commits, 2)
	require.Len(t, anomalies, 1)
	for _, set := range append(commits, anomalies...) {
		_, ok := set.Value(attribute.Key("commit.id"))
		assert.False(t, ok, "metric attributes must not include commit.id")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	records, err := Load(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, records)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	s := New(newFetcher(), Options{})
	assert.Equal(t, DefaultPath, s.Path())
	assert.Equal(t, filepath.Join(".tuture", "diff.json"), s.Path())
	assert.Positive(t, s.concurrency)
}

func TestStoreDiff_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	fetcher := newFetcher()
	fetcher.errs["c3"] = errors.New("fatal: bad object c3")

	s := New(fetcher, Options{
		Path:        filepath.Join(t.TempDir(), "diff.json"),
		Concurrency: 1,
		Tracer:      tp.Tracer("tuture"),
	})
	_, err := s.StoreDiff(context.Background(), []string{"c1", "c3"})
	require.Error(t, err)

	byCommit := map[string]tracetest.SpanStub{}
	for _, span := range exporter.GetSpans() {
		require.Equal(t, "tuture.store.commit", span.Name)
		for _, kv := range span.Attributes {
			if kv.Key == attribute.Key("commit.id") {
				byCommit[kv.Value.AsString()] = span
			}
		}
	}

	require.Contains(t, byCommit, "c1")
	assert.Equal(t, codes.Unset, byCommit["c1"].Status.Code)
	require.Contains(t, byCommit, "c3")
	assert.Equal(t, codes.Error, byCommit["c3"].Status.Code)
}
