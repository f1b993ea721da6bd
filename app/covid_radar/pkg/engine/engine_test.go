package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/config"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/extract"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/storage"
)

const reportText = "Dagsrapport\nFylke Antall positive\nOslo 123\nViken 98\n"

// mockFetcher 返回固定文本
type mockFetcher struct {
	text string
	err  error
}

func (m *mockFetcher) FetchDocumentText(ctx context.Context, src config.SourceConfig) (string, error) {
	return m.text, m.err
}

// mockStore 在内存存储之上记录调用顺序并支持注入错误
type mockStore struct {
	*storage.MemoryStore
	calls     *[]string
	readErr   error
	appendErr error
	writeErr  error
}

func (m *mockStore) ReadLatest(ctx context.Context, key string) (*model.Observation, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.MemoryStore.ReadLatest(ctx, key)
}

func (m *mockStore) AppendHistory(ctx context.Context, key string, obs model.Observation) error {
	*m.calls = append(*m.calls, "append")
	if m.appendErr != nil {
		return m.appendErr
	}
	return m.MemoryStore.AppendHistory(ctx, key, obs)
}

func (m *mockStore) WriteLatest(ctx context.Context, key string, obs model.Observation) error {
	*m.calls = append(*m.calls, "latest")
	if m.writeErr != nil {
		return m.writeErr
	}
	return m.MemoryStore.WriteLatest(ctx, key, obs)
}

// mockEmitter 记录每次输出
type mockEmitter struct {
	calls   *[]string
	emitted []model.Observation
	err     error
}

func (m *mockEmitter) Emit(ctx context.Context, obs model.Observation) error {
	*m.calls = append(*m.calls, "emit")
	m.emitted = append(m.emitted, obs)
	return m.err
}

type fixture struct {
	engine  *Engine
	fetcher *mockFetcher
	store   *mockStore
	emitter *mockEmitter
	calls   []string
	now     time.Time
}

func newFixture() *fixture {
	f := &fixture{now: time.Date(2020, 3, 20, 10, 15, 30, 0, time.UTC)}
	f.fetcher = &mockFetcher{text: reportText}
	f.store = &mockStore{MemoryStore: storage.NewMemoryStore(), calls: &f.calls}
	f.emitter = &mockEmitter{calls: &f.calls}

	cfg := &config.Config{
		Layouts: map[string]extract.LayoutSpec{
			"daily": {SectionMarker: "Fylke Antall positive", ExpectedRegionCount: 2},
		},
		Sources: []config.SourceConfig{{Key: "fhi", URL: "https://www.fhi.no/", Layout: "daily"}},
	}
	f.engine = NewEngine(cfg, f.fetcher, f.store, f.emitter).
		WithExtractor(extract.NewExtractorWithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) history(t *testing.T) []model.HistoryEntry {
	t.Helper()
	entries, err := f.store.ListHistory(context.Background(), "fhi", 0)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	return entries
}

func TestRunSource_FirstRun(t *testing.T) {
	f := newFixture()
	res, err := f.engine.RunSource(context.Background(), f.engine.cfg.Sources[0])
	if err != nil {
		t.Fatalf("RunSource() error = %v", err)
	}
	if !res.Appended {
		t.Error("first run should append to history")
	}
	if res.Observation.Total != 221 {
		t.Errorf("Total = %v, want 221", res.Observation.Total)
	}
	if got := len(f.history(t)); got != 1 {
		t.Errorf("history len = %d, want 1", got)
	}
	want := []string{"emit", "append", "latest"}
	if len(f.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", f.calls, want)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Errorf("calls = %v, want %v", f.calls, want)
			break
		}
	}
}

func TestRunSource_SameContentDayLater(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	src := f.engine.cfg.Sources[0]

	if _, err := f.engine.RunSource(ctx, src); err != nil {
		t.Fatalf("first RunSource() error = %v", err)
	}
	f.now = f.now.Add(24 * time.Hour)
	res, err := f.engine.RunSource(ctx, src)
	if err != nil {
		t.Fatalf("second RunSource() error = %v", err)
	}

	if res.Appended {
		t.Error("unchanged content should not append")
	}
	if got := len(f.history(t)); got != 1 {
		t.Errorf("history len = %d, want 1", got)
	}
	latest, _ := f.store.ReadLatest(ctx, "fhi")
	if want := time.Date(2020, 3, 21, 10, 15, 0, 0, time.UTC); !latest.ObservedAt.Equal(want) {
		t.Errorf("latest ObservedAt = %v, want %v", latest.ObservedAt, want)
	}
	if len(f.emitter.emitted) != 2 {
		t.Errorf("emitted %d records, want one per run", len(f.emitter.emitted))
	}
}

func TestRunSource_ChangedContentAppends(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	src := f.engine.cfg.Sources[0]

	if _, err := f.engine.RunSource(ctx, src); err != nil {
		t.Fatal(err)
	}
	f.fetcher.text = "Fylke Antall positive\nOslo 130\nViken 98\n"
	res, err := f.engine.RunSource(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Appended || res.Observation.Total != 228 {
		t.Errorf("RunSource() = %+v, want appended total 228", res)
	}
	entries := f.history(t)
	if len(entries) != 2 || entries[0].Observation.Total != 228 {
		t.Errorf("history = %+v", entries)
	}
}

func TestRunSource_ExtractionFailureWritesNothing(t *testing.T) {
	f := newFixture()
	f.fetcher.text = "no table in this report"

	_, err := f.engine.RunSource(context.Background(), f.engine.cfg.Sources[0])
	if !errors.Is(err, extract.ErrMarkerNotFound) {
		t.Fatalf("RunSource() error = %v, want ErrMarkerNotFound", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("collaborators called after extraction failure: %v", f.calls)
	}
}

func TestRunSource_CollaboratorErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		setup  func(f *fixture)
		op     string
		called []string
	}{
		{"fetch", func(f *fixture) { f.fetcher.err = boom }, "fetch", nil},
		{"read latest", func(f *fixture) { f.store.readErr = boom }, "read latest", nil},
		{"emit", func(f *fixture) { f.emitter.err = boom }, "emit", []string{"emit"}},
		{"append", func(f *fixture) { f.store.appendErr = boom }, "append history", []string{"emit", "append"}},
		{"write latest", func(f *fixture) { f.store.writeErr = boom }, "write latest", []string{"emit", "append", "latest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)
			_, err := f.engine.RunSource(context.Background(), f.engine.cfg.Sources[0])

			var ce *CollaboratorError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *CollaboratorError", err)
			}
			if ce.Op != tt.op || !errors.Is(err, boom) {
				t.Errorf("error = %v (op %q), want op %q wrapping boom", err, ce.Op, tt.op)
			}
			if len(f.calls) != len(tt.called) {
				t.Errorf("calls = %v, want %v", f.calls, tt.called)
			}
		})
	}
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	f := newFixture()
	f.engine.cfg.Sources = []config.SourceConfig{
		{Key: "broken", URL: "https://x/", Layout: "missing"},
		{Key: "fhi", URL: "https://www.fhi.no/", Layout: "daily"},
	}

	results, err := f.engine.Run(context.Background())
	if err == nil {
		t.Error("Run() error = nil, want error for broken source")
	}
	if len(results) != 1 || results[0].SourceKey != "fhi" {
		t.Errorf("Run() results = %+v", results)
	}
}

func TestRunSource_InvalidUTF8LabelIsStable(t *testing.T) {
	f := newFixture()
	f.fetcher.text = "Fylke Antall positive\nOs\xfflo 123\nViken 98\n"
	ctx := context.Background()
	src := f.engine.cfg.Sources[0]

	for i := 0; i < 3; i++ {
		res, err := f.engine.RunSource(ctx, src)
		if err != nil {
			t.Fatalf("run %d: RunSource() error = %v", i, err)
		}
		if res.Appended != (i == 0) {
			t.Errorf("run %d: Appended = %v", i, res.Appended)
		}
	}
	entries := f.history(t)
	if len(entries) != 1 {
		t.Fatalf("history len = %d, want 1", len(entries))
	}
	if got := entries[0].Observation.Breakdown[0].Region; got != "Os�lo" {
		t.Errorf("region = %q, want replacement character", got)
	}
}
