package paste

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neptotech/betteradvancedpaste/ai/core/llm"
	"github.com/neptotech/betteradvancedpaste/ai/metrics"
	"github.com/neptotech/betteradvancedpaste/ai/output"
	"github.com/neptotech/betteradvancedpaste/ai/rewrite"
	"github.com/neptotech/betteradvancedpaste/internal/profile"
	"github.com/neptotech/betteradvancedpaste/store"
	"github.com/neptotech/betteradvancedpaste/store/db/jsonfile"
)

type staticSelector struct {
	backend llm.Backend
}

func (s staticSelector) Select() llm.Backend { return s.backend }

type fakeRewriter struct {
	outcome *rewrite.Outcome
	err     error
	block   chan struct{}
	started chan struct{}

	mu          sync.Mutex
	clipboards  []string
	instruction string
}

func (f *fakeRewriter) Rewrite(_ context.Context, _ llm.Backend, instruction, clipboard string) (*rewrite.Outcome, error) {
	f.mu.Lock()
	f.clipboards = append(f.clipboards, clipboard)
	f.instruction = instruction
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.outcome, f.err
}

type panicRewriter struct{}

func (panicRewriter) Rewrite(context.Context, llm.Backend, string, string) (*rewrite.Outcome, error) {
	panic("boom")
}

func newStore(t *testing.T, content string) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.json")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	p := &profile.Profile{ConfigPath: path}
	driver, err := jsonfile.NewDB(p)
	require.NoError(t, err)
	return store.New(driver, p), path
}

func localServer(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if calls >= len(replies) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"content": replies[calls]})
		calls++
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitText_Scenario(t *testing.T) {
	srv := localServer(t, "Bonjour le monde", "bonjour.txt")
	dir := t.TempDir()
	st, _ := newStore(t, "")
	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())

	svc := NewService(
		Config{Clipboard: "Hello world", OutputDir: dir, SaveHistory: true},
		staticSelector{backend: llm.NewLocalBackend(srv.URL, srv.Client())},
		rewrite.NewClient(nil),
		st,
		exporter,
	)

	res := svc.SubmitText(context.Background(), "translate to French")
	svc.Wait()

	require.Equal(t, StatusOK, res.Status, res.Error)
	assert.Equal(t, "bonjour.txt", res.Filename)
	assert.Equal(t, filepath.Join(dir, "bonjour.txt"), res.File)

	data, err := os.ReadFile(res.File)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour le monde", string(data))

	options := svc.Options(context.Background())
	require.Len(t, options, 1)
	assert.Equal(t, "translate to French", options[0].Title)

	rec := httptest.NewRecorder()
	exporter.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Contains(t, rec.Body.String(), `advancedpaste_rewrite_history_saves_total{status="created"} 1`)
	assert.Contains(t, rec.Body.String(), `advancedpaste_rewrite_files_written_total 1`)
}

func TestAction_PrimaryFailureWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	dir := t.TempDir()
	st, path := newStore(t, "")

	svc := NewService(
		Config{Clipboard: "Hello world", OutputDir: dir, SaveHistory: true},
		staticSelector{backend: llm.NewLocalBackend(srv.URL, srv.Client())},
		rewrite.NewClient(nil),
		st,
		nil,
	)

	res := svc.Action(context.Background(), "summarize")
	svc.Wait()

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, string(llm.KindHTTPStatus), res.Kind)
	assert.Contains(t, res.Error, "500")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoFileExists(t, path, "history is only saved after a successful rewrite")
}

func TestRun_FilenameFallback(t *testing.T) {
	dir := t.TempDir()
	rw := &fakeRewriter{outcome: &rewrite.Outcome{
		Content:           "text",
		SuggestedFilename: output.DefaultFilename,
		FilenameErr:       llm.EmptyResult(),
	}}
	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
	svc := NewService(Config{Clipboard: "c", OutputDir: dir}, staticSelector{backend: llm.NewLocalBackend("http://unused", nil)}, rw, nil, exporter)

	res := svc.Action(context.Background(), "x")
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, output.DefaultFilename, res.Filename)
	assert.FileExists(t, filepath.Join(dir, output.DefaultFilename))
}

func TestRun_SameSnapshotEveryCall(t *testing.T) {
	rw := &fakeRewriter{outcome: &rewrite.Outcome{Content: "x", SuggestedFilename: "a.txt"}}
	svc := NewService(Config{Clipboard: "snapshot", OutputDir: t.TempDir()}, staticSelector{backend: llm.NewLocalBackend("http://unused", nil)}, rw, nil, nil)

	svc.Action(context.Background(), "one")
	svc.SubmitText(context.Background(), "two")

	assert.Equal(t, []string{"snapshot", "snapshot"}, rw.clipboards)
	assert.Equal(t, "snapshot", svc.Clipboard())
}

func TestRun_Busy(t *testing.T) {
	rw := &fakeRewriter{
		outcome: &rewrite.Outcome{Content: "x", SuggestedFilename: "a.txt"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := NewService(Config{Clipboard: "c", OutputDir: t.TempDir()}, staticSelector{backend: llm.NewLocalBackend("http://unused", nil)}, rw, nil, nil)

	done := make(chan Result)
	go func() { done <- svc.Action(context.Background(), "first") }()
	<-rw.started

	res := svc.SubmitText(context.Background(), "second")
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "busy", res.Error)

	close(rw.block)
	assert.Equal(t, StatusOK, (<-done).Status)
}

func TestRun_WriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	rw := &fakeRewriter{outcome: &rewrite.Outcome{Content: "x", SuggestedFilename: "a.txt"}}
	svc := NewService(Config{OutputDir: filepath.Join(blocker, "sub")}, staticSelector{backend: llm.NewLocalBackend("http://unused", nil)}, rw, nil, nil)

	res := svc.Action(context.Background(), "x")
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, string(llm.KindIO), res.Kind)
}

func TestRun_PanicBecomesError(t *testing.T) {
	svc := NewService(Config{OutputDir: t.TempDir()}, staticSelector{backend: llm.NewLocalBackend("http://unused", nil)}, panicRewriter{}, nil, nil)

	res := svc.Action(context.Background(), "x")
	assert.Equal(t, StatusError, res.Status)
	assert.True(t, strings.HasPrefix(res.Error, "internal error"))

	// The slot is released after a panic.
	res = svc.Action(context.Background(), "x")
	assert.NotEqual(t, "busy", res.Error)
}

func TestSaveHistory_Disabled(t *testing.T) {
	st, path := newStore(t, "")
	rw := &fakeRewriter{outcome: &rewrite.Outcome{Content: "x", SuggestedFilename: "a.txt"}}
	svc := NewService(Config{OutputDir: t.TempDir()}, staticSelector{backend: llm.NewLocalBackend("http://unused", nil)}, rw, st, nil)

	res := svc.SubmitText(context.Background(), "make it formal")
	svc.Wait()

	assert.Equal(t, StatusOK, res.Status)
	assert.NoFileExists(t, path)
}

func TestSaveHistory_FailureKeepsResult(t *testing.T) {
	st, path := newStore(t, `{"options": "not a list"}`)
	rw := &fakeRewriter{outcome: &rewrite.Outcome{Content: "x", SuggestedFilename: "a.txt"}}
	svc := NewService(Config{OutputDir: t.TempDir(), SaveHistory: true}, staticSelector{backend: llm.NewLocalBackend("http://unused", nil)}, rw, st, nil)

	res := svc.SubmitText(context.Background(), "make it formal")
	svc.Wait()

	assert.Equal(t, StatusOK, res.Status)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"options": "not a list"}`, string(data))
}

func TestOptions(t *testing.T) {
	st, _ := newStore(t, `{"options": [{"title": "Translate"}, {"icon": "x"}]}`)
	svc := NewService(Config{}, nil, nil, st, nil)

	options := svc.Options(context.Background())
	require.Len(t, options, 1)
	assert.Equal(t, "Translate", options[0].Title)
	assert.Equal(t, store.DefaultOptionColor, options[0].Color)

	broken, _ := newStore(t, `{not json`)
	assert.Empty(t, NewService(Config{}, nil, nil, broken, nil).Options(context.Background()))
	assert.Empty(t, NewService(Config{}, nil, nil, nil, nil).Options(context.Background()))
}
