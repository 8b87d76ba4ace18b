package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neptotech/betteradvancedpaste/ai/core/llm"
	"github.com/neptotech/betteradvancedpaste/ai/paste"
	"github.com/neptotech/betteradvancedpaste/ai/rewrite"
	"github.com/neptotech/betteradvancedpaste/internal/profile"
	"github.com/neptotech/betteradvancedpaste/store"
	"github.com/neptotech/betteradvancedpaste/store/db/jsonfile"
)

type stubBackend struct {
	replies []string
	err     error
	calls   int
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Complete(context.Context, llm.Request) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if b.calls >= len(b.replies) {
		return "", llm.EmptyResult()
	}
	r := b.replies[b.calls]
	b.calls++
	return r, nil
}

type stubSelector struct{ backend llm.Backend }

func (s stubSelector) Select() llm.Backend { return s.backend }

func newTestAPI(t *testing.T, backend llm.Backend, conf string) (*echo.Echo, string) {
	t.Helper()
	dir := t.TempDir()
	confPath := filepath.Join(dir, "conf.json")
	if conf != "" {
		require.NoError(t, os.WriteFile(confPath, []byte(conf), 0o644))
	}
	p := &profile.Profile{ConfigPath: confPath, OutputDir: dir}
	driver, err := jsonfile.NewDB(p)
	require.NoError(t, err)

	svc := paste.NewService(
		paste.Config{Clipboard: "Hello world", OutputDir: dir},
		stubSelector{backend: backend},
		rewrite.NewClient(nil),
		store.New(driver, p),
		nil,
	)
	e := echo.New()
	NewAPIV1Service(p, svc).RegisterRoutes(e.Group("/api/v1"))
	return e, dir
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListOptions(t *testing.T) {
	e, _ := newTestAPI(t, &stubBackend{}, `{"options": [{"title": "Translate", "icon": "🌐"}, {"desc": "untitled"}]}`)

	rec := do(e, http.MethodGet, "/api/v1/options", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListOptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Options, 1)
	assert.Equal(t, "Translate", resp.Options[0].Title)
	assert.Equal(t, store.DefaultOptionColor, resp.Options[0].Color)
}

func TestListOptions_EmptyStore(t *testing.T) {
	e, _ := newTestAPI(t, &stubBackend{}, "")

	rec := do(e, http.MethodGet, "/api/v1/options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"options": []}`, rec.Body.String())
}

func TestAction(t *testing.T) {
	e, dir := newTestAPI(t, &stubBackend{replies: []string{"Bonjour le monde", "bonjour.txt"}}, "")

	rec := do(e, http.MethodPost, "/api/v1/action", `{"name": "translate to French"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result paste.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, paste.StatusOK, result.Status)
	assert.Equal(t, "bonjour.txt", result.Filename)
	assert.Equal(t, filepath.Join(dir, "bonjour.txt"), result.File)
}

func TestAction_MissingName(t *testing.T) {
	e, _ := newTestAPI(t, &stubBackend{}, "")

	rec := do(e, http.MethodPost, "/api/v1/action", `{"name": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/action", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitText_BackendFailure(t *testing.T) {
	e, _ := newTestAPI(t, &stubBackend{err: llm.HTTPStatusFailure(500, "boom")}, "")

	rec := do(e, http.MethodPost, "/api/v1/submit", `{"text": "make it formal"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var result paste.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, paste.StatusError, result.Status)
	assert.Equal(t, string(llm.KindHTTPStatus), result.Kind)
}

func TestRateLimited(t *testing.T) {
	e, _ := newTestAPI(t, &stubBackend{err: llm.EmptyResult()}, "")

	codes := map[int]int{}
	for i := 0; i < rewriteBurst+2; i++ {
		codes[do(e, http.MethodPost, "/api/v1/submit", `{"text": "x"}`).Code]++
	}
	assert.Positive(t, codes[http.StatusTooManyRequests])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		result paste.Result
		want   int
	}{
		{"ok", paste.Result{Status: paste.StatusOK}, http.StatusOK},
		{"busy", paste.Result{Status: paste.StatusError, Error: "busy", Kind: "internal"}, http.StatusConflict},
		{"io", paste.Result{Status: paste.StatusError, Kind: string(llm.KindIO)}, http.StatusInternalServerError},
		{"network", paste.Result{Status: paste.StatusError, Kind: string(llm.KindNetwork)}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.result))
		})
	}
}
