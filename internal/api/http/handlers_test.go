package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/docext/internal/domain/loader"
	"github.com/GriffinCanCode/docext/internal/domain/registry"
	"github.com/GriffinCanCode/docext/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docext/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/docext/internal/providers/sandbox"
	"github.com/GriffinCanCode/docext/internal/shared/utils"
)

// stubInstaller defines the library's global directly, or fails for broken
type stubInstaller struct {
	ns    *sandbox.Namespace
	calls atomic.Int32
}

func (s *stubInstaller) Install(ctx context.Context, desc registry.Descriptor) error {
	s.calls.Add(1)
	if desc.ID == "broken" {
		return errors.New("host rejected request")
	}
	global := desc.GlobalName()
	return s.ns.Install(ctx, global, "var "+global+" = { name: '"+desc.ID+"' };")
}

type fixture struct {
	router    *gin.Engine
	installer *stubInstaller
	coord     *loader.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.MustNew(
		registry.Descriptor{ID: "widgets", Global: "Widgets", Source: "https://cdn.example.com/widgets.js", Version: "1.0.0"},
		registry.Descriptor{ID: "charts", Global: "Charts", Source: "https://cdn.example.com/charts.js", Version: "2.1.0"},
		registry.Descriptor{ID: "broken", Source: "https://cdn.example.com/broken.js", Version: "0.0.1"},
	)
	ns := sandbox.New(sandbox.DefaultConfig())
	inst := &stubInstaller{ns: ns}
	metrics := monitoring.NewMetrics()
	coord := loader.New(reg, inst).WithMetrics(metrics)
	tracer := tracing.New("test", nil)
	t.Cleanup(tracer.Close)

	router := gin.New()
	NewHandlers(reg, coord, ns, metrics, tracer, nil).Register(router)

	return &fixture{router: router, installer: inst, coord: coord}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["libraries"])
}

func TestListLibraries(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, http.MethodGet, "/libraries", nil)

	require.Equal(t, http.StatusOK, w.Code)
	libs := body["libraries"].([]interface{})
	require.Len(t, libs, 3)

	first := libs[0].(map[string]interface{})
	assert.Equal(t, "broken", first["id"])
	assert.Equal(t, "unloaded", first["state"])
}

func TestGetLibrary(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodGet, "/libraries/charts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lib := body["library"].(map[string]interface{})
	assert.Equal(t, "2.1.0", lib["version"])
	assert.Equal(t, "Charts", lib["global"])

	w, body = f.do(t, http.MethodGet, "/libraries/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestLoadLibrary(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		w, body := f.do(t, http.MethodPost, "/libraries/widgets/load", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "loaded", body["state"])
	}
	assert.Equal(t, int32(1), f.installer.calls.Load())
}

func TestLoadLibraryErrors(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/libraries/missing/load", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body := f.do(t, http.MethodPost, "/libraries/broken/load", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, body["error"], "host rejected request")
	assert.Equal(t, loader.StateUnloaded, f.coord.State("broken"))
}

func TestExecuteSnippet(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/snippets/execute", ExecuteRequest{
		Requires: []string{"widgets", "charts"},
		Script:   "console.log('<b>rendering</b>'); Widgets.name + '+' + Charts.name",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["run_id"])

	result := body["result"].(map[string]interface{})
	assert.Equal(t, "widgets+charts", result["value"])

	console := result["console"].([]interface{})
	require.Len(t, console, 1)
	assert.Equal(t, "rendering", console[0].(map[string]interface{})["message"])

	assert.ElementsMatch(t, []string{"charts", "widgets"}, f.coord.Loaded())
}

func TestExecuteSnippetFailures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  interface{}
		code int
	}{
		{name: "missing script", req: map[string]interface{}{"requires": []string{}}, code: http.StatusBadRequest},
		{name: "blank script", req: ExecuteRequest{Script: "  "}, code: http.StatusBadRequest},
		{name: "invalid library id", req: ExecuteRequest{Requires: []string{"a/b"}, Script: "1"}, code: http.StatusBadRequest},
		{name: "unknown library", req: ExecuteRequest{Requires: []string{"ghost"}, Script: "1"}, code: http.StatusNotFound},
		{name: "install failure", req: ExecuteRequest{Requires: []string{"broken"}, Script: "1"}, code: http.StatusBadGateway},
		{name: "script error", req: ExecuteRequest{Script: "undefinedFn()"}, code: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := f.do(t, http.MethodPost, "/snippets/execute", tt.req)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestMetricsEndpoints(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/libraries/widgets/load", nil)

	w, _ := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `docext_loader_ensure_total{library="widgets",outcome="started"} 1`)

	w, body := f.do(t, http.MethodGet, "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := body["metrics"].(map[string]interface{})
	assert.Equal(t, float64(1), snap["libraries_loaded"])
}

func TestExecuteSnippetBodyLimits(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/snippets/execute", ExecuteRequest{
		Script: strings.Repeat("x", utils.MaxRequestSize),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "request body exceeds")

	w, body = f.do(t, http.MethodPost, "/snippets/execute", ExecuteRequest{
		Script: strings.Repeat("x", utils.MaxScriptSize+1),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "exceeds maximum")
	assert.Zero(t, f.installer.calls.Load())
}
