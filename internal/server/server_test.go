package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/internal/logging"
	"github.com/IvanBrykalov/tiercache/memory"
	"github.com/IvanBrykalov/tiercache/metrics/prom"
	"github.com/IvanBrykalov/tiercache/tiered"
)

func newTestApp(t *testing.T) (*fiber.App, *memory.Cache[[]byte]) {
	t.Helper()
	reg := prometheus.NewRegistry()
	mem := memory.New(memory.Options[[]byte]{Metrics: prom.New(reg, "tiercache", "memory", nil)})
	tc := tiered.New([]cache.Cache[[]byte]{mem})

	app, err := NewApp(Options{
		Logger:  logging.Discard(),
		Cache:   tc,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	require.NoError(t, err)
	return app, mem
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	resp, err := app.Test(httptest.NewRequest(method, target, r))
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestCacheRoutes(t *testing.T) {
	app, mem := newTestApp(t)

	resp, _ := do(t, app, http.MethodGet, "/cache/k", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = do(t, app, http.MethodPut, "/cache/k", "hello")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, body := do(t, app, http.MethodGet, "/cache/k", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", body)

	resp, _ = do(t, app, http.MethodDelete, "/cache/k", "")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodGet, "/cache/k", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	do(t, app, http.MethodPut, "/cache/a", "1")
	do(t, app, http.MethodPut, "/cache/b", "2")
	resp, _ = do(t, app, http.MethodDelete, "/cache", "")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Zero(t, mem.Len())
}

func TestEscapedKeys(t *testing.T) {
	app, mem := newTestApp(t)

	resp, _ := do(t, app, http.MethodPut, "/cache/a%2Fb", "v")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	v, ok := mem.Load("a/b")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestMetricsRoute(t *testing.T) {
	app, _ := newTestApp(t)
	do(t, app, http.MethodGet, "/cache/missing", "")

	resp, body := do(t, app, http.MethodGet, "/metrics", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "tiercache_memory_misses_total 1")
}

func TestNewApp_RequiresDependencies(t *testing.T) {
	_, err := NewApp(Options{Cache: tiered.New[[]byte](nil)})
	assert.Error(t, err)
	_, err = NewApp(Options{Logger: logging.Discard()})
	assert.Error(t, err)
}
