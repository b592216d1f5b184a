package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fbmp/internal/config"
	"fbmp/internal/errors"
	"fbmp/internal/events"
	"fbmp/internal/store"
	"fbmp/internal/telemetry"
	"fbmp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	app := &application{
		config: &config.Config{
			HTTPServer: config.HTTPServer{AllowedOrigins: []string{"*"}},
			Events: config.Events{
				ListingCreated: "listings.created",
				ListingUpdated: "listings.updated",
				ListingDeleted: "listings.deleted",
			},
		},
		store:    store.NewMemoryStore(),
		eventBus: events.NopBus{},
		logger:   testutil.NewTestLogger(),
		metrics:  telemetry.NewMetrics(),
	}
	return app.mount()
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMount_Health(t *testing.T) {
	rec := serve(newTestApp(t), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMount_MetricsUseRoutePatterns(t *testing.T) {
	h := newTestApp(t)

	serve(h, http.MethodGet, "/api/listings/a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", "")
	rec := serve(h, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/listings/{id}"`)
	assert.NotContains(t, rec.Body.String(), "a0eebc99-9c0b")
}

func TestMount_UnknownRouteIsJSON404(t *testing.T) {
	rec := serve(newTestApp(t), http.MethodGet, "/api/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp errors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrNotFound, resp.Code)
}

func TestMount_APIAndPageShareTheStore(t *testing.T) {
	h := newTestApp(t)

	rec := serve(h, http.MethodPost, "/api/listings", `{"link":"https://www.facebook.com/marketplace/item/road-bike"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	page := serve(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "road bike")
}

func TestMount_MethodNotAllowed(t *testing.T) {
	rec := serve(newTestApp(t), http.MethodPut, "/api/listings", `{}`)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Allow"))
}

func TestOpenStore_RejectsUnknownScheme(t *testing.T) {
	_, err := openStore(t.Context(), config.Store{URL: "mysql://localhost/fbmp", Key: "k"})

	assert.ErrorContains(t, err, `unsupported store url scheme "mysql"`)
}

func TestOpenStore_HTTPSIsPostgREST(t *testing.T) {
	st, err := openStore(t.Context(), config.Store{URL: "https://abc.supabase.co", Key: "k"})

	require.NoError(t, err)
	assert.NoError(t, st.Close())
}
