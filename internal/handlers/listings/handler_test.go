package listings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fbmp/internal/errors"
	"fbmp/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, st store.Store) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		OptionsPassthrough: true,
	}))
	r.Use(errors.Recoverer)
	r.NotFound(errors.NotFound)
	r.MethodNotAllowed(errors.MethodNotAllowed(r))

	NewListingsHandler(newTestService(t, st, nil)).Mount(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHandler_CreateGetUpdateDelete(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	rec := do(t, r, http.MethodPost, "/api/listings", `{"link":"`+itemLink+`","product":"Bike"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ListingResponse](t, rec)
	assert.True(t, created.Success)
	assert.Equal(t, store.StatusPending, created.Data.Status)

	rec = do(t, r, http.MethodGet, "/api/listings/"+created.Data.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Data.ID, decode[ListingResponse](t, rec).Data.ID)

	rec = do(t, r, http.MethodPut, "/api/listings/"+created.Data.ID, `{"status":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[ListingResponse](t, rec)
	assert.Equal(t, store.StatusActive, updated.Data.Status)
	assert.True(t, updated.Data.UpdatedAt.After(created.Data.UpdatedAt))

	rec = do(t, r, http.MethodDelete, "/api/listings/"+created.Data.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MessageResponse{Success: true, Message: "Listing deleted successfully"}, decode[MessageResponse](t, rec))

	rec = do(t, r, http.MethodGet, "/api/listings/"+created.Data.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrNotFound, decode[errors.Response](t, rec).Code)
}

func TestHandler_ProductNullInJSON(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	rec := do(t, r, http.MethodPost, "/api/listings", `{"link":"`+itemLink+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var raw struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw.Data, "product")
	assert.Nil(t, raw.Data["product"])
}

func TestHandler_DuplicateIs409(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/listings", `{"link":"`+itemLink+`"}`).Code)

	rec := do(t, r, http.MethodPost, "/api/listings", `{"link":"`+itemLink+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[errors.Response](t, rec)
	assert.Equal(t, errors.ErrDuplicate, resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestHandler_BadInputIs400(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"malformed id", http.MethodGet, "/api/listings/1234", ""},
		{"malformed id on delete", http.MethodDelete, "/api/listings/not-a-uuid", ""},
		{"non numeric status route", http.MethodGet, "/api/listings/status/active", ""},
		{"non numeric status body", http.MethodPut, "/api/listings/" + missingID, `{"status":"abc"}`},
		{"empty body", http.MethodPost, "/api/listings", ""},
		{"broken json", http.MethodPost, "/api/listings", `{"link":`},
		{"foreign link", http.MethodPost, "/api/listings", `{"link":"https://google.com/x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, errors.ErrInvalidInput, decode[errors.Response](t, rec).Code)
		})
	}
}

func TestHandler_ListAndByStatus(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	for _, body := range []string{
		`{"link":"https://fb.com/a","status":1}`,
		`{"link":"https://fb.com/b"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/listings", body).Code)
	}

	all := decode[ListingsResponse](t, do(t, r, http.MethodGet, "/api/listings", ""))
	assert.True(t, all.Success)
	assert.Equal(t, 2, all.Count)

	active := decode[ListingsByStatusResponse](t, do(t, r, http.MethodGet, "/api/listings/status/1", ""))
	assert.Equal(t, 1, active.Count)
	assert.Equal(t, store.StatusActive, active.Status)
	assert.Equal(t, "https://fb.com/a", active.Data[0].Link)

	none := decode[ListingsByStatusResponse](t, do(t, r, http.MethodGet, "/api/listings/status/9", ""))
	assert.NotNil(t, none.Data)
	assert.Zero(t, none.Count)
}

func TestHandler_TodayStats(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/listings", `{"link":"`+itemLink+`"}`).Code)

	rec := do(t, r, http.MethodGet, "/api/listings/stats/today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[StatsResponse](t, rec)
	assert.Equal(t, int64(1), stats.Data.Count)
	assert.Len(t, stats.Data.Date, len("2006-01-02"))
}

func TestHandler_OptionsIsEmpty200(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	for _, path := range []string{"/api/listings", "/api/listings/" + missingID, "/api/listings/status/1"} {
		rec := do(t, r, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
	}
}

func TestHandler_PreflightCarriesCORSHeaders(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	req := httptest.NewRequest(http.MethodOptions, "/api/listings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestHandler_UnsupportedMethodIs405(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	rec := do(t, r, http.MethodPatch, "/api/listings/"+missingID, `{}`)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, PUT, DELETE, OPTIONS", rec.Header().Get("Allow"))
	resp := decode[errors.Response](t, rec)
	assert.Equal(t, "Method not allowed", resp.Error)
	assert.Equal(t, errors.ErrMethodNotAllowed, resp.Code)

	rec = do(t, r, http.MethodDelete, "/api/listings", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Allow"))
}

func TestHandler_StoreFailureIs500WithDetails(t *testing.T) {
	r := newTestRouter(t, failingStore{err: context.DeadlineExceeded})

	rec := do(t, r, http.MethodGet, "/api/listings", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[errors.Response](t, rec)
	assert.Equal(t, errors.ErrStore, resp.Code)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Details)
}

func TestHandler_PanicIsInternal(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(errors.Recoverer)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("kaboom") })

	rec := do(t, r, http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[errors.Response](t, rec)
	assert.Equal(t, errors.ErrInternal, resp.Code)
	assert.Equal(t, "Internal server error", resp.Error)
	assert.Empty(t, resp.Details)
}
