package scanntech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/config"
)

var since = time.Date(2024, 6, 1, 8, 15, 0, 0, time.UTC)

func testClient(srv *httptest.Server, variant string, pageSize int) *Client {
	cfg := &config.Config{
		APIBaseURL:   srv.URL,
		EndpointPath: "/api/v1/articulos/cambios",
		CompanyID:    "77",
		StoreID:      "3",
		User:         "etiquetas",
		Password:     "s3cret",
		Variant:      variant,
		PageSize:     pageSize,
		MaxPages:     50,
		Timeout:      2 * time.Second,
	}
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func page(n, start int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{"codigoInterno": strconv.Itoa(start + i)}
	}
	return items
}

func TestFetchChangesSendsCredentialsAndWatermark(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "etiquetas", user)
		assert.Equal(t, "s3cret", pass)
		assert.Equal(t, "77", r.Header.Get("idEmpresa"))
		assert.Equal(t, "3", r.Header.Get("idLocal"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/api/v1/articulos/cambios", r.URL.Path)
		assert.Equal(t, "2024-06-01T08:15:00", r.URL.Query().Get("fechaDesde"))
		assert.False(t, r.URL.Query().Has("offset"))

		json.NewEncoder(w).Encode(page(3, 1))
	}))
	defer srv.Close()

	changes, err := testClient(srv, config.VariantElapsed, 0).FetchChanges(context.Background(), since)
	require.NoError(t, err)
	assert.Len(t, changes, 3)
	assert.Equal(t, "1", changes[0]["codigoInterno"])
}

func TestFetchChangesPaginatesUntilShortPage(t *testing.T) {
	const pageSize = 5
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "2024-06-01", q.Get("fechaDesde"))
		assert.Equal(t, "08:15:00", q.Get("horaDesde"))
		assert.Equal(t, strconv.Itoa(pageSize), q.Get("limit"))

		offset, _ := strconv.Atoi(q.Get("offset"))
		switch offset {
		case 0, 5:
			json.NewEncoder(w).Encode(map[string]any{"articulos": page(pageSize, offset)})
		case 10:
			json.NewEncoder(w).Encode(map[string]any{"articulos": page(2, offset)})
		default:
			t.Errorf("unexpected request beyond the short page: offset=%d", offset)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	changes, err := testClient(srv, config.VariantPaged, pageSize).FetchChanges(context.Background(), since)
	require.NoError(t, err)
	assert.Len(t, changes, 12)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "11", changes[11]["codigoInterno"])
}

func TestFetchChangesFullPageWithNonObjectItemIsNotLast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, `[{"codigoInterno": "1"}, null, {"codigoInterno": "3"}]`)
		case "3":
			fmt.Fprint(w, `[{"codigoInterno": "4"}]`)
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	changes, err := testClient(srv, config.VariantPaged, 3).FetchChanges(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, changes, 3)
	assert.Equal(t, "4", changes[2]["codigoInterno"])
}

func TestFetchChangesEmptyFirstPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"items": []}`)
	}))
	defer srv.Close()

	changes, err := testClient(srv, config.VariantPaged, 500).FetchChanges(context.Background(), since)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchChangesStopsAtMaxPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(page(2, 0))
	}))
	defer srv.Close()

	c := testClient(srv, config.VariantPaged, 2)
	c.maxPages = 3

	_, err := c.FetchChanges(context.Background(), since)
	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Contains(t, err.Error(), "more than 3 pages")
}

func TestFetchChangesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "<html><body><h1>401</h1><p>Credenciales inválidas</p></body></html>")
	}))
	defer srv.Close()

	_, err := testClient(srv, config.VariantElapsed, 0).FetchChanges(context.Background(), since)

	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, http.StatusUnauthorized, uerr.Status)
	assert.Equal(t, "401Credenciales inválidas", uerr.Snippet)
}

func TestFetchChangesUnexpectedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": 3, "items": "none"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv, config.VariantElapsed, 0).FetchChanges(context.Background(), since)
	assert.ErrorIs(t, err, ErrUnexpectedShape)

	var uerr *UpstreamError
	assert.ErrorAs(t, err, &uerr)
}

func TestFetchChangesInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"codigoInterno":`)
	}))
	defer srv.Close()

	_, err := testClient(srv, config.VariantElapsed, 0).FetchChanges(context.Background(), since)
	var uerr *UpstreamError
	assert.ErrorAs(t, err, &uerr)
}

func TestFetchChangesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := testClient(srv, config.VariantElapsed, 0)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.FetchChanges(context.Background(), since)
	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Zero(t, uerr.Status)
}
