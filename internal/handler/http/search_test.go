package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reliantech/storefront/internal/domain"
)

func decodeSearch(t *testing.T, rec *httptest.ResponseRecorder) SearchResponse {
	t.Helper()
	var env struct {
		Data SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func TestSearch_CombinedResult(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)
		assert.Equal(t, "rack", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode([]domain.Product{
			{ID: "prod-1", Name: "PowerEdge R650 rack server"},
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=rack", nil)
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeSearch(t, rec)
	assert.Equal(t, "rack", data.Query)
	require.Len(t, data.Categories, 1)
	assert.Equal(t, "cat-servers", data.Categories[0].ID)
	require.Len(t, data.Products, 1)
}

func TestSearch_ShortQuerySkipsUpstream(t *testing.T) {
	called := false
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=r", nil)
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeSearch(t, rec)
	assert.Empty(t, data.Categories)
	assert.Empty(t, data.Products)
	assert.False(t, called, "upstream must not be called for a short query")
}

func TestSearch_EmptyQuery(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeSearch(t, rec)
	assert.Empty(t, data.Products)
}

func TestSearchStream_DeliversDebouncedResults(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/search" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]domain.Product{
			{ID: "prod-1", Name: "PowerEdge R650 rack server"},
		})
	})

	srv := httptest.NewServer(ts.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	streamReq, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/search/stream", nil)
	require.NoError(t, err)
	streamReq.Header.Set("X-User-ID", "user-1")

	streamResp, err := http.DefaultClient.Do(streamReq)
	require.NoError(t, err)
	t.Cleanup(func() { _ = streamResp.Body.Close() })
	require.Equal(t, http.StatusOK, streamResp.StatusCode)
	require.Contains(t, streamResp.Header.Get("Content-Type"), "text/event-stream")

	// The lookup is registered before the stream headers are written, so a
	// keystroke sent now cannot race the stream setup.
	queryReq, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/api/v1/search/query",
		strings.NewReader(`{"query":"rack"}`))
	require.NoError(t, err)
	queryReq.Header.Set("Content-Type", "application/json")
	queryReq.Header.Set("X-User-ID", "user-1")

	queryResp, err := http.DefaultClient.Do(queryReq)
	require.NoError(t, err)
	_ = queryResp.Body.Close()
	require.Equal(t, http.StatusAccepted, queryResp.StatusCode)

	scanner := bufio.NewScanner(streamResp.Body)
	var final streamEvent
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assert.Equal(t, "rack", ev.Query)
		if !ev.Partial {
			final = ev
			found = true
			break
		}
	}
	require.True(t, found, "expected a completed result on the stream")
	require.Len(t, final.Categories, 1)
	assert.Equal(t, "cat-servers", final.Categories[0].ID)
	require.Len(t, final.Products, 1)
	assert.Equal(t, "prod-1", final.Products[0].ID)
}

func TestSearchQuery_NoOpenStream(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/query", strings.NewReader(`{"query":"rack"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-9")
	rec := ts.do(req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch_UpstreamFailureDegradesToCategories(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=rack", nil)
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeSearch(t, rec)
	assert.Len(t, data.Categories, 1)
	assert.Empty(t, data.Products)
}
