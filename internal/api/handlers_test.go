package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/awslens/awslens/internal/api"
	"github.com/awslens/awslens/internal/database"
	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
)

type fakeReader struct {
	records map[string]*domain.ContentRecord
	recent  []domain.ContentRecord
	stats   *database.Stats

	recentLimit int
	listErr     error
}

func (r *fakeReader) GetByID(_ context.Context, id string) (*domain.ContentRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (r *fakeReader) GetStats(context.Context) (*database.Stats, error) {
	return r.stats, nil
}

func (r *fakeReader) CountBySource(context.Context) (map[string]int64, error) {
	return map[string]int64{domain.SourceTypeBlog: 10}, nil
}

func (r *fakeReader) ListRecent(_ context.Context, limit int) ([]domain.ContentRecord, error) {
	r.recentLimit = limit
	if r.listErr != nil {
		return nil, r.listErr
	}
	if len(r.recent) > limit {
		return r.recent[:limit], nil
	}
	return r.recent, nil
}

type fakePinger struct {
	err error
}

func (p *fakePinger) PingContext(context.Context) error { return p.err }

func newTestRouter(reader *fakeReader, pinger *fakePinger) http.Handler {
	handler := api.NewHandler(reader, pinger, logging.NewNop())
	return api.NewRouter(handler, false)
}

func doRequest(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return body
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&fakeReader{}, &fakePinger{})

	rec := doRequest(t, router, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}
}

func TestReadyCheck(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		router := newTestRouter(&fakeReader{}, &fakePinger{})

		rec := doRequest(t, router, http.MethodGet, "/ready")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /ready = %d, want 200", rec.Code)
		}
	})

	t.Run("database down", func(t *testing.T) {
		router := newTestRouter(&fakeReader{}, &fakePinger{err: errors.New("refused")})

		rec := doRequest(t, router, http.MethodGet, "/ready")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("GET /ready = %d, want 503", rec.Code)
		}
	})
}

func TestGetStats(t *testing.T) {
	reader := &fakeReader{stats: &database.Stats{Total: 50, Processed: 30, Unprocessed: 20}}
	router := newTestRouter(reader, &fakePinger{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/stats = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	content, ok := body["content"].(map[string]any)
	if !ok {
		t.Fatal("response missing content stats")
	}
	if content["total"].(float64) != 50 {
		t.Errorf("total = %v, want 50", content["total"])
	}
	bySource, ok := body["by_source"].(map[string]any)
	if !ok || bySource[domain.SourceTypeBlog].(float64) != 10 {
		t.Errorf("by_source = %v, want blog=10", body["by_source"])
	}
}

func TestListRecent(t *testing.T) {
	reader := &fakeReader{
		recent: []domain.ContentRecord{{ID: "1"}, {ID: "2"}, {ID: "3"}},
	}
	router := newTestRouter(reader, &fakePinger{})

	t.Run("default limit", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/content/recent")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if reader.recentLimit != 20 {
			t.Errorf("limit = %d, want default 20", reader.recentLimit)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/content/recent?limit=2")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["total"].(float64) != 2 {
			t.Errorf("total = %v, want 2", body["total"])
		}
	})

	t.Run("limit clamped", func(t *testing.T) {
		doRequest(t, router, http.MethodGet, "/api/v1/content/recent?limit=5000")
		if reader.recentLimit != 100 {
			t.Errorf("limit = %d, want clamp to 100", reader.recentLimit)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/content/recent?limit=abc")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestGetContent(t *testing.T) {
	reader := &fakeReader{
		records: map[string]*domain.ContentRecord{
			"abc": {ID: "abc", URL: "https://example.com/post", Title: "A Post"},
		},
	}
	router := newTestRouter(reader, &fakePinger{})

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/content/abc")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["title"] != "A Post" {
			t.Errorf("title = %v, want A Post", body["title"])
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/content/missing")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}
