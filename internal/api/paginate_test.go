package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// pagedServer serves a fixed dataset through limit/offset pagination and
// counts the requests it sees.
type pagedServer struct {
	mu       sync.Mutex
	total    int
	requests int
	lastReq  map[string]any
	key      string
	failAt   int
}

func (ps *pagedServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		ps.mu.Lock()
		ps.requests++
		ps.lastReq = body
		ps.mu.Unlock()

		limit := int(body["limit"].(float64))
		offset := int(body["offset"].(float64))

		if ps.failAt > 0 && offset >= ps.failAt {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
			return
		}

		var page []map[string]any
		for i := offset; i < offset+limit && i < ps.total; i++ {
			page = append(page, map[string]any{"id": fmt.Sprintf("doc-%04d", i)})
		}
		key := ps.key
		if key == "" {
			key = "data"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{key: page})
	}
}

func (ps *pagedServer) requestCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.requests
}

func TestFetchPageClampsLimit(t *testing.T) {
	ps := &pagedServer{total: 10}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	if _, err := c.FetchPage(context.Background(), "/documents.list", nil, 500, 0); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	ps.mu.Lock()
	sent := ps.lastReq["limit"].(float64)
	ps.mu.Unlock()
	if sent != MaxPageSize {
		t.Errorf("sent limit = %v, want %d", sent, MaxPageSize)
	}
}

func TestFetchPageMergesParams(t *testing.T) {
	ps := &pagedServer{total: 3}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	params := map[string]any{"collectionId": "col-1"}
	if _, err := c.FetchPage(context.Background(), "/documents.list", params, 25, 50); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.lastReq["collectionId"] != "col-1" {
		t.Errorf("collectionId = %v", ps.lastReq["collectionId"])
	}
	if ps.lastReq["limit"].(float64) != 25 || ps.lastReq["offset"].(float64) != 50 {
		t.Errorf("limit/offset = %v/%v", ps.lastReq["limit"], ps.lastReq["offset"])
	}
	if _, ok := params["limit"]; ok {
		t.Error("caller's params map was mutated")
	}
}

func TestFetchPageAlternateKeys(t *testing.T) {
	for _, key := range []string{"data", "results", "rows"} {
		t.Run(key, func(t *testing.T) {
			ps := &pagedServer{total: 5, key: key}
			srv := httptest.NewServer(ps.handler())
			defer srv.Close()

			c := New(srv.URL, "tok", nil)
			records, err := c.FetchPage(context.Background(), "/documents.list", nil, 10, 0)
			if err != nil {
				t.Fatalf("FetchPage: %v", err)
			}
			if len(records) != 5 {
				t.Errorf("got %d records, want 5", len(records))
			}
		})
	}
}

func TestFetchPageMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["not","an","object"]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	records, err := c.FetchPage(context.Background(), "/documents.list", nil, 10, 0)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil for non-object body", records)
	}
}

func TestFetchAllShortFirstPage(t *testing.T) {
	ps := &pagedServer{total: 7}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	records, err := c.FetchAll(context.Background(), "/documents.list", nil, 10, 4)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(records) != 7 {
		t.Errorf("got %d records, want 7", len(records))
	}
	if n := ps.requestCount(); n != 1 {
		t.Errorf("made %d requests, want 1 for a short first page", n)
	}
}

func TestFetchAllCompleteness(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		limit   int
		workers int
	}{
		{"single worker", 57, 10, 1},
		{"exact page boundary", 40, 10, 4},
		{"short page mid-round", 73, 10, 4},
		{"more workers than pages", 25, 10, 8},
		{"empty dataset", 0, 10, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &pagedServer{total: tt.total}
			srv := httptest.NewServer(ps.handler())
			defer srv.Close()

			c := New(srv.URL, "tok", nil)
			records, err := c.FetchAll(context.Background(), "/documents.list", nil, tt.limit, tt.workers)
			if err != nil {
				t.Fatalf("FetchAll: %v", err)
			}
			if len(records) != tt.total {
				t.Fatalf("got %d records, want %d", len(records), tt.total)
			}
			seen := map[string]bool{}
			for _, r := range records {
				if seen[r.ID()] {
					t.Errorf("duplicate record %s", r.ID())
				}
				seen[r.ID()] = true
			}
			for i := 0; i < tt.total; i++ {
				id := fmt.Sprintf("doc-%04d", i)
				if !seen[id] {
					t.Errorf("missing record %s", id)
				}
			}
		})
	}
}

func TestFetchAllClampsLimitAndWorkers(t *testing.T) {
	ps := &pagedServer{total: 150}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	records, err := c.FetchAll(context.Background(), "/documents.list", nil, 0, 0)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(records) != 150 {
		t.Errorf("got %d records, want 150", len(records))
	}
}

func TestFetchAllPageErrorFailsCall(t *testing.T) {
	ps := &pagedServer{total: 1000, failAt: 30}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	records, err := c.FetchAll(context.Background(), "/documents.list", nil, 10, 4)
	if err == nil {
		t.Fatal("expected error when a page fails")
	}
	if records != nil {
		t.Errorf("records = %d entries, want nil on failure", len(records))
	}
}
