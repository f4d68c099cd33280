package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"plain string", "# Title", "# Title"},
		{"byte slice", []byte("raw bytes"), "raw bytes"},
		{
			"node buffer object",
			map[string]any{"type": "Buffer", "data": []any{float64('h'), float64('i')}},
			"hi",
		},
		{
			"sole data key recurses",
			map[string]any{"data": "inner text"},
			"inner text",
		},
		{
			"nested buffer under data",
			map[string]any{"data": map[string]any{"type": "Buffer", "data": []any{float64('o'), float64('k')}}},
			"ok",
		},
		{
			"buffer with bad entries falls back to json",
			map[string]any{"type": "Buffer", "data": []any{"x"}},
			`{"data":["x"],"type":"Buffer"}`,
		},
		{
			"multi-key object renders as json",
			map[string]any{"a": "b", "c": "d"},
			`{"a":"b","c":"d"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeText(tt.in); got != tt.want {
				t.Errorf("DecodeText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExportDocumentDirectData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"# Exported\n\ncontent"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	text, err := c.ExportDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if text != "# Exported\n\ncontent" {
		t.Errorf("text = %q", text)
	}
}

func TestExportDocumentBufferData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"type": "Buffer", "data": []int{'#', ' ', 'B'}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	text, err := c.ExportDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if text != "# B" {
		t.Errorf("text = %q", text)
	}
}

func TestExportDocumentRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Raw markdown"))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	text, err := c.ExportDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if text != "# Raw markdown" {
		t.Errorf("text = %q", text)
	}
}

func TestExportDocumentFileOperation(t *testing.T) {
	var mu sync.Mutex
	var downloadAuth []string

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/documents.export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"fileOperation":{"id":"op-1","state":"creating"}}}`))
	})
	mux.HandleFunc("/fileOperations.redirect", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["id"] != "op-1" {
			t.Errorf("redirect payload = %v", body)
		}
		w.Header().Set("Location", srv.URL+"/storage/op-1.md")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/storage/op-1.md", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		downloadAuth = append(downloadAuth, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Write([]byte("# From storage"))
	})

	c := New(srv.URL, "tok", nil)
	text, err := c.ExportDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if text != "# From storage" {
		t.Errorf("text = %q", text)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(downloadAuth) != 1 || downloadAuth[0] != "" {
		t.Errorf("download requests carried auth headers: %v", downloadAuth)
	}
}

func TestExportDocumentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	if _, err := c.ExportDocument(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
