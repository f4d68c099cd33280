package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/wikictl/wikictl/internal/api"
)

// memStore keeps the mirror in memory and can be told to fail writes.
type memStore struct {
	entries  map[string][]api.Record
	failPuts bool
	puts     int
}

func newMemStore() *memStore {
	return &memStore{entries: map[string][]api.Record{}}
}

func (m *memStore) Load() map[string][]api.Record { return m.entries }

func (m *memStore) Save(entries map[string][]api.Record) error {
	m.entries = entries
	return nil
}

func (m *memStore) Get(key string) ([]api.Record, bool) {
	records, ok := m.entries[key]
	return records, ok
}

func (m *memStore) Put(key string, records []api.Record) error {
	m.puts++
	if m.failPuts {
		return errors.New("disk full")
	}
	m.entries[key] = records
	return nil
}

// listServer answers /documents.list and /collections.list with canned
// records and records every request body it sees.
type listServer struct {
	mu       sync.Mutex
	records  []api.Record
	bodies   []map[string]any
	requests int
	status   int
}

func (ls *listServer) start(t *testing.T) (*httptest.Server, *api.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		ls.mu.Lock()
		ls.requests++
		ls.bodies = append(ls.bodies, body)
		status := ls.status
		records := ls.records
		ls.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}
		offset := int(body["offset"].(float64))
		var page []api.Record
		if offset == 0 {
			page = records
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": page})
	}))
	t.Cleanup(srv.Close)
	return srv, api.New(srv.URL, "tok", nil)
}

func (ls *listServer) requestCount() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.requests
}

func TestDocumentsServedFromMirror(t *testing.T) {
	ls := &listServer{}
	_, client := ls.start(t)

	store := newMemStore()
	store.entries[CollectionKey("col-1")] = []api.Record{{"id": "doc-1"}}
	svc := NewService(store, nil)

	docs, err := svc.Documents(context.Background(), client, "col-1", Options{UseCache: true, Workers: 2})
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != "doc-1" {
		t.Errorf("docs = %v", docs)
	}
	if n := ls.requestCount(); n != 0 {
		t.Errorf("made %d network requests, want 0 on a mirror hit", n)
	}
}

func TestDocumentsRefreshOverwritesMirror(t *testing.T) {
	ls := &listServer{records: []api.Record{{"id": "doc-new"}}}
	_, client := ls.start(t)

	store := newMemStore()
	store.entries[CollectionKey("col-1")] = []api.Record{{"id": "doc-old"}}
	svc := NewService(store, nil)

	docs, err := svc.Documents(context.Background(), client, "col-1", Options{
		UseCache: true, RefreshCache: true, Workers: 2,
	})
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != "doc-new" {
		t.Errorf("docs = %v", docs)
	}
	cached, _ := store.Get(CollectionKey("col-1"))
	if len(cached) != 1 || cached[0].ID() != "doc-new" {
		t.Errorf("mirror entry = %v, want the refreshed list", cached)
	}
	if ls.requestCount() == 0 {
		t.Error("refresh made no network requests")
	}
}

func TestFailedFetchLeavesMirrorUntouched(t *testing.T) {
	ls := &listServer{status: http.StatusInternalServerError}
	_, client := ls.start(t)

	store := newMemStore()
	svc := NewService(store, nil)

	_, err := svc.Collections(context.Background(), client, Options{UseCache: true, Workers: 2})
	if err == nil {
		t.Fatal("expected error from failing server")
	}
	if store.puts != 0 {
		t.Errorf("store saw %d writes after a failed fetch, want 0", store.puts)
	}
	if _, ok := store.Get(KeyCollections); ok {
		t.Error("a partial entry was persisted")
	}
}

func TestFailedMirrorWriteIsNotFatal(t *testing.T) {
	ls := &listServer{records: []api.Record{{"id": "col-1", "name": "Handbook"}}}
	_, client := ls.start(t)

	store := newMemStore()
	store.failPuts = true
	svc := NewService(store, nil)

	cols, err := svc.Collections(context.Background(), client, Options{UseCache: true, Workers: 2})
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(cols) != 1 || cols[0].Name() != "Handbook" {
		t.Errorf("cols = %v", cols)
	}
}

func TestBypassDoesNotPersist(t *testing.T) {
	ls := &listServer{records: []api.Record{{"id": "doc-1"}}}
	_, client := ls.start(t)

	store := newMemStore()
	svc := NewService(store, nil)

	if _, err := svc.Documents(context.Background(), client, "col-1", Options{Workers: 2}); err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if store.puts != 0 {
		t.Errorf("bypass fetch wrote %d entries, want 0", store.puts)
	}
}

func TestRefreshBranchRootSendsNullParent(t *testing.T) {
	ls := &listServer{records: []api.Record{{"id": "root-1"}}}
	_, client := ls.start(t)

	store := newMemStore()
	svc := NewService(store, nil)

	if _, err := svc.RefreshBranch(context.Background(), client, "col-1", nil, 2); err != nil {
		t.Fatalf("RefreshBranch: %v", err)
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if len(ls.bodies) == 0 {
		t.Fatal("no requests made")
	}
	body := ls.bodies[0]
	v, present := body["parentDocumentId"]
	if !present {
		t.Fatal("parentDocumentId filter was omitted; root refresh must send an explicit null")
	}
	if v != nil {
		t.Errorf("parentDocumentId = %v, want null", v)
	}
	if body["collectionId"] != "col-1" {
		t.Errorf("collectionId = %v", body["collectionId"])
	}
}

func TestRefreshBranchEvictsSubtreeOnly(t *testing.T) {
	// Stale mirror:
	//   A
	//   ├─ A1
	//   │   └─ A1a
	//   └─ A2
	//   B
	//   └─ B1
	stale := []api.Record{
		{"id": "A"},
		{"id": "A1", "parentDocumentId": "A"},
		{"id": "A1a", "parentDocumentId": "A1"},
		{"id": "A2", "parentDocumentId": "A"},
		{"id": "B"},
		{"id": "B1", "parentDocumentId": "B"},
	}
	// The server now reports a single child under A.
	fresh := []api.Record{{"id": "A3", "parentDocumentId": "A"}}

	ls := &listServer{records: fresh}
	_, client := ls.start(t)

	store := newMemStore()
	store.entries[CollectionKey("col-1")] = stale
	svc := NewService(store, nil)

	parent := "A"
	merged, err := svc.RefreshBranch(context.Background(), client, "col-1", &parent, 2)
	if err != nil {
		t.Fatalf("RefreshBranch: %v", err)
	}

	ids := map[string]bool{}
	for _, r := range merged {
		ids[r.ID()] = true
	}
	for _, want := range []string{"A", "B", "B1", "A3"} {
		if !ids[want] {
			t.Errorf("merged list lost %s", want)
		}
	}
	for _, gone := range []string{"A1", "A1a", "A2"} {
		if ids[gone] {
			t.Errorf("stale descendant %s survived the refresh", gone)
		}
	}
	if len(merged) != 4 {
		t.Errorf("merged has %d records, want 4", len(merged))
	}

	cached, _ := store.Get(CollectionKey("col-1"))
	if len(cached) != len(merged) {
		t.Errorf("mirror entry has %d records, want %d", len(cached), len(merged))
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.bodies[0]["parentDocumentId"] != "A" {
		t.Errorf("parentDocumentId = %v, want A", ls.bodies[0]["parentDocumentId"])
	}
}

func TestCached(t *testing.T) {
	store := newMemStore()
	store.entries[CollectionKey("col-1")] = []api.Record{{"id": "doc-1"}}
	svc := NewService(store, nil)

	if got := svc.Cached("col-1"); len(got) != 1 || got[0].ID() != "doc-1" {
		t.Errorf("Cached = %v", got)
	}
	if got := svc.Cached("absent"); got != nil {
		t.Errorf("Cached for unknown collection = %v, want nil", got)
	}
}
