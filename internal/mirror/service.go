package mirror

import (
	"context"
	"io"
	"log"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/doctree"
)

// Options control whether a listing may be served from the mirror and how
// a live fetch behaves.
type Options struct {
	// UseCache serves a present entry without a network call and persists
	// the result of a live fetch.
	UseCache bool
	// RefreshCache forces a live fetch even when an entry is present.
	RefreshCache bool
	// Workers bounds the concurrent page fetcher.
	Workers int
}

// Service answers collection and document listings cache-first, falling
// back to the concurrent page fetcher, and performs targeted subtree
// refreshes for interactive browsing.
type Service struct {
	store  Store
	logger *log.Logger
}

// NewService creates a mirror service on top of a store. A nil logger
// discards diagnostics.
func NewService(store Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{store: store, logger: logger}
}

// Collections returns the global collection list, from the mirror when
// permitted and present, otherwise via a full fetch of /collections.list.
func (s *Service) Collections(ctx context.Context, c *api.Client, opts Options) ([]api.Record, error) {
	return s.list(ctx, c, KeyCollections, "/collections.list", nil, opts)
}

// Documents returns one collection's full document list, keyed in the
// mirror by "collection:<id>".
func (s *Service) Documents(ctx context.Context, c *api.Client, collectionID string, opts Options) ([]api.Record, error) {
	params := map[string]any{"collectionId": collectionID}
	return s.list(ctx, c, CollectionKey(collectionID), "/documents.list", params, opts)
}

// list is the shared cache-or-fetch path. A fetch that fails returns
// before any Put, preserving the invariant that persisted entries are
// complete; a Put that fails is swallowed because the mirror is
// best-effort and the in-memory result is still good.
func (s *Service) list(ctx context.Context, c *api.Client, key, path string, params map[string]any, opts Options) ([]api.Record, error) {
	if opts.UseCache && !opts.RefreshCache {
		if records, ok := s.store.Get(key); ok {
			s.logger.Printf("mirror hit: %s (%d records)", key, len(records))
			return records, nil
		}
	}

	records, err := c.FetchAll(ctx, path, params, api.MaxPageSize, opts.Workers)
	if err != nil {
		return nil, err
	}
	if opts.UseCache {
		if err := s.store.Put(key, records); err != nil {
			s.logger.Printf("mirror write failed for %s: %v", key, err)
		}
	}
	return records, nil
}

// RefreshBranch re-fetches the direct children of parentID within a
// collection and splices them into the mirrored document list, returning
// the entire updated list.
//
// A nil parentID means the collection root; the parentDocumentId filter is
// then sent explicitly as JSON null, because omitting it would mean "no
// parent filter" instead of "root documents only".
//
// Eviction covers the parent's previously-cached direct children and,
// transitively, all of their cached descendants (walked over the stale
// adjacency). Fetching fresh direct children alone could otherwise leave
// stale grandchildren pointing at ids that no longer exist. Siblings and
// unrelated branches are untouched.
func (s *Service) RefreshBranch(ctx context.Context, c *api.Client, collectionID string, parentID *string, workers int) ([]api.Record, error) {
	key := CollectionKey(collectionID)
	stale, _ := s.store.Get(key)

	params := map[string]any{"collectionId": collectionID}
	if parentID != nil {
		params["parentDocumentId"] = *parentID
	} else {
		params["parentDocumentId"] = nil
	}
	fresh, err := c.FetchAll(ctx, "/documents.list", params, api.MaxPageSize, workers)
	if err != nil {
		return nil, err
	}

	children := doctree.ChildrenByParent(stale)
	discard := map[string]bool{}
	pid := ""
	if parentID != nil {
		pid = *parentID
	}
	for _, child := range children[pid] {
		for id := range doctree.Descendants(child.ID(), children) {
			discard[id] = true
		}
	}

	merged := make([]api.Record, 0, len(stale)-len(discard)+len(fresh))
	for _, d := range stale {
		if !discard[d.ID()] {
			merged = append(merged, d)
		}
	}
	merged = append(merged, fresh...)

	s.logger.Printf("branch refresh %s parent=%q: -%d stale, +%d fresh", collectionID, pid, len(discard), len(fresh))
	if err := s.store.Put(key, merged); err != nil {
		s.logger.Printf("mirror write failed for %s: %v", key, err)
	}
	return merged, nil
}

// Cached returns the mirrored document list for a collection without any
// network traffic.
func (s *Service) Cached(collectionID string) []api.Record {
	records, _ := s.store.Get(CollectionKey(collectionID))
	return records
}
