// Package doctree builds and renders the document forest of a collection
// from a flat document list. Documents reference their parent by id;
// parents may be absent from a partially-fetched set, in which case their
// children render as roots rather than dangling.
package doctree

import (
	"sort"
	"strings"

	"github.com/wikictl/wikictl/internal/api"
)

// UntitledLabel stands in for a missing document title in every
// user-facing rendering and in sibling sort order.
const UntitledLabel = "(untitled)"

// DisplayTitle returns a document's title or the untitled placeholder.
func DisplayTitle(doc api.Record) string {
	if title := doc.Title(); title != "" {
		return title
	}
	return UntitledLabel
}

// ByID indexes documents by id.
func ByID(docs []api.Record) map[string]api.Record {
	byID := make(map[string]api.Record, len(docs))
	for _, d := range docs {
		if id := d.ID(); id != "" {
			byID[id] = d
		}
	}
	return byID
}

// ChildrenByParent buckets documents under their parentDocumentId in a
// single pass; root documents bucket under "". Siblings are sorted
// case-insensitively by display title.
func ChildrenByParent(docs []api.Record) map[string][]api.Record {
	children := make(map[string][]api.Record)
	for _, d := range docs {
		pid := d.ParentDocumentID()
		children[pid] = append(children[pid], d)
	}
	for pid := range children {
		sortByTitle(children[pid])
	}
	return children
}

// Roots returns the forest's root documents: those with no parent, or
// whose parent id is absent from the set. The latter keeps a filtered or
// partially-fetched subset rendering as a valid forest.
func Roots(docs []api.Record) []api.Record {
	byID := ByID(docs)
	var roots []api.Record
	for _, d := range docs {
		pid := d.ParentDocumentID()
		if pid == "" {
			roots = append(roots, d)
			continue
		}
		if _, ok := byID[pid]; !ok {
			roots = append(roots, d)
		}
	}
	sortByTitle(roots)
	return roots
}

// Breadcrumb returns the title path from the topmost known ancestor down
// to doc, e.g. "Handbook / Engineering / Onboarding". The walk stops at
// unknown parents and guards against reference cycles.
func Breadcrumb(doc api.Record, byID map[string]api.Record) string {
	parts := []string{DisplayTitle(doc)}
	seen := map[string]bool{}
	cur := doc
	for {
		pid := cur.ParentDocumentID()
		if pid == "" || seen[pid] {
			break
		}
		seen[pid] = true
		parent, ok := byID[pid]
		if !ok {
			break
		}
		parts = append([]string{DisplayTitle(parent)}, parts...)
		cur = parent
	}
	return strings.Join(parts, " / ")
}

// Descendants returns id and every document reachable below it through
// the adjacency, including id itself.
func Descendants(id string, children map[string][]api.Record) map[string]bool {
	ids := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[cur] {
			cid := child.ID()
			if cid == "" || ids[cid] {
				continue
			}
			ids[cid] = true
			stack = append(stack, cid)
		}
	}
	return ids
}

func sortByTitle(docs []api.Record) {
	sort.SliceStable(docs, func(i, j int) bool {
		return strings.ToLower(DisplayTitle(docs[i])) < strings.ToLower(DisplayTitle(docs[j]))
	})
}
