package interactive

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/doctree"
	"github.com/wikictl/wikictl/internal/mirror"
)

// Browser walks collections and documents like a file manager, fetching
// one level of children per step via the mirror's branch refresh.
type Browser struct {
	Client       *api.Client
	Service      *mirror.Service
	Workers      int
	RefreshCache bool
}

// navigation sentinels; NUL prefixes keep them out of the id space.
const (
	valUp     = "\x00up"
	valDone   = "\x00done"
	valToggle = "\x00toggle"
	valHere   = "\x00here"
)

type browseState struct {
	collection api.Record
	docs       []api.Record
	children   map[string][]api.Record
}

func (b *Browser) loadCollections(ctx context.Context) ([]api.Record, error) {
	var cols []api.Record
	err := WithSpinner("Loading collections...", func() error {
		var err error
		cols, err = b.Service.Collections(ctx, b.Client, mirror.Options{
			UseCache:     true,
			RefreshCache: b.RefreshCache,
			Workers:      b.Workers,
		})
		return err
	})
	return cols, err
}

func (b *Browser) openCollection(ctx context.Context, coll api.Record) (*browseState, error) {
	st := &browseState{collection: coll}
	st.docs = b.Service.Cached(coll.ID())
	if b.RefreshCache || len(st.docs) == 0 {
		if err := b.refresh(ctx, st, nil); err != nil {
			return nil, err
		}
	} else {
		st.children = doctree.ChildrenByParent(st.docs)
	}
	return st, nil
}

// refresh reloads one branch of the collection and rebuilds the adjacency.
func (b *Browser) refresh(ctx context.Context, st *browseState, parentID *string) error {
	return WithSpinner("Loading documents...", func() error {
		docs, err := b.Service.RefreshBranch(ctx, b.Client, st.collection.ID(), parentID, b.Workers)
		if err != nil {
			return err
		}
		st.docs = docs
		st.children = doctree.ChildrenByParent(docs)
		return nil
	})
}

func collectionLabel(coll api.Record) string {
	if name := coll.Name(); name != "" {
		return name
	}
	return doctree.UntitledLabel
}

func childLabel(st *browseState, doc api.Record, mark string) string {
	title := doctree.DisplayTitle(doc)
	suffix := ""
	if len(st.children[doc.ID()]) > 0 {
		suffix = "/"
	}
	if mark != "" {
		return fmt.Sprintf("%s %s%s", mark, title, suffix)
	}
	return title + suffix
}

func selectOne(title string, options []huh.Option[string]) (string, error) {
	var picked string
	field := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Height(listHeight).
		Value(&picked)
	if err := runField(field); err != nil {
		return "", err
	}
	return picked, nil
}

// BrowseForExport lets the operator wander the collection/document forest
// and toggle items to export. Toggling a document selects its whole
// cached subtree; toggling again deselects it. Returns the selected
// document ids and collection ids.
func (b *Browser) BrowseForExport(ctx context.Context) (docIDs, colIDs []string, err error) {
	collections, err := b.loadCollections(ctx)
	if err != nil {
		return nil, nil, err
	}

	selectedDocs := map[string]bool{}
	selectedCols := map[string]bool{}

	for {
		options := make([]huh.Option[string], 0, len(collections)+1)
		for _, coll := range collections {
			mark := "[ ]"
			if selectedCols[coll.ID()] {
				mark = "[x]"
			}
			options = append(options, huh.NewOption(fmt.Sprintf("%s %s", mark, collectionLabel(coll)), coll.ID()))
		}
		options = append(options, huh.NewOption("<Export selection>", valDone))

		picked, err := selectOne("Collections", options)
		if err != nil {
			return nil, nil, err
		}
		if picked == valDone {
			break
		}
		for _, coll := range collections {
			if coll.ID() == picked {
				done, err := b.browseExportCollection(ctx, coll, selectedDocs, selectedCols)
				if err != nil {
					return nil, nil, err
				}
				if done {
					return keys(selectedDocs), keys(selectedCols), nil
				}
				break
			}
		}
	}
	return keys(selectedDocs), keys(selectedCols), nil
}

// browseExportCollection walks one collection's folders. Returns true when
// the operator finished the whole selection from inside the collection.
func (b *Browser) browseExportCollection(ctx context.Context, coll api.Record, selectedDocs, selectedCols map[string]bool) (bool, error) {
	st, err := b.openCollection(ctx, coll)
	if err != nil {
		return false, err
	}

	type frame struct {
		parentID *string
		path     string
	}
	stack := []frame{{parentID: nil, path: collectionLabel(coll)}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		options := []huh.Option[string]{huh.NewOption("..", valUp)}
		if cur.parentID == nil {
			mark := "[ ]"
			if selectedCols[coll.ID()] {
				mark = "[x]"
			}
			options = append(options, huh.NewOption(mark+" Export the entire collection", valToggle))
		} else {
			mark := "[ ]"
			if selectedDocs[*cur.parentID] {
				mark = "[x]"
			}
			options = append(options, huh.NewOption(mark+" Select this folder and everything below", valToggle))
		}
		pid := ""
		if cur.parentID != nil {
			pid = *cur.parentID
		}
		for _, child := range st.children[pid] {
			mark := "[ ]"
			if selectedDocs[child.ID()] {
				mark = "[x]"
			}
			options = append(options, huh.NewOption(childLabel(st, child, mark), child.ID()))
		}
		options = append(options, huh.NewOption("<Done>", valDone))

		picked, err := selectOne(cur.path, options)
		if err != nil {
			return false, err
		}
		switch picked {
		case valUp:
			stack = stack[:len(stack)-1]
		case valDone:
			return true, nil
		case valToggle:
			if cur.parentID == nil {
				selectedCols[coll.ID()] = !selectedCols[coll.ID()]
			} else {
				toggleSubtree(*cur.parentID, st.children, selectedDocs)
			}
		default:
			child := picked
			if err := b.refresh(ctx, st, &child); err != nil {
				return false, err
			}
			if len(st.children[child]) > 0 {
				title := doctree.UntitledLabel
				if doc, ok := doctree.ByID(st.docs)[child]; ok {
					title = doctree.DisplayTitle(doc)
				}
				stack = append(stack, frame{parentID: &child, path: cur.path + "/" + title})
			} else {
				toggleSubtree(child, st.children, selectedDocs)
			}
		}
	}
	return false, nil
}

// PickDestination browses to an import destination: a collection plus an
// optional parent document. Returns the collection id, the parent id (nil
// for the collection root), and a human-readable label for confirmation.
func (b *Browser) PickDestination(ctx context.Context) (string, *string, string, error) {
	collections, err := b.loadCollections(ctx)
	if err != nil {
		return "", nil, "", err
	}

	for {
		options := make([]huh.Option[string], 0, len(collections))
		for _, coll := range collections {
			options = append(options, huh.NewOption(collectionLabel(coll), coll.ID()))
		}
		picked, err := selectOne("Collections", options)
		if err != nil {
			return "", nil, "", err
		}
		for _, coll := range collections {
			if coll.ID() == picked {
				collID, parentID, label, found, err := b.browseDestination(ctx, coll)
				if err != nil {
					return "", nil, "", err
				}
				if found {
					return collID, parentID, label, nil
				}
				break
			}
		}
	}
}

// browseDestination walks one collection looking for a destination.
// found=false means the operator backed out to the collection list.
func (b *Browser) browseDestination(ctx context.Context, coll api.Record) (string, *string, string, bool, error) {
	st, err := b.openCollection(ctx, coll)
	if err != nil {
		return "", nil, "", false, err
	}

	type frame struct {
		parentID *string
		path     string
	}
	stack := []frame{{parentID: nil, path: collectionLabel(coll)}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		options := []huh.Option[string]{huh.NewOption("..", valUp)}
		if cur.parentID == nil {
			options = append(options, huh.NewOption("Import into the collection root", valHere))
		} else {
			options = append(options, huh.NewOption("Import into this folder", valHere))
		}
		pid := ""
		if cur.parentID != nil {
			pid = *cur.parentID
		}
		for _, child := range st.children[pid] {
			options = append(options, huh.NewOption(childLabel(st, child, ""), child.ID()))
		}

		picked, err := selectOne(cur.path, options)
		if err != nil {
			return "", nil, "", false, err
		}
		switch picked {
		case valUp:
			stack = stack[:len(stack)-1]
		case valHere:
			return coll.ID(), cur.parentID, cur.path, true, nil
		default:
			child := picked
			if err := b.refresh(ctx, st, &child); err != nil {
				return "", nil, "", false, err
			}
			title := doctree.UntitledLabel
			if doc, ok := doctree.ByID(st.docs)[child]; ok {
				title = doctree.DisplayTitle(doc)
			}
			if len(st.children[child]) > 0 {
				stack = append(stack, frame{parentID: &child, path: cur.path + "/" + title})
			} else {
				return coll.ID(), &child, cur.path + "/" + title, true, nil
			}
		}
	}
	return "", nil, "", false, nil
}

// toggleSubtree selects or deselects a document together with all of its
// currently-known descendants.
func toggleSubtree(id string, children map[string][]api.Record, selected map[string]bool) {
	ids := doctree.Descendants(id, children)
	if selected[id] {
		for did := range ids {
			delete(selected, did)
		}
		return
	}
	for did := range ids {
		selected[did] = true
	}
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
