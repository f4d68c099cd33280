package doctree

import (
	"fmt"
	"io"

	"github.com/wikictl/wikictl/internal/api"
)

// RenderOptions controls the ASCII tree rendering.
type RenderOptions struct {
	// MaxDepth limits how deep below each root children are shown;
	// 0 means unlimited.
	MaxDepth int
	// ShowIDs appends "  [<id>]" to every line.
	ShowIDs bool
}

// Render writes the forest as an ASCII tree, one root per block separated
// by a blank line.
func Render(w io.Writer, roots []api.Record, children map[string][]api.Record, opts RenderOptions) {
	for i, root := range roots {
		fmt.Fprintln(w, lineFor(root, opts))
		renderChildren(w, root, children, "", 1, opts)
		if i < len(roots)-1 {
			fmt.Fprintln(w)
		}
	}
}

func renderChildren(w io.Writer, doc api.Record, children map[string][]api.Record, prefix string, depth int, opts RenderOptions) {
	kids := children[doc.ID()]
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		kids = nil
	}
	for i, child := range kids {
		last := i == len(kids)-1
		branch := "├─ "
		more := "│  "
		if last {
			branch = "└─ "
			more = "   "
		}
		fmt.Fprintln(w, prefix+branch+lineFor(child, opts))
		renderChildren(w, child, children, prefix+more, depth+1, opts)
	}
}

func lineFor(doc api.Record, opts RenderOptions) string {
	title := DisplayTitle(doc)
	if opts.ShowIDs {
		return fmt.Sprintf("%s  [%s]", title, doc.ID())
	}
	return title
}

// Node is the JSON form of a tree node for --json output.
type Node struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URLID     string  `json:"urlId,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
	Children  []*Node `json:"children"`
}

// Nodes converts the forest to its nested JSON form, truncating below
// maxDepth when maxDepth > 0.
func Nodes(roots []api.Record, children map[string][]api.Record, maxDepth int) []*Node {
	nodes := make([]*Node, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, toNode(root, children, 0, maxDepth))
	}
	return nodes
}

func toNode(doc api.Record, children map[string][]api.Record, depth, maxDepth int) *Node {
	node := &Node{
		ID:        doc.ID(),
		Title:     doc.Title(),
		URLID:     doc.Field("urlId"),
		UpdatedAt: doc.Field("updatedAt"),
		Children:  []*Node{},
	}
	if maxDepth > 0 && depth >= maxDepth {
		return node
	}
	for _, child := range children[doc.ID()] {
		node.Children = append(node.Children, toNode(child, children, depth+1, maxDepth))
	}
	return node
}
