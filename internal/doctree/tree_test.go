package doctree

import (
	"strings"
	"testing"

	"github.com/wikictl/wikictl/internal/api"
)

func doc(id, title, parent string) api.Record {
	r := api.Record{"id": id}
	if title != "" {
		r["title"] = title
	}
	if parent != "" {
		r["parentDocumentId"] = parent
	}
	return r
}

func TestDisplayTitle(t *testing.T) {
	if got := DisplayTitle(doc("x", "Guide", "")); got != "Guide" {
		t.Errorf("DisplayTitle = %q", got)
	}
	if got := DisplayTitle(doc("x", "", "")); got != UntitledLabel {
		t.Errorf("DisplayTitle of untitled = %q", got)
	}
}

func TestChildrenByParentSortsSiblings(t *testing.T) {
	docs := []api.Record{
		doc("1", "zebra", "p"),
		doc("2", "Apple", "p"),
		doc("3", "", "p"),
		doc("4", "mango", ""),
	}
	children := ChildrenByParent(docs)

	var titles []string
	for _, d := range children["p"] {
		titles = append(titles, DisplayTitle(d))
	}
	want := []string{"(untitled)", "Apple", "zebra"}
	if strings.Join(titles, ",") != strings.Join(want, ",") {
		t.Errorf("siblings = %v, want %v", titles, want)
	}
	if len(children[""]) != 1 || children[""][0].ID() != "4" {
		t.Errorf("root bucket = %v", children[""])
	}
}

func TestRootsIncludeOrphans(t *testing.T) {
	docs := []api.Record{
		doc("a", "Alpha", ""),
		doc("b", "Beta", "a"),
		doc("c", "Gamma", "missing-parent"),
	}
	roots := Roots(docs)
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	if roots[0].ID() != "a" || roots[1].ID() != "c" {
		t.Errorf("roots = %s, %s", roots[0].ID(), roots[1].ID())
	}
}

func TestBreadcrumb(t *testing.T) {
	docs := []api.Record{
		doc("a", "Handbook", ""),
		doc("b", "Engineering", "a"),
		doc("c", "Onboarding", "b"),
		doc("d", "", "b"),
		doc("e", "Dangling", "nowhere"),
	}
	byID := ByID(docs)

	tests := []struct {
		id   string
		want string
	}{
		{"a", "Handbook"},
		{"c", "Handbook / Engineering / Onboarding"},
		{"d", "Handbook / Engineering / (untitled)"},
		{"e", "Dangling"},
	}
	for _, tt := range tests {
		if got := Breadcrumb(byID[tt.id], byID); got != tt.want {
			t.Errorf("Breadcrumb(%s) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestBreadcrumbCycleGuard(t *testing.T) {
	docs := []api.Record{
		doc("a", "One", "b"),
		doc("b", "Two", "a"),
	}
	byID := ByID(docs)
	got := Breadcrumb(byID["a"], byID)
	if got != "One / Two / One" && got != "Two / One" {
		t.Errorf("Breadcrumb under a cycle = %q", got)
	}
}

func TestDescendants(t *testing.T) {
	docs := []api.Record{
		doc("a", "A", ""),
		doc("a1", "A1", "a"),
		doc("a1x", "A1x", "a1"),
		doc("a2", "A2", "a"),
		doc("b", "B", ""),
	}
	children := ChildrenByParent(docs)

	got := Descendants("a", children)
	for _, want := range []string{"a", "a1", "a1x", "a2"} {
		if !got[want] {
			t.Errorf("Descendants(a) missing %s", want)
		}
	}
	if got["b"] {
		t.Error("Descendants(a) leaked into an unrelated root")
	}
	if len(got) != 4 {
		t.Errorf("Descendants(a) has %d ids, want 4", len(got))
	}

	leaf := Descendants("b", children)
	if len(leaf) != 1 || !leaf["b"] {
		t.Errorf("Descendants(b) = %v, want just b", leaf)
	}
}

func TestRender(t *testing.T) {
	docs := []api.Record{
		doc("a", "Alpha", ""),
		doc("a1", "First", "a"),
		doc("a2", "Second", "a"),
		doc("a1x", "Deep", "a1"),
		doc("b", "Beta", ""),
	}
	roots := Roots(docs)
	children := ChildrenByParent(docs)

	var sb strings.Builder
	Render(&sb, roots, children, RenderOptions{})
	want := strings.Join([]string{
		"Alpha",
		"├─ First",
		"│  └─ Deep",
		"└─ Second",
		"",
		"Beta",
		"",
	}, "\n")
	if sb.String() != want {
		t.Errorf("Render output:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestRenderMaxDepthAndIDs(t *testing.T) {
	docs := []api.Record{
		doc("a", "Alpha", ""),
		doc("a1", "First", "a"),
		doc("a1x", "Deep", "a1"),
	}
	roots := Roots(docs)
	children := ChildrenByParent(docs)

	var sb strings.Builder
	Render(&sb, roots, children, RenderOptions{MaxDepth: 2, ShowIDs: true})
	out := sb.String()
	if !strings.Contains(out, "Alpha  [a]") || !strings.Contains(out, "└─ First  [a1]") {
		t.Errorf("Render output:\n%s", out)
	}
	if strings.Contains(out, "Deep") {
		t.Errorf("MaxDepth 2 leaked a depth-3 node:\n%s", out)
	}
}

func TestNodes(t *testing.T) {
	docs := []api.Record{
		doc("a", "Alpha", ""),
		doc("a1", "First", "a"),
		doc("a1x", "Deep", "a1"),
	}
	roots := Roots(docs)
	children := ChildrenByParent(docs)

	nodes := Nodes(roots, children, 0)
	if len(nodes) != 1 || nodes[0].ID != "a" {
		t.Fatalf("nodes = %v", nodes)
	}
	if len(nodes[0].Children) != 1 || nodes[0].Children[0].ID != "a1" {
		t.Fatalf("children = %v", nodes[0].Children)
	}
	if len(nodes[0].Children[0].Children) != 1 {
		t.Errorf("grandchildren missing")
	}

	truncated := Nodes(roots, children, 2)
	if len(truncated[0].Children[0].Children) != 0 {
		t.Errorf("maxDepth 2 kept depth-3 nodes")
	}
}
