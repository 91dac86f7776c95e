package menus

import (
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/pages"
)

// Node is a page (or an extender entry) positioned in a rendered menu.
type Node struct {
	ID        string
	PageID    uuid.UUID
	ParentID  string
	ReverseID string
	Title     string
	MenuTitle string
	URL       string

	Level     int
	MenuLevel int

	Children           []*Node
	AncestorsAscending []*Node

	Selected     bool
	Ancestor     bool
	Descendant   bool
	Sibling      bool
	SoftRoot     bool
	Last         bool
	FromExtender bool

	HomeID uuid.UUID

	Page      *pages.Page
	PageTitle *pages.Title

	extenders string
}

// IsHome reports whether the node is the home page of its site.
func (n *Node) IsHome() bool {
	return n != nil && n.PageID != uuid.Nil && n.PageID == n.HomeID
}

// DisplayTitle returns the menu title, falling back to the title.
func (n *Node) DisplayTitle() string {
	if n == nil {
		return ""
	}
	if n.MenuTitle != "" {
		return n.MenuTitle
	}
	return n.Title
}

// HasChildren is a template helper.
func (n *Node) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

func newPageNode(page *pages.Page) *Node {
	node := &Node{
		ID:        page.ID.String(),
		PageID:    page.ID,
		ReverseID: page.ReverseID,
		Level:     page.Level,
		SoftRoot:  page.SoftRoot,
		Page:      page,
		extenders: page.NavigationExtenders,
	}
	if page.ParentID != nil {
		node.ParentID = page.ParentID.String()
	}
	return node
}

func newPageNodes(records []*pages.Page) []*Node {
	out := make([]*Node, 0, len(records))
	for _, page := range records {
		if page != nil {
			out = append(out, newPageNode(page))
		}
	}
	return out
}

// CutLevels returns the nodes found at level, descending through children
// of shallower nodes.
func CutLevels(nodes []*Node, level int) []*Node {
	var out []*Node
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if node.Level == level {
			out = append(out, node)
			continue
		}
		if node.Level < level && len(node.Children) > 0 {
			out = append(out, CutLevels(node.Children, level)...)
		}
	}
	return out
}

// FindSelected returns the first selected node in depth-first order.
func FindSelected(nodes []*Node) *Node {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if node.Selected {
			return node
		}
		if found := FindSelected(node.Children); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits nodes depth first.
func Walk(nodes []*Node, fn func(*Node)) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		fn(node)
		Walk(node.Children, fn)
	}
}

func ancestorsWith(parent *Node) []*Node {
	out := make([]*Node, 0, len(parent.AncestorsAscending)+1)
	out = append(out, parent.AncestorsAscending...)
	return append(out, parent)
}
