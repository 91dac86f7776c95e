package menus

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-cms-nav/internal/requests"
)

var (
	ErrExtenderNameRequired = errors.New("menus: extender name is required")
	ErrExtenderRequired     = errors.New("menus: extender is required")
	ErrExtenderExists       = errors.New("menus: extender already registered")
)

// ExtendedNode is an entry supplied by a navigation extender. Entries are
// attached under the page that names the extender.
type ExtendedNode struct {
	ID       string
	Title    string
	URL      string
	Children []*ExtendedNode
}

// Extender produces navigation entries for a request.
type Extender interface {
	Nodes(ctx context.Context, req *requests.Request) ([]*ExtendedNode, error)
}

// ExtenderFunc adapts a function to Extender.
type ExtenderFunc func(ctx context.Context, req *requests.Request) ([]*ExtendedNode, error)

func (fn ExtenderFunc) Nodes(ctx context.Context, req *requests.Request) ([]*ExtendedNode, error) {
	return fn(ctx, req)
}

// Registry maps extender names to implementations.
type Registry struct {
	mu        sync.RWMutex
	extenders map[string]Extender
}

func NewRegistry() *Registry {
	return &Registry{extenders: map[string]Extender{}}
}

// Register adds an extender under name.
func (r *Registry) Register(name string, extender Extender) error {
	key := strings.TrimSpace(name)
	if key == "" {
		return ErrExtenderNameRequired
	}
	if extender == nil {
		return ErrExtenderRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.extenders[key]; exists {
		return ErrExtenderExists
	}
	r.extenders[key] = extender
	return nil
}

func (r *Registry) Lookup(name string) (Extender, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.extenders[strings.TrimSpace(name)]
	return ext, ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.extenders))
	for name := range r.extenders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// extension converts extender entries into nodes below parent.
type extension struct {
	path         string
	levels       int
	activeLevels int
	markSibling  bool
}

func (e extension) attach(parent *Node, entries []*ExtendedNode) []*Node {
	nodes := e.convert(parent, entries)
	e.markActive(nodes)
	e.prune(nodes, e.levels)
	return nodes
}

func (e extension) convert(parent *Node, entries []*ExtendedNode) []*Node {
	out := make([]*Node, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		node := &Node{
			ID:                 entry.ID,
			ParentID:           parent.ID,
			Title:              entry.Title,
			URL:                entry.URL,
			Level:              parent.Level + 1,
			MenuLevel:          parent.MenuLevel + 1,
			AncestorsAscending: ancestorsWith(parent),
			HomeID:             parent.HomeID,
			FromExtender:       true,
			Descendant:         parent.Selected || parent.Descendant,
		}
		if node.ID == "" {
			node.ID = entry.URL
		}
		if e.path != "" && entry.URL != "" && requests.SamePath(entry.URL, e.path) {
			node.Selected = true
		}
		node.Children = e.convert(node, entry.Children)
		if len(out) > 0 {
			out[len(out)-1].Last = false
		}
		node.Last = true
		out = append(out, node)
	}
	return out
}

func (e extension) markActive(nodes []*Node) {
	selected := FindSelected(nodes)
	if selected == nil {
		return
	}
	for _, anc := range selected.AncestorsAscending {
		anc.Ancestor = true
	}
	Walk(selected.Children, func(n *Node) {
		n.Descendant = true
	})
	if !e.markSibling {
		return
	}
	siblings := nodes
	if n := len(selected.AncestorsAscending); n > 0 && selected.AncestorsAscending[n-1].FromExtender {
		siblings = selected.AncestorsAscending[n-1].Children
	}
	for _, sib := range siblings {
		if sib != selected {
			sib.Sibling = true
		}
	}
}

// prune drops children past the level budget. The active path is always
// kept and the selected node gets the active budget.
func (e extension) prune(nodes []*Node, levels int) {
	for _, node := range nodes {
		budget := levels - 1
		if node.Selected {
			budget = e.activeLevels
		}
		if budget <= 0 && !node.Ancestor {
			node.Children = nil
			continue
		}
		e.prune(node.Children, budget)
	}
}
