package menus

// WalkOptions carries the request state FindChildren needs.
type WalkOptions struct {
	// Ancestors are the ids of the pages on the active path.
	Ancestors []string
	// SelectedID is the id of the current page.
	SelectedID string
	// SoftRoots stops descent at soft-root pages that are off the active
	// path.
	SoftRoots bool
	// ToLevels is the deepest level that still receives extender entries.
	ToLevels int
	// Extend returns the extender entries for target, if any.
	Extend func(target *Node, levels int, markSibling bool) []*Node
}

// FindChildren attaches the children of target found in nodes, recursing
// while the level budget lasts. Below the selected page the budget becomes
// activeLevels; the active path is always expanded.
func FindChildren(target *Node, nodes []*Node, levels, activeLevels int, opts WalkOptions) {
	if target == nil {
		return
	}
	w := &walker{
		opts:         opts,
		activeLevels: activeLevels,
		ancestors:    make(map[string]bool, len(opts.Ancestors)),
		byParent:     make(map[string][]*Node),
	}
	for _, id := range opts.Ancestors {
		w.ancestors[id] = true
	}
	for _, node := range nodes {
		if node != nil && node.ParentID != "" {
			w.byParent[node.ParentID] = append(w.byParent[node.ParentID], node)
		}
	}
	w.find(target, levels)
}

type walker struct {
	opts         WalkOptions
	activeLevels int
	ancestors    map[string]bool
	byParent     map[string][]*Node
}

func (w *walker) find(target *Node, levels int) {
	onPath := w.ancestors[target.ID]
	if onPath {
		target.Ancestor = true
	}
	if target.ID == w.opts.SelectedID {
		levels = w.activeLevels
	}
	if (levels <= 0 || (target.SoftRoot && w.opts.SoftRoots)) && !onPath {
		return
	}

	markSibling := false
	for _, child := range w.byParent[target.ID] {
		if target.Selected || target.Descendant {
			child.Descendant = true
		}
		if n := len(target.Children); n > 0 {
			target.Children[n-1].Last = false
		}
		child.AncestorsAscending = ancestorsWith(target)
		child.HomeID = target.HomeID
		child.MenuLevel = target.MenuLevel + 1
		child.Last = true
		if child.ID == w.opts.SelectedID {
			child.Selected = true
			markSibling = true
		}
		target.Children = append(target.Children, child)
		w.find(child, levels-1)
	}
	if markSibling {
		for _, child := range target.Children {
			if !child.Selected {
				child.Sibling = true
			}
		}
	}

	if target.extenders == "" || w.opts.Extend == nil {
		return
	}
	if (levels > 0 || onPath) && target.Level < w.opts.ToLevels {
		extra := w.opts.Extend(target, levels, markSibling)
		if len(extra) == 0 {
			return
		}
		if n := len(target.Children); n > 0 {
			target.Children[n-1].Last = false
		}
		target.Children = append(target.Children, extra...)
	}
}
