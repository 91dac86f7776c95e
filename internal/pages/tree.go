package pages

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssignTree recomputes TreeID, Lft, Rght, Level and Position for the pages
// of one site. Roots become trees 1..n in position order and siblings are
// renumbered from zero. Pages that cannot be reached from a root mean the
// parent links contain a cycle.
func AssignTree(records []*Page) error {
	byID := make(map[uuid.UUID]*Page, len(records))
	for _, page := range records {
		if page != nil {
			byID[page.ID] = page
		}
	}

	children := make(map[uuid.UUID][]*Page, len(records))
	var roots []*Page
	for _, page := range records {
		if page == nil {
			continue
		}
		if page.ParentID == nil {
			roots = append(roots, page)
			continue
		}
		if _, ok := byID[*page.ParentID]; !ok {
			return ErrParentNotFound
		}
		children[*page.ParentID] = append(children[*page.ParentID], page)
	}

	sortSiblings(roots)
	for _, siblings := range children {
		sortSiblings(siblings)
	}

	visited := 0
	var walk func(page *Page, treeID, level, counter int) int
	walk = func(page *Page, treeID, level, counter int) int {
		visited++
		page.TreeID = treeID
		page.Level = level
		page.Lft = counter
		counter++
		for idx, child := range children[page.ID] {
			child.Position = idx
			counter = walk(child, treeID, level+1, counter)
		}
		page.Rght = counter
		return counter + 1
	}

	for idx, root := range roots {
		root.Position = idx
		walk(root, idx+1, 0, 1)
	}

	if visited != len(byID) {
		return ErrPageParentCycle
	}
	return nil
}

func sortSiblings(siblings []*Page) {
	sort.SliceStable(siblings, func(i, j int) bool {
		a, b := siblings[i], siblings[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// SortTreeOrder orders pages by tree then lft.
func SortTreeOrder(records []*Page) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].TreeID != records[j].TreeID {
			return records[i].TreeID < records[j].TreeID
		}
		return records[i].Lft < records[j].Lft
	})
}

// HomeOf returns the first root page in tree order that is live at now,
// or nil. Unpublished and scheduled roots never become home.
func HomeOf(records []*Page, now time.Time) *Page {
	var home *Page
	for _, page := range records {
		if page == nil || page.ParentID != nil || !page.IsPublishedAt(now) {
			continue
		}
		if home == nil || page.TreeID < home.TreeID {
			home = page
		}
	}
	return home
}

// AssignPaths rebuilds title paths from ancestor slugs. The home page has an
// empty path and its slug never prefixes descendants. Titles flagged with
// HasURLOverwrite keep their path. records must already carry tree fields.
func AssignPaths(records []*Page, homeID uuid.UUID) {
	ordered := make([]*Page, 0, len(records))
	byID := make(map[uuid.UUID]*Page, len(records))
	for _, page := range records {
		if page != nil {
			ordered = append(ordered, page)
			byID[page.ID] = page
		}
	}
	SortTreeOrder(ordered)

	for _, page := range ordered {
		var parent *Page
		if page.ParentID != nil {
			parent = byID[*page.ParentID]
		}
		for _, title := range page.Titles {
			if title == nil || title.HasURLOverwrite {
				continue
			}
			switch {
			case page.ID == homeID:
				title.Path = ""
			case parent == nil || parent.ID == homeID:
				title.Path = title.Slug
			default:
				prefix := ""
				if parentTitle := parent.TitleFor(title.Language, title.Language); parentTitle != nil {
					prefix = parentTitle.Path
				}
				title.Path = joinPath(prefix, title.Slug)
			}
		}
	}
}

func joinPath(prefix, slug string) string {
	prefix = strings.Trim(prefix, "/")
	slug = strings.Trim(slug, "/")
	if prefix == "" {
		return slug
	}
	return prefix + "/" + slug
}

// URLPath builds the site-relative URL of a page title. The home page
// resolves to "/".
func URLPath(page *Page, title *Title, homeID uuid.UUID) string {
	if page != nil && page.ID == homeID {
		return "/"
	}
	if title == nil {
		return ""
	}
	path := strings.Trim(title.Path, "/")
	if path == "" {
		path = strings.Trim(title.Slug, "/")
	}
	if path == "" {
		return "/"
	}
	return "/" + path + "/"
}
