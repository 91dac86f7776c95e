package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/pages"
)

// LoadFixture reads a testdata file, failing the test when it is missing.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("testsupport: read fixture %s: %v", path, err)
	}
	return data
}

// LoadGolden decodes a JSON golden file into v.
func LoadGolden(t testing.TB, path string, v any) {
	t.Helper()
	if err := json.Unmarshal(LoadFixture(t, path), v); err != nil {
		t.Fatalf("testsupport: decode golden %s: %v", path, err)
	}
}

// SiteID is the site every seeded tree belongs to.
var SiteID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")

// Tree is the seeded navigation site keyed by slug:
//
//	home
//	├── about (reverse id "about")
//	│   ├── team
//	│   │   └── people
//	│   └── history
//	├── news (navigation extender "news")
//	├── shop (soft root)
//	│   ├── books
//	│   └── music
//	└── hidden (not in navigation)
//	legal (second root)
//
// about also carries a German title.
type Tree struct {
	svc   pages.Service
	pages map[string]*pages.Page
}

type seedPage struct {
	slug      string
	title     string
	parent    string
	reverseID string
	softRoot  bool
	hidden    bool
	extenders string
	german    string
}

var seedPages = []seedPage{
	{slug: "home", title: "Home", reverseID: "home"},
	{slug: "about", title: "About", parent: "home", reverseID: "about", german: "Uber uns"},
	{slug: "team", title: "Team", parent: "about"},
	{slug: "people", title: "People", parent: "team"},
	{slug: "history", title: "History", parent: "about"},
	{slug: "news", title: "News", parent: "home", reverseID: "news", extenders: "news"},
	{slug: "shop", title: "Shop", parent: "home", softRoot: true},
	{slug: "books", title: "Books", parent: "shop"},
	{slug: "music", title: "Music", parent: "shop"},
	{slug: "hidden", title: "Hidden", parent: "home", hidden: true},
	{slug: "legal", title: "Legal", reverseID: "legal"},
}

// SeedTree creates the navigation fixture in svc.
func SeedTree(ctx context.Context, svc pages.Service) (*Tree, error) {
	tree := &Tree{svc: svc, pages: map[string]*pages.Page{}}
	for _, seed := range seedPages {
		req := pages.CreatePageRequest{
			SiteID:              SiteID,
			ReverseID:           seed.reverseID,
			SoftRoot:            seed.softRoot,
			InNavigation:        !seed.hidden,
			NavigationExtenders: seed.extenders,
			Published:           true,
			Titles:              []pages.TitleInput{{Language: "en", Title: seed.title, Slug: seed.slug}},
		}
		if seed.german != "" {
			req.Titles = append(req.Titles, pages.TitleInput{Language: "de", Title: seed.german, Slug: seed.slug + "-de"})
		}
		if seed.parent != "" {
			parent, ok := tree.pages[seed.parent]
			if !ok {
				return nil, fmt.Errorf("testsupport: unknown parent %q", seed.parent)
			}
			req.ParentID = &parent.ID
		}
		page, err := svc.Create(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("testsupport: create %s: %w", seed.slug, err)
		}
		tree.pages[seed.slug] = page
	}
	return tree, nil
}

// Page returns the current state of the page seeded under slug. Tree
// fields change as pages are added, so callers reload before use.
func (t *Tree) Page(ctx context.Context, slug string) (*pages.Page, error) {
	seeded, ok := t.pages[slug]
	if !ok {
		return nil, fmt.Errorf("testsupport: unknown page %q", slug)
	}
	return t.svc.Get(ctx, seeded.ID)
}

// ID returns the id of the page seeded under slug.
func (t *Tree) ID(slug string) uuid.UUID {
	if page, ok := t.pages[slug]; ok {
		return page.ID
	}
	return uuid.Nil
}
