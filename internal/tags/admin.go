package tags

import (
	"context"
	"sort"

	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/permissions"
	"github.com/goliatone/go-cms-nav/internal/requests"
)

// HasPermission reports whether the request user may change page.
func (l *Library) HasPermission(ctx context.Context, page *pages.Page, req *requests.Request) bool {
	return CanChangePage(ctx, page, req)
}

// CanChangePage backs the has_permission filter.
func CanChangePage(ctx context.Context, page *pages.Page, req *requests.Request) bool {
	if page == nil || req == nil {
		return false
	}
	return permissions.Granted(req.Context(ctx), permissions.PagesUpdate)
}

// FilterChoice is one option of an admin list filter.
type FilterChoice struct {
	QueryString string
	Display     string
	Selected    bool
}

// CleanAdminListFilter orders filter choices by query string and drops
// repeated ones, so a user filter lists each editor once.
func CleanAdminListFilter(title string, choices []FilterChoice) Context {
	sorted := append([]FilterChoice(nil), choices...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].QueryString < sorted[j].QueryString
	})
	unique := make([]FilterChoice, 0, len(sorted))
	for i, choice := range sorted {
		if i > 0 && choice.QueryString == sorted[i-1].QueryString {
			continue
		}
		unique = append(unique, choice)
	}
	return Context{
		"title":   title,
		"choices": unique,
	}
}
