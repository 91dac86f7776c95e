package pages_test

import (
	"context"
	"testing"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-cms-nav/internal/pages"
)

func newRouteManager() *urlkit.RouteManager {
	return urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    "frontend",
				BaseURL: "https://example.com",
				Paths: map[string]string{
					"page": "/pages/:path",
					"home": "/",
				},
				Groups: []urlkit.GroupConfig{
					{
						Name: "es",
						Path: "/es",
						Paths: map[string]string{
							"page": "/paginas/:path",
							"home": "/",
						},
					},
				},
			},
		},
	})
}

func TestURLKitResolverBuildsLocalizedURLs(t *testing.T) {
	resolver := pages.NewURLKitResolver(pages.URLKitResolverOptions{
		Manager:      newRouteManager(),
		DefaultGroup: "frontend",
		LocaleGroups: map[string]string{"ES": "frontend.es"},
		DefaultRoute: "page",
	})

	page := &pages.Page{}
	title := &pages.Title{Language: "en", Slug: "company", Path: "company"}

	url, err := resolver.Resolve(context.Background(), pages.ResolveRequest{Page: page, Title: title, Language: "en"})
	if err != nil {
		t.Fatalf("Resolve en: %v", err)
	}
	if url != "https://example.com/pages/company" {
		t.Fatalf("unexpected url %q", url)
	}

	url, err = resolver.Resolve(context.Background(), pages.ResolveRequest{Page: page, Title: title, Language: "es"})
	if err != nil {
		t.Fatalf("Resolve es: %v", err)
	}
	if url != "https://example.com/es/paginas/company" {
		t.Fatalf("unexpected localized url %q", url)
	}
}

func TestURLKitResolverReportsUnknownGroup(t *testing.T) {
	resolver := pages.NewURLKitResolver(pages.URLKitResolverOptions{
		Manager:      newRouteManager(),
		DefaultGroup: "missing",
		DefaultRoute: "page",
	})
	_, err := resolver.Resolve(context.Background(), pages.ResolveRequest{Page: &pages.Page{}, Title: &pages.Title{Slug: "x"}})
	if err == nil {
		t.Fatal("expected unknown group to produce an error")
	}
}

func TestServicePageURLFallsBackWithoutResolverMatch(t *testing.T) {
	resolver := pages.NewURLKitResolver(pages.URLKitResolverOptions{
		Manager:      newRouteManager(),
		DefaultGroup: "frontend",
	})
	svc := pages.NewService(pages.NewMemoryPageRepository(), pages.WithURLResolver(resolver))

	page := &pages.Page{}
	title := &pages.Title{Language: "en", Slug: "company", Path: "company"}
	if got := svc.PageURL(context.Background(), page, title, testSiteID, "en"); got != "/company/" {
		t.Fatalf("expected title path fallback, got %q", got)
	}
}
