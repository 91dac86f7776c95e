package http

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/goliatone/go-cms-nav/internal/pages"
)

func TestPageResolverMatchesPaths(t *testing.T) {
	site := newTestSite(t)
	resolver := site.resolver()
	ctx := context.Background()

	cases := []struct {
		name     string
		in       Incoming
		page     string
		language string
	}{
		{name: "home", in: Incoming{Host: "cms.test", Path: "/"}, page: "home", language: "en"},
		{name: "nested", in: Incoming{Host: "cms.test", Path: "/about/team/"}, page: "team", language: "en"},
		{name: "prefixed", in: Incoming{Host: "cms.test", Path: "/de/uber-uns/"}, page: "about", language: "de"},
		{name: "fallback title", in: Incoming{Host: "cms.test", Path: "/de/about/team"}, page: "team", language: "de"},
		{name: "language home", in: Incoming{Host: "cms.test:8080", Path: "/de/"}, page: "home", language: "de"},
		{name: "accept language", in: Incoming{Host: "cms.test", Path: "/about/", AcceptLanguage: "de-DE,de;q=0.9"}, page: "about", language: "de"},
		{name: "query language", in: Incoming{Host: "cms.test", Path: "/about/", Query: url.Values{"language": {"de"}}}, page: "about", language: "de"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := resolver.Resolve(ctx, tc.in)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if req.CurrentPage == nil || req.CurrentPage.ID != site.seeded.Pages[tc.page].ID {
				t.Fatalf("expected %s, got %+v", tc.page, req.CurrentPage)
			}
			if req.Language != tc.language {
				t.Fatalf("expected language %s, got %s", tc.language, req.Language)
			}
			if req.Site == nil || req.Site.Domain != "cms.test" {
				t.Fatalf("unexpected site %+v", req.Site)
			}
		})
	}
}

func TestPageResolverHidesDrafts(t *testing.T) {
	site := newTestSite(t)
	resolver := site.resolver()
	ctx := context.Background()

	req, err := resolver.Resolve(ctx, Incoming{Host: "cms.test", Path: "/soon/"})
	if !errors.Is(err, pages.ErrPageNotFound) || !IsNotFound(err) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
	if req == nil || req.CurrentPage != nil || req.Path != "/soon/" {
		t.Fatalf("expected request without page, got %+v", req)
	}

	req, err = resolver.Resolve(ctx, Incoming{Host: "cms.test", Path: "/soon/", Draft: true})
	if err != nil {
		t.Fatalf("Resolve draft: %v", err)
	}
	if req.CurrentPage.ID != site.seeded.Pages["soon"].ID {
		t.Fatal("expected draft page in preview")
	}
}

const draftRootManifest = `
site:
  domain: cms.test
pages:
  - key: draft
    reverse_id: draft
    draft: true
    titles: [{language: en, title: Draft}]
  - key: welcome
    reverse_id: welcome
    titles: [{language: en, title: Welcome}]
  - key: child
    parent: welcome
    reverse_id: child
    titles: [{language: en, title: Child}]
`

func TestPageResolverAgreesWithURLsWhenFirstRootIsDraft(t *testing.T) {
	site := newTestSiteFrom(t, draftRootManifest)
	resolver := site.resolver()
	ctx := context.Background()
	welcome := site.seeded.Pages["welcome"]
	child := site.seeded.Pages["child"]

	for _, draft := range []bool{false, true} {
		req, err := resolver.Resolve(ctx, Incoming{Host: "cms.test", Path: "/", Draft: draft})
		if err != nil || req.CurrentPage.ID != welcome.ID {
			t.Fatalf("draft=%v: expected welcome at /, got %+v err=%v", draft, req, err)
		}
	}

	req, err := resolver.Resolve(ctx, Incoming{Host: "cms.test", Path: "/child/"})
	if err != nil || req.CurrentPage.ID != child.ID {
		t.Fatalf("expected child at /child/, got err=%v", err)
	}
	if _, err := resolver.Resolve(ctx, Incoming{Host: "cms.test", Path: "/welcome/child/"}); !errors.Is(err, pages.ErrPageNotFound) {
		t.Fatalf("expected home slug paths to miss, got %v", err)
	}

	svc := site.container.PageService()
	library := site.container.TagLibrary()
	cases := map[string]string{"welcome": "/", "child": "/child/"}
	for key, want := range cases {
		page, err := svc.Get(ctx, site.seeded.Pages[key].ID)
		if err != nil {
			t.Fatalf("Get %s: %v", key, err)
		}
		url, err := svc.AbsoluteURL(ctx, page, "en", false)
		if err != nil || url != want {
			t.Fatalf("AbsoluteURL(%s): expected %s, got %q err=%v", key, want, url, err)
		}
		out, err := library.PageIDURL(ctx, req, key, "en")
		if err != nil || out["content"] != want {
			t.Fatalf("PageIDURL(%s): expected %s, got %v err=%v", key, want, out, err)
		}
	}
}
