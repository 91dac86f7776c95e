package sites_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-cms-nav/internal/sites"
)

func TestServiceCreateNormalisesDomain(t *testing.T) {
	svc := sites.NewService(sites.NewMemorySiteRepository())

	site, err := svc.Create(context.Background(), sites.CreateSiteRequest{Domain: " Example.COM "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if site.Domain != "example.com" || site.Name != "example.com" {
		t.Fatalf("unexpected site %+v", site)
	}

	if _, err := svc.Create(context.Background(), sites.CreateSiteRequest{Domain: "example.com"}); !errors.Is(err, sites.ErrDomainExists) {
		t.Fatalf("expected ErrDomainExists, got %v", err)
	}
	if _, err := svc.Create(context.Background(), sites.CreateSiteRequest{}); !errors.Is(err, sites.ErrDomainRequired) {
		t.Fatalf("expected ErrDomainRequired, got %v", err)
	}
}

func TestServiceResolve(t *testing.T) {
	ctx := context.Background()
	svc := sites.NewService(sites.NewMemorySiteRepository(), sites.WithDefaultDomain("example.com"))
	main, err := svc.Create(ctx, sites.CreateSiteRequest{Domain: "example.com", Name: "Main"})
	if err != nil {
		t.Fatalf("Create main: %v", err)
	}
	blog, err := svc.Create(ctx, sites.CreateSiteRequest{Domain: "blog.example.com", Name: "Blog"})
	if err != nil {
		t.Fatalf("Create blog: %v", err)
	}

	got, err := svc.Resolve(ctx, "blog.example.com:8080")
	if err != nil || got.ID != blog.ID {
		t.Fatalf("expected blog site, got %+v err=%v", got, err)
	}

	got, err = svc.Resolve(ctx, "unknown.test")
	if err != nil || got.ID != main.ID {
		t.Fatalf("expected default site fallback, got %+v err=%v", got, err)
	}
}

func TestServiceResolveWithoutDefault(t *testing.T) {
	ctx := context.Background()
	svc := sites.NewService(sites.NewMemorySiteRepository())
	only, err := svc.Create(ctx, sites.CreateSiteRequest{Domain: "example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := svc.Resolve(ctx, "")
	if err != nil || got.ID != only.ID {
		t.Fatalf("expected single site fallback, got %+v err=%v", got, err)
	}

	if _, err := svc.Create(ctx, sites.CreateSiteRequest{Domain: "other.org"}); err != nil {
		t.Fatalf("Create other: %v", err)
	}
	if _, err := svc.Resolve(ctx, "missing.test"); !errors.Is(err, sites.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}
}
