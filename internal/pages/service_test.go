package pages_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/pages"
)

var testSiteID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")

func newTestService(t *testing.T, opts ...pages.ServiceOption) pages.Service {
	t.Helper()
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]pages.ServiceOption{pages.WithClock(func() time.Time { return fixed })}, opts...)
	return pages.NewService(pages.NewMemoryPageRepository(), opts...)
}

func mustCreate(t *testing.T, svc pages.Service, req pages.CreatePageRequest) *pages.Page {
	t.Helper()
	if req.SiteID == uuid.Nil {
		req.SiteID = testSiteID
	}
	page, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create %+v: %v", req.Titles, err)
	}
	return page
}

func titled(title, slug string) []pages.TitleInput {
	return []pages.TitleInput{{Language: "en", Title: title, Slug: slug}}
}

func TestServiceCreateBuildsTreeAndPaths(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	home := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Home", "home"), Published: true, InNavigation: true})
	about := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: titled("About", "about"), Published: true, InNavigation: true})
	team := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &about.ID, Titles: titled("Team", "team"), Published: true, InNavigation: true, ReverseID: "team"})

	reloaded, err := svc.Get(ctx, home.ID)
	if err != nil {
		t.Fatalf("Get home: %v", err)
	}
	if reloaded.Lft != 1 || reloaded.Rght != 6 || reloaded.Level != 0 {
		t.Fatalf("unexpected home tree fields %+v", reloaded)
	}
	if team.Level != 2 || team.Titles[0].Path != "about/team" {
		t.Fatalf("unexpected team %+v path=%q", team, team.Titles[0].Path)
	}

	found, err := svc.GetByReverseID(ctx, testSiteID, "team", pages.Scope{})
	if err != nil || found.ID != team.ID {
		t.Fatalf("expected reverse id lookup to find team, got %+v err=%v", found, err)
	}

	ancestors, err := svc.Ancestors(ctx, team)
	if err != nil {
		t.Fatalf("Ancestors: %v", err)
	}
	if len(ancestors) != 2 || ancestors[0].ID != home.ID || ancestors[1].ID != about.ID {
		t.Fatalf("unexpected ancestors %+v", ancestors)
	}

	url, err := svc.AbsoluteURL(ctx, team, "en", false)
	if err != nil || url != "/about/team/" {
		t.Fatalf("expected /about/team/, got %q err=%v", url, err)
	}
	url, err = svc.AbsoluteURL(ctx, home, "en", false)
	if err != nil || url != "/" {
		t.Fatalf("expected home url /, got %q err=%v", url, err)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Create(ctx, pages.CreatePageRequest{Titles: titled("Home", "home")}); !errors.Is(err, pages.ErrSiteRequired) {
		t.Fatalf("expected ErrSiteRequired, got %v", err)
	}
	if _, err := svc.Create(ctx, pages.CreatePageRequest{SiteID: testSiteID}); !errors.Is(err, pages.ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}

	dup := []pages.TitleInput{
		{Language: "en", Title: "Home", Slug: "home"},
		{Language: "EN", Title: "Home", Slug: "home"},
	}
	if _, err := svc.Create(ctx, pages.CreatePageRequest{SiteID: testSiteID, Titles: dup}); !errors.Is(err, pages.ErrDuplicateLanguage) {
		t.Fatalf("expected ErrDuplicateLanguage, got %v", err)
	}

	missing := uuid.New()
	if _, err := svc.Create(ctx, pages.CreatePageRequest{SiteID: testSiteID, ParentID: &missing, Titles: titled("Orphan", "orphan")}); !errors.Is(err, pages.ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}

	mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Home", "home"), ReverseID: "home"})
	if _, err := svc.Create(ctx, pages.CreatePageRequest{SiteID: testSiteID, Titles: titled("Other", "other"), ReverseID: "home"}); !errors.Is(err, pages.ErrReverseIDExists) {
		t.Fatalf("expected ErrReverseIDExists, got %v", err)
	}

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	if _, err := svc.Create(ctx, pages.CreatePageRequest{SiteID: testSiteID, Titles: titled("Later", "later"), PublishAt: &start, UnpublishAt: &end}); !errors.Is(err, pages.ErrScheduleWindowInvalid) {
		t.Fatalf("expected ErrScheduleWindowInvalid, got %v", err)
	}
}

func TestServiceMoveReordersSiblings(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	home := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Home", "home"), Published: true})
	first := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: titled("First", "first")})
	second := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: titled("Second", "second")})
	child := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &first.ID, Titles: titled("Child", "child")})

	if _, err := svc.Move(ctx, pages.MovePageRequest{ID: second.ID, ParentID: &home.ID, Position: 0}); err != nil {
		t.Fatalf("Move second: %v", err)
	}
	list, err := svc.List(ctx, pages.Query{SiteID: testSiteID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	order := make([]uuid.UUID, 0, len(list))
	for _, page := range list {
		order = append(order, page.ID)
	}
	want := []uuid.UUID{home.ID, second.ID, first.ID, child.ID}
	for idx := range want {
		if order[idx] != want[idx] {
			t.Fatalf("unexpected order at %d: %v", idx, order)
		}
	}

	moved, err := svc.Move(ctx, pages.MovePageRequest{ID: child.ID, ParentID: &second.ID})
	if err != nil {
		t.Fatalf("Move child: %v", err)
	}
	if moved.Titles[0].Path != "second/child" {
		t.Fatalf("expected path to follow the new parent, got %q", moved.Titles[0].Path)
	}

	if _, err := svc.Move(ctx, pages.MovePageRequest{ID: home.ID, ParentID: &second.ID}); !errors.Is(err, pages.ErrPageParentCycle) {
		t.Fatalf("expected ErrPageParentCycle, got %v", err)
	}
}

func TestServiceDeleteRemovesDescendants(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	home := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Home", "home"), Published: true})
	about := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: titled("About", "about")})
	mustCreate(t, svc, pages.CreatePageRequest{ParentID: &about.ID, Titles: titled("Team", "team")})
	contact := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: titled("Contact", "contact")})

	if err := svc.Delete(ctx, about.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err := svc.List(ctx, pages.Query{SiteID: testSiteID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 remaining pages, got %d", len(list))
	}
	reloaded, err := svc.Get(ctx, contact.ID)
	if err != nil {
		t.Fatalf("Get contact: %v", err)
	}
	if reloaded.Position != 0 || reloaded.Lft != 2 {
		t.Fatalf("expected contact to be renumbered, got %+v", reloaded)
	}
	if err := svc.Delete(ctx, about.ID); !errors.Is(err, pages.ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestServiceScopeHidesUnpublished(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	home := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Home", "home"), Published: true})
	later := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: titled("Draft", "draft"), ReverseID: "draft"})
	mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: titled("Scheduled", "scheduled"), ReverseID: "scheduled", Published: true, PublishAt: &later})

	if _, err := svc.GetByReverseID(ctx, testSiteID, "draft", pages.Scope{}); !errors.Is(err, pages.ErrPageNotFound) {
		t.Fatalf("expected draft to be hidden, got %v", err)
	}
	if _, err := svc.GetByReverseID(ctx, testSiteID, "draft", pages.Scope{Draft: true}); err != nil {
		t.Fatalf("expected draft scope to see draft page: %v", err)
	}
	if _, err := svc.GetByReverseID(ctx, testSiteID, "scheduled", pages.Scope{}); !errors.Is(err, pages.ErrPageNotFound) {
		t.Fatalf("expected scheduled page to be hidden, got %v", err)
	}

	visible, err := svc.List(ctx, pages.Query{SiteID: testSiteID, PublishedOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != home.ID {
		t.Fatalf("expected only home to be visible, got %d pages", len(visible))
	}

	got, err := svc.Home(ctx, testSiteID, pages.Scope{})
	if err != nil || got.ID != home.ID {
		t.Fatalf("expected home, got %+v err=%v", got, err)
	}
	if _, err := svc.Home(ctx, uuid.New(), pages.Scope{}); !errors.Is(err, pages.ErrNoHomeFound) {
		t.Fatalf("expected ErrNoHomeFound, got %v", err)
	}
}

func TestServiceAbsoluteURLLanguageFallback(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, pages.WithFallbackLanguages("en", "de"))

	home := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Home", "home"), Published: true})
	about := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: []pages.TitleInput{
		{Language: "en", Title: "About", Slug: "about"},
		{Language: "de", Title: "Uber", Slug: "ueber"},
	}})

	url, err := svc.AbsoluteURL(ctx, about, "de", false)
	if err != nil || url != "/ueber/" {
		t.Fatalf("expected german url, got %q err=%v", url, err)
	}
	if _, err := svc.AbsoluteURL(ctx, about, "fr", false); !errors.Is(err, pages.ErrPageTranslationNotFound) {
		t.Fatalf("expected ErrPageTranslationNotFound, got %v", err)
	}
	url, err = svc.AbsoluteURL(ctx, about, "fr", true)
	if err != nil || url != "/about/" {
		t.Fatalf("expected fallback to english, got %q err=%v", url, err)
	}
}

func TestServiceSetTitlesRefreshesDescendantPaths(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	home := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Home", "home"), Published: true})
	about := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &home.ID, Titles: titled("About", "about")})
	team := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &about.ID, Titles: titled("Team", "team")})

	if _, err := svc.SetTitles(ctx, about.ID, titled("Company", "company")); err != nil {
		t.Fatalf("SetTitles: %v", err)
	}
	reloaded, err := svc.Get(ctx, team.ID)
	if err != nil {
		t.Fatalf("Get team: %v", err)
	}
	if reloaded.Titles[0].Path != "company/team" {
		t.Fatalf("expected refreshed path, got %q", reloaded.Titles[0].Path)
	}
}

func TestServiceUpdateFlags(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	home := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Home", "home"), Published: true})
	softRoot := true
	extenders := " blog "
	updated, err := svc.Update(ctx, pages.UpdatePageRequest{ID: home.ID, SoftRoot: &softRoot, NavigationExtenders: &extenders})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.SoftRoot || updated.NavigationExtenders != "blog" {
		t.Fatalf("unexpected flags %+v", updated)
	}
	if len(updated.Titles) != 1 {
		t.Fatalf("expected titles to survive update, got %d", len(updated.Titles))
	}
}

func TestServiceHomeSkipsUnpublishedRoots(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Draft", "draft"), ReverseID: "draft"})
	welcome := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Welcome", "welcome"), ReverseID: "welcome", Published: true})
	child := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &welcome.ID, Titles: titled("Child", "child"), Published: true})

	for _, scope := range []pages.Scope{{}, {Draft: true}} {
		home, err := svc.Home(ctx, testSiteID, scope)
		if err != nil || home.ID != welcome.ID {
			t.Fatalf("scope %+v: expected welcome as home, got %+v err=%v", scope, home, err)
		}
	}

	reloaded, err := svc.Get(ctx, child.ID)
	if err != nil {
		t.Fatalf("Get child: %v", err)
	}
	if reloaded.Titles[0].Path != "child" {
		t.Fatalf("expected home slug to stay out of the path, got %q", reloaded.Titles[0].Path)
	}

	cases := map[uuid.UUID]string{welcome.ID: "/", child.ID: "/child/"}
	for id, want := range cases {
		page, err := svc.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		url, err := svc.AbsoluteURL(ctx, page, "en", false)
		if err != nil || url != want {
			t.Fatalf("AbsoluteURL: expected %s, got %q err=%v", want, url, err)
		}
		if got := svc.PageURL(ctx, page, page.Titles[0], welcome.ID, "en"); got != want {
			t.Fatalf("PageURL: expected %s, got %q", want, got)
		}
	}
}

func TestServiceUpdatePublicationMovesHome(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("First", "first"), Published: true})
	second := mustCreate(t, svc, pages.CreatePageRequest{Titles: titled("Second", "second"), Published: true})
	child := mustCreate(t, svc, pages.CreatePageRequest{ParentID: &second.ID, Titles: titled("Child", "child"), Published: true})

	if child.Titles[0].Path != "second/child" {
		t.Fatalf("expected child under a non-home root to carry its slug, got %q", child.Titles[0].Path)
	}

	later := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Update(ctx, pages.UpdatePageRequest{ID: first.ID, PublishAt: &later}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	reloaded, err := svc.Get(ctx, child.ID)
	if err != nil {
		t.Fatalf("Get child: %v", err)
	}
	if reloaded.Titles[0].Path != "child" {
		t.Fatalf("expected scheduled first root to hand home to second, got %q", reloaded.Titles[0].Path)
	}
	url, err := svc.AbsoluteURL(ctx, reloaded, "en", false)
	if err != nil || url != "/child/" {
		t.Fatalf("expected /child/, got %q err=%v", url, err)
	}

	published := false
	if _, err := svc.Update(ctx, pages.UpdatePageRequest{ID: second.ID, Published: &published}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	reloaded, err = svc.Get(ctx, child.ID)
	if err != nil {
		t.Fatalf("Get child: %v", err)
	}
	if reloaded.Titles[0].Path != "second/child" {
		t.Fatalf("expected path to regain the slug once second stops being home, got %q", reloaded.Titles[0].Path)
	}
}
