package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-cms-nav/internal/di"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/permissions"
)

func setupAdminAPI(t *testing.T) (*http.ServeMux, testSite) {
	t.Helper()
	site := newTestSite(t)
	result, err := site.container.RegisterCommands(di.RegistrationOptions{})
	if err != nil {
		t.Fatalf("RegisterCommands: %v", err)
	}
	api := NewAdminAPI(
		WithPageService(site.container.PageService()),
		WithMovePage(result.Handlers.MovePage),
		WithRebuildTree(result.Handlers.RebuildTree),
		WithInvalidateCache(result.Handlers.InvalidateCache),
	)
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		t.Fatalf("register api: %v", err)
	}
	return mux, site
}

func doJSONRequest(t *testing.T, mux *http.ServeMux, ctx context.Context, method, path string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestAdminAPIPageLifecycle(t *testing.T) {
	mux, site := setupAdminAPI(t)
	ctx := context.Background()
	siteID := site.seeded.Site.ID.String()

	listResp := doJSONRequest(t, mux, ctx, http.MethodGet, "/admin/api/pages?site_id="+siteID, nil, http.StatusOK)
	var list []*pages.Page
	decodeJSONBody(t, listResp, &list)
	if len(list) != 4 {
		t.Fatalf("expected 4 pages got %d", len(list))
	}

	team := site.seeded.Pages["team"]
	getResp := doJSONRequest(t, mux, ctx, http.MethodGet, "/admin/api/pages/"+team.ID.String(), nil, http.StatusOK)
	var fetched pages.Page
	decodeJSONBody(t, getResp, &fetched)
	if fetched.ID != team.ID {
		t.Fatalf("expected fetched id %s got %s", team.ID, fetched.ID)
	}

	moveResp := doJSONRequest(t, mux, ctx, http.MethodPost, "/admin/api/pages/"+team.ID.String()+"/move",
		map[string]any{"position": 1}, http.StatusOK)
	var moved pages.Page
	decodeJSONBody(t, moveResp, &moved)
	if moved.ParentID != nil {
		t.Fatalf("expected team to become a root, got parent %v", moved.ParentID)
	}

	doJSONRequest(t, mux, ctx, http.MethodPost, "/admin/api/sites/"+siteID+"/tree/rebuild", nil, http.StatusNoContent)
	doJSONRequest(t, mux, ctx, http.MethodPost, "/admin/api/cache/invalidate", nil, http.StatusNoContent)
	doJSONRequest(t, mux, ctx, http.MethodPost, "/admin/api/cache/invalidate",
		map[string]any{"reverse_ids": []string{"about"}}, http.StatusNoContent)
}

func TestAdminAPIErrors(t *testing.T) {
	mux, site := setupAdminAPI(t)
	ctx := context.Background()
	about := site.seeded.Pages["about"].ID.String()

	doJSONRequest(t, mux, ctx, http.MethodGet, "/admin/api/pages?site_id=nope", nil, http.StatusBadRequest)
	doJSONRequest(t, mux, ctx, http.MethodGet, "/admin/api/pages/"+site.seeded.Site.ID.String(), nil, http.StatusNotFound)
	doJSONRequest(t, mux, ctx, http.MethodPost, "/admin/api/pages/"+about+"/move",
		map[string]any{"parent_id": about}, http.StatusBadRequest)
	doJSONRequest(t, mux, ctx, http.MethodPost, "/admin/api/pages/"+about+"/move",
		map[string]any{"parent_id": site.seeded.Pages["team"].ID}, http.StatusConflict)

	readOnly := permissions.WithPermissions(ctx, permissions.PagesRead)
	doJSONRequest(t, mux, readOnly, http.MethodGet, "/admin/api/pages/"+about, nil, http.StatusOK)
	doJSONRequest(t, mux, readOnly, http.MethodPost, "/admin/api/pages/"+about+"/move",
		map[string]any{"position": 0}, http.StatusForbidden)
	doJSONRequest(t, mux, readOnly, http.MethodPost, "/admin/api/cache/invalidate", nil, http.StatusForbidden)
}

func TestAdminAPIWithoutServices(t *testing.T) {
	mux := http.NewServeMux()
	if err := NewAdminAPI(WithBasePath("/api")).Register(mux); err != nil {
		t.Fatalf("register: %v", err)
	}
	doJSONRequest(t, mux, context.Background(), http.MethodPost, "/api/cache/invalidate", nil, http.StatusServiceUnavailable)
}
