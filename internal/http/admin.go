package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	menuscmd "github.com/goliatone/go-cms-nav/internal/commands/menus"
	pagescmd "github.com/goliatone/go-cms-nav/internal/commands/pages"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/permissions"
)

// Executor runs one command message.
type Executor[T any] interface {
	Execute(ctx context.Context, msg T) error
}

// AdminAPI registers the page tree and cache endpoints.
type AdminAPI struct {
	basePath    string
	pages       pages.Service
	movePage    Executor[pagescmd.MovePageCommand]
	rebuildTree Executor[pagescmd.RebuildTreeCommand]
	invalidate  Executor[menuscmd.InvalidateCacheCommand]
}

// AdminOption mutates the AdminAPI configuration.
type AdminOption func(*AdminAPI)

func NewAdminAPI(opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath: "/admin/api",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/admin/api").
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

func WithPageService(svc pages.Service) AdminOption {
	return func(api *AdminAPI) {
		api.pages = svc
	}
}

func WithMovePage(handler Executor[pagescmd.MovePageCommand]) AdminOption {
	return func(api *AdminAPI) {
		api.movePage = handler
	}
}

func WithRebuildTree(handler Executor[pagescmd.RebuildTreeCommand]) AdminOption {
	return func(api *AdminAPI) {
		api.rebuildTree = handler
	}
}

func WithInvalidateCache(handler Executor[menuscmd.InvalidateCacheCommand]) AdminOption {
	return func(api *AdminAPI) {
		api.invalidate = handler
	}
}

// Register mounts the admin routes on mux.
func (api *AdminAPI) Register(mux *http.ServeMux) error {
	if api == nil {
		return errors.New("http: admin api is nil")
	}
	if mux == nil {
		return errors.New("http: mux is nil")
	}
	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{"GET", adminPath(api.basePath, "pages"), api.handlePageList},
		{"GET", adminPath(api.basePath, "pages", "{id}"), api.handlePageGet},
		{"POST", adminPath(api.basePath, "pages", "{id}", "move"), api.handlePageMove},
		{"POST", adminPath(api.basePath, "sites", "{id}", "tree", "rebuild"), api.handleTreeRebuild},
		{"POST", adminPath(api.basePath, "cache", "invalidate"), api.handleCacheInvalidate},
	}
	for _, route := range routes {
		mux.HandleFunc(route.method+" "+route.path, route.handler)
	}
	return nil
}

type pageMovePayload struct {
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Position int        `json:"position"`
}

type cacheInvalidatePayload struct {
	ReverseIDs   []string `json:"reverse_ids,omitempty"`
	Placeholders []string `json:"placeholders,omitempty"`
	Languages    []string `json:"languages,omitempty"`
}

func (api *AdminAPI) handlePageList(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		unavailable(w)
		return
	}
	if !requirePermission(w, r, permissions.PagesRead) {
		return
	}
	siteID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("site_id")))
	if err != nil {
		badRequest(w, "invalid site_id")
		return
	}
	list, err := api.pages.List(r.Context(), pages.Query{SiteID: siteID})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := api.pages.AttachTitles(r.Context(), list); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *AdminAPI) handlePageGet(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		unavailable(w)
		return
	}
	if !requirePermission(w, r, permissions.PagesRead) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	record, err := api.pages.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handlePageMove(w http.ResponseWriter, r *http.Request) {
	if api.movePage == nil {
		unavailable(w)
		return
	}
	if !requirePermission(w, r, permissions.PagesUpdate) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var payload pageMovePayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid JSON payload")
		return
	}
	err := api.movePage.Execute(r.Context(), pagescmd.MovePageCommand{
		PageID:   id,
		ParentID: payload.ParentID,
		Position: payload.Position,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if api.pages == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	record, err := api.pages.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handleTreeRebuild(w http.ResponseWriter, r *http.Request) {
	if api.rebuildTree == nil {
		unavailable(w)
		return
	}
	if !requirePermission(w, r, permissions.PagesUpdate) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := api.rebuildTree.Execute(r.Context(), pagescmd.RebuildTreeCommand{SiteID: id}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if api.invalidate == nil {
		unavailable(w)
		return
	}
	if !requirePermission(w, r, permissions.CacheDelete) {
		return
	}
	var payload cacheInvalidatePayload
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON payload")
		return
	}
	err := api.invalidate.Execute(r.Context(), menuscmd.InvalidateCacheCommand{
		ReverseIDs:   payload.ReverseIDs,
		Placeholders: payload.Placeholders,
		Languages:    payload.Languages,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
