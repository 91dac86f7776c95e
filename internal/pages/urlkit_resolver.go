package pages

import (
	"context"
	"fmt"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"
)

// ResolveRequest carries the page being linked.
type ResolveRequest struct {
	Page     *Page
	Title    *Title
	Language string
	Home     bool
}

// URLResolver builds page URLs. An empty result falls back to title paths.
type URLResolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (string, error)
}

// URLKitResolverOptions configures the go-urlkit backed resolver.
type URLKitResolverOptions struct {
	Manager      *urlkit.RouteManager
	DefaultGroup string
	LocaleGroups map[string]string
	DefaultRoute string
	HomeRoute    string
	PathParam    string
	LocaleParam  string
}

// URLKitResolver resolves page URLs using a go-urlkit RouteManager.
type URLKitResolver struct {
	manager *urlkit.RouteManager

	defaultGroup string
	localeGroups map[string]string

	defaultRoute string
	homeRoute    string
	pathParam    string
	localeParam  string

	groupCache map[string]*urlkit.Group
	mu         sync.RWMutex
}

// NewURLKitResolver constructs a resolver backed by go-urlkit.
func NewURLKitResolver(opts URLKitResolverOptions) *URLKitResolver {
	if opts.PathParam == "" {
		opts.PathParam = "path"
	}
	localeGroups := make(map[string]string, len(opts.LocaleGroups))
	for locale, group := range opts.LocaleGroups {
		localeGroups[strings.ToLower(strings.TrimSpace(locale))] = strings.TrimSpace(group)
	}
	return &URLKitResolver{
		manager:      opts.Manager,
		defaultGroup: strings.TrimSpace(opts.DefaultGroup),
		localeGroups: localeGroups,
		defaultRoute: strings.TrimSpace(opts.DefaultRoute),
		homeRoute:    strings.TrimSpace(opts.HomeRoute),
		pathParam:    strings.TrimSpace(opts.PathParam),
		localeParam:  strings.TrimSpace(opts.LocaleParam),
		groupCache:   make(map[string]*urlkit.Group),
	}
}

// Resolve builds a URL for the page title. Home pages use the home route
// when one is configured.
func (r *URLKitResolver) Resolve(_ context.Context, req ResolveRequest) (string, error) {
	if r == nil || r.manager == nil || req.Page == nil {
		return "", nil
	}

	groupPath := r.defaultGroup
	if path, ok := r.localeGroups[strings.ToLower(strings.TrimSpace(req.Language))]; ok && path != "" {
		groupPath = path
	}
	if groupPath == "" {
		return "", nil
	}

	routeName := r.defaultRoute
	if req.Home && r.homeRoute != "" {
		routeName = r.homeRoute
	}
	if routeName == "" {
		return "", nil
	}

	group, err := r.groupForPath(groupPath)
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, routeName)
	if err != nil {
		return "", err
	}

	if r.pathParam != "" && req.Title != nil && !req.Home {
		path := strings.Trim(req.Title.Path, "/")
		if path == "" {
			path = strings.Trim(req.Title.Slug, "/")
		}
		builder.WithParam(r.pathParam, path)
	}
	if r.localeParam != "" && strings.TrimSpace(req.Language) != "" {
		builder.WithParam(r.localeParam, strings.TrimSpace(req.Language))
	}
	return builder.Build()
}

func (r *URLKitResolver) groupForPath(path string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.groupCache[path]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(path, ".")
	current, err := lookupGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		current, err = lookupChildGroup(current, part)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[path] = current
	r.mu.Unlock()
	return current, nil
}

// go-urlkit panics on unknown groups and routes; the helpers below turn
// those panics into errors.

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("pages: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			builder = nil
			err = fmt.Errorf("pages: urlkit route %q: %v", route, rec)
		}
	}()
	return group.Builder(route), nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("pages: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("pages: route group %q not found", name)
		}
	}()
	return manager.Group(name), nil
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	if parent == nil {
		return nil, fmt.Errorf("pages: parent group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("pages: child group %q not found", name)
		}
	}()
	return parent.Group(name), nil
}
