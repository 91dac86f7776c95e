package fixtures

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/sites"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

var ErrPluginsUnavailable = errors.New("fixtures: manifest declares plugins but no plugin service is configured")

// Result reports what Apply created.
type Result struct {
	Site    *sites.Site
	Pages   map[string]*pages.Page
	Plugins int
}

type SeederOption func(*Seeder)

func WithLogger(logger interfaces.Logger) SeederOption {
	return func(s *Seeder) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultLanguage sets the language of plugins that declare none.
func WithDefaultLanguage(language string) SeederOption {
	return func(s *Seeder) {
		if language = strings.TrimSpace(language); language != "" {
			s.language = language
		}
	}
}

// Seeder writes manifests into the site, page and plugin services.
type Seeder struct {
	sites    sites.Service
	pages    pages.Service
	plugins  plugins.Service
	logger   interfaces.Logger
	language string
}

func NewSeeder(siteSvc sites.Service, pageSvc pages.Service, pluginSvc plugins.Service, opts ...SeederOption) *Seeder {
	s := &Seeder{
		sites:    siteSvc,
		pages:    pageSvc,
		plugins:  pluginSvc,
		logger:   logging.NoOp(),
		language: "en",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply creates the site of m, or reuses it when the domain exists, then
// creates every page parent first and appends the declared plugins.
func (s *Seeder) Apply(ctx context.Context, m *Manifest) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	ordered, err := m.Ordered()
	if err != nil {
		return nil, err
	}
	if s.plugins == nil {
		for _, page := range ordered {
			if len(page.Plugins) > 0 {
				return nil, ErrPluginsUnavailable
			}
		}
	}

	site, err := s.site(ctx, m.Site)
	if err != nil {
		return nil, err
	}
	result := &Result{Site: site, Pages: make(map[string]*pages.Page, len(ordered))}

	for _, spec := range ordered {
		req := pages.CreatePageRequest{
			SiteID:              site.ID,
			ReverseID:           spec.ReverseID,
			SoftRoot:            spec.SoftRoot,
			InNavigation:        spec.InNavigation == nil || *spec.InNavigation,
			NavigationExtenders: spec.NavigationExtenders,
			Published:           !spec.Draft,
			Template:            spec.Template,
			Titles:              make([]pages.TitleInput, 0, len(spec.Titles)),
		}
		for _, title := range spec.Titles {
			req.Titles = append(req.Titles, pages.TitleInput(title))
		}
		if spec.Parent != "" {
			req.ParentID = &result.Pages[spec.Parent].ID
		}
		page, err := s.pages.Create(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fixtures: create page %s: %w", spec.Key, err)
		}
		result.Pages[spec.Key] = page

		for _, plugin := range spec.Plugins {
			language := plugin.Language
			if strings.TrimSpace(language) == "" {
				language = s.language
			}
			if _, err := s.plugins.Add(ctx, plugins.AddPluginRequest{
				PageID:      page.ID,
				Language:    language,
				Placeholder: plugin.Placeholder,
				PluginType:  plugin.Type,
				Data:        plugin.Data,
			}); err != nil {
				return nil, fmt.Errorf("fixtures: add %s plugin to %s: %w", plugin.Type, spec.Key, err)
			}
			result.Plugins++
		}
	}

	s.logger.Info("fixtures.applied",
		"site", site.Domain,
		"pages", len(result.Pages),
		"plugins", result.Plugins,
	)
	return result, nil
}

func (s *Seeder) site(ctx context.Context, spec SiteSpec) (*sites.Site, error) {
	site, err := s.sites.Create(ctx, sites.CreateSiteRequest{Domain: spec.Domain, Name: spec.Name})
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, sites.ErrDomainExists) {
		return nil, fmt.Errorf("fixtures: create site: %w", err)
	}
	existing, err := s.sites.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, candidate := range existing {
		if strings.EqualFold(candidate.Domain, strings.TrimSpace(spec.Domain)) {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("fixtures: site %s exists but is not listed", spec.Domain)
}
