// Package cmsnav renders page tree navigation (menus, breadcrumbs,
// language links) and page placeholders into pongo2 templates.
package cmsnav

import (
	"context"
	"os"
	"path/filepath"

	"github.com/goliatone/go-cms-nav/internal/di"
	"github.com/goliatone/go-cms-nav/internal/fixtures"
	cmshttp "github.com/goliatone/go-cms-nav/internal/http"
	"github.com/goliatone/go-cms-nav/internal/menus"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/render"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/internal/sites"
	"github.com/goliatone/go-cms-nav/internal/tags"
)

// PageService exports the page tree service contract.
type PageService = pages.Service

// SiteService exports the site service contract.
type SiteService = sites.Service

// PluginService exports the placeholder plugin service contract.
type PluginService = plugins.Service

type (
	Page          = pages.Page
	Site          = sites.Site
	Request       = requests.Request
	MenuOptions   = menus.MenuOptions
	Manifest      = fixtures.Manifest
	SeedResult    = fixtures.Result
	PageResolver  = cmshttp.PageResolver
	SiteHandler   = cmshttp.SiteHandler
	AdminAPI      = cmshttp.AdminAPI
	Incoming      = cmshttp.Incoming
	Registration  = di.RegistrationOptions
	CommandResult = di.RegistrationResult
)

// Module represents the top level navigation runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Sites() SiteService {
	return m.container.SiteService()
}

func (m *Module) Pages() PageService {
	return m.container.PageService()
}

func (m *Module) Plugins() PluginService {
	return m.container.PluginService()
}

// Menus returns the menu tree builder.
func (m *Module) Menus() *menus.Builder {
	return m.container.MenuBuilder()
}

// Tags returns the template tag library.
func (m *Module) Tags() *tags.Library {
	return m.container.TagLibrary()
}

// Templates returns the pongo2 engine with the navigation tags registered.
func (m *Module) Templates() *render.Engine {
	return m.container.TemplateEngine()
}

// Resolver maps hosts and paths to page requests.
func (m *Module) Resolver() *PageResolver {
	return cmshttp.NewPageResolver(m.Sites(), m.Pages(), m.container.Languages())
}

// SiteHandler returns the fiber handler that renders pages.
func (m *Module) SiteHandler(opts ...cmshttp.SiteOption) *SiteHandler {
	opts = append([]cmshttp.SiteOption{cmshttp.WithSiteLogger(m.container.Logger("cmsnav.http"))}, opts...)
	return cmshttp.NewSiteHandler(m.Resolver(), m.Templates(), opts...)
}

// AdminAPI wires the admin endpoints to the handlers in result.
func (m *Module) AdminAPI(result *CommandResult, opts ...cmshttp.AdminOption) *AdminAPI {
	base := []cmshttp.AdminOption{cmshttp.WithPageService(m.Pages())}
	if result != nil {
		base = append(base,
			cmshttp.WithMovePage(result.Handlers.MovePage),
			cmshttp.WithRebuildTree(result.Handlers.RebuildTree),
			cmshttp.WithInvalidateCache(result.Handlers.InvalidateCache),
		)
	}
	return cmshttp.NewAdminAPI(append(base, opts...)...)
}

// RegisterCommands builds the command handlers and hands them to the
// registry, dispatcher and cron scheduler in opts.
func (m *Module) RegisterCommands(opts Registration) (*CommandResult, error) {
	return m.container.RegisterCommands(opts)
}

// LoadManifest reads a site manifest file and the Markdown documents it
// points to.
func (m *Module) LoadManifest(path string) (*Manifest, error) {
	return fixtures.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path),
		fixtures.WithLanguages(m.container.Languages().Codes()...))
}

// Seed writes manifest into the site, page and plugin services.
func (m *Module) Seed(ctx context.Context, manifest *Manifest) (*SeedResult, error) {
	seeder := fixtures.NewSeeder(m.Sites(), m.Pages(), m.Plugins(),
		fixtures.WithLogger(m.container.Logger("cmsnav.fixtures")),
		fixtures.WithDefaultLanguage(m.container.Config.DefaultLocale),
	)
	return seeder.Apply(ctx, manifest)
}

// InvalidateFragments drops every cached fragment.
func (m *Module) InvalidateFragments(ctx context.Context) error {
	return m.container.InvalidateFragments(ctx)
}

// Close releases the cache, database and logger owned by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
