package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-nav/internal/adapters/cache"
	"github.com/goliatone/go-cms-nav/internal/adapters/noop"
	"github.com/goliatone/go-cms-nav/internal/i18n"
	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/internal/logging/gologger"
	"github.com/goliatone/go-cms-nav/internal/logging/zaplog"
	"github.com/goliatone/go-cms-nav/internal/menus"
	"github.com/goliatone/go-cms-nav/internal/notify"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/render"
	"github.com/goliatone/go-cms-nav/internal/runtimeconfig"
	"github.com/goliatone/go-cms-nav/internal/sites"
	"github.com/goliatone/go-cms-nav/internal/tags"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Container wires the navigation runtime: storage, caches, services, the
// tag library and the template engine.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB  *bun.DB
	ownsDB bool

	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	fragmentCache interfaces.CacheProvider

	notifier interfaces.Notifier

	routeManager    *urlkit.RouteManager
	pageURLResolver pages.URLResolver

	siteRepo   sites.SiteRepository
	pageRepo   pages.PageRepository
	pluginRepo plugins.PluginRepository

	pluginRegistry *plugins.Registry
	extenders      *menus.Registry

	siteSvc   sites.Service
	pageSvc   pages.Service
	pluginSvc plugins.Service

	builder *menus.Builder
	library *tags.Library
	engine  *render.Engine

	clock func() time.Time
}

// Option mutates the container before it is finalised.
type Option func(*Container)

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB stores pages, sites and plugins in db instead of memory.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used by the bun repositories.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithFragmentCache overrides the cache holding page urls and placeholder
// fragments.
func WithFragmentCache(provider interfaces.CacheProvider) Option {
	return func(c *Container) {
		c.fragmentCache = provider
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(c *Container) {
		c.notifier = notifier
	}
}

func WithPageURLResolver(resolver pages.URLResolver) Option {
	return func(c *Container) {
		c.pageURLResolver = resolver
	}
}

func WithPluginRegistry(registry *plugins.Registry) Option {
	return func(c *Container) {
		c.pluginRegistry = registry
	}
}

// WithExtenderRegistry supplies the navigation extenders attached to menus.
func WithExtenderRegistry(registry *menus.Registry) Option {
	return func(c *Container) {
		c.extenders = registry
	}
}

func WithPageService(svc pages.Service) Option {
	return func(c *Container) {
		c.pageSvc = svc
	}
}

func WithSiteService(svc sites.Service) Option {
	return func(c *Container) {
		c.siteSvc = svc
	}
}

func WithPluginService(svc plugins.Service) Option {
	return func(c *Container) {
		c.pluginSvc = svc
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewContainer validates cfg and builds every service it describes.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.RepositoryTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:     cfg,
		cacheTTL:   cacheTTL,
		siteRepo:   sites.NewMemorySiteRepository(),
		pageRepo:   pages.NewMemoryPageRepository(),
		pluginRepo: plugins.NewMemoryPluginRepository(),
		clock:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	if err := c.configureFragmentCache(); err != nil {
		c.Close()
		return nil, err
	}
	c.configureNotifier()
	c.configureNavigation()

	if err := c.configureServices(); err != nil {
		c.Close()
		return nil, err
	}

	c.logger.Info("container.configured",
		"storage", c.storageName(),
		"cache", c.Config.Cache.Provider,
		"extenders", c.Config.Features.Extenders,
		"soft_roots", c.Config.Features.SoftRoots,
	)
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil && c.Config.Features.Logger {
		provider, err := newLoggerProvider(c.Config.Logging)
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleDI.From(c.loggerProvider)
	return nil
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	case "zap":
		format := strings.ToLower(strings.TrimSpace(cfg.Format))
		return zaplog.NewProvider(zaplog.Config{
			Level:       cfg.Level,
			Development: format == "console",
			Encoding:    format,
			AddSource:   cfg.AddSource,
		})
	default:
		return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrLoggingProviderUnknown, cfg.Provider)
	}
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled || c.bunDB == nil {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("container.repository_cache.disabled", "error", err)
			return
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB == nil {
		return
	}
	c.siteRepo = sites.NewBunSiteRepository(c.bunDB)
	c.pageRepo = pages.NewBunPageRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.pluginRepo = plugins.NewBunPluginRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
}

func (c *Container) configureFragmentCache() error {
	if c.fragmentCache != nil {
		return nil
	}
	if !c.Config.Cache.Enabled {
		c.fragmentCache = noop.Cache()
		return nil
	}
	provider := strings.ToLower(strings.TrimSpace(c.Config.Cache.Provider))
	if provider == "noop" {
		provider = cache.ProviderNone
	}
	fragmentCache, err := cache.New(cache.Options{
		Provider:   provider,
		MaxEntries: c.Config.Cache.MaxEntries,
		DefaultTTL: c.Config.Cache.ContentTTL,
	})
	if err != nil {
		return fmt.Errorf("di: fragment cache: %w", err)
	}
	c.fragmentCache = fragmentCache
	return nil
}

func (c *Container) configureNotifier() {
	if c.notifier != nil {
		return
	}
	cfg := c.Config.Notifications
	logger := logging.ModuleNotify.From(c.loggerProvider)

	var next interfaces.Notifier
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "none":
		return
	case "smtp":
		next = notify.Silent(notify.NewSMTPNotifier(notify.SMTPConfig{
			Addr:     cfg.SMTPAddr,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}), logger)
	default:
		next = notify.NewLogNotifier(logger)
	}
	c.notifier = notify.Addressed(next, cfg.From, cfg.Managers)
}

func (c *Container) configureNavigation() {
	if c.pageURLResolver != nil {
		return
	}

	navCfg := c.Config.Navigation
	if navCfg.RouteConfig == nil {
		return
	}

	manager := urlkit.NewRouteManager(navCfg.RouteConfig)
	c.routeManager = manager

	c.pageURLResolver = pages.NewURLKitResolver(pages.URLKitResolverOptions{
		Manager:      manager,
		DefaultGroup: strings.TrimSpace(navCfg.URLKit.DefaultGroup),
		LocaleGroups: navCfg.URLKit.LocaleGroups,
		DefaultRoute: strings.TrimSpace(navCfg.URLKit.DefaultRoute),
		HomeRoute:    strings.TrimSpace(navCfg.URLKit.HomeRoute),
		PathParam:    strings.TrimSpace(navCfg.URLKit.PathParam),
		LocaleParam:  strings.TrimSpace(navCfg.URLKit.LocaleParam),
	})
}

func (c *Container) configureServices() error {
	languages := c.Languages()

	if c.siteSvc == nil {
		c.siteSvc = sites.NewService(c.siteRepo,
			sites.WithDefaultDomain(c.Config.DefaultSiteDomain),
			sites.WithClock(c.clock),
		)
	}

	if c.pageSvc == nil {
		pageOpts := []pages.ServiceOption{
			pages.WithClock(c.clock),
			pages.WithLogger(logging.ModulePages.From(c.loggerProvider)),
			pages.WithFallbackLanguages(languages.Fallbacks("")...),
		}
		if c.pageURLResolver != nil {
			pageOpts = append(pageOpts, pages.WithURLResolver(c.pageURLResolver))
		}
		c.pageSvc = pages.NewService(c.pageRepo, pageOpts...)
	}

	if c.pluginRegistry == nil {
		c.pluginRegistry = plugins.NewRegistry()
		if err := plugins.RegisterBuiltins(c.pluginRegistry); err != nil {
			return fmt.Errorf("di: plugin registry: %w", err)
		}
	}
	if c.pluginSvc == nil {
		c.pluginSvc = plugins.NewService(c.pluginRepo, c.pluginRegistry,
			plugins.WithClock(c.clock),
			plugins.WithLogger(logging.ModulePlugins.From(c.loggerProvider)),
		)
	}

	tagsLogger := logging.ModuleTags.From(c.loggerProvider)
	builderOpts := []menus.BuilderOption{
		menus.WithLogger(logging.ModuleMenus.From(c.loggerProvider)),
		menus.WithSoftRoots(c.Config.Features.SoftRoots),
		menus.WithHideUntranslated(languages.HideUntranslated),
		menus.WithDefaultLanguage(languages.DefaultLocale),
		menus.WithFallbackLanguages(languages.Codes()...),
		menus.WithMissingReverseID(tags.NotifyMissing(c.notifier, tagsLogger)),
	}
	if c.Config.Features.Extenders {
		if c.extenders == nil {
			c.extenders = menus.NewRegistry()
		}
		builderOpts = append(builderOpts, menus.WithExtenders(c.extenders))
	}
	c.builder = menus.NewBuilder(c.pageSvc, builderOpts...)

	c.library = tags.NewLibrary(c.pageSvc, c.builder,
		tags.WithPlugins(c.pluginSvc),
		tags.WithCache(c.fragmentCache),
		tags.WithContentCacheDuration(c.Config.Cache.ContentTTL),
		tags.WithNotifier(c.notifier),
		tags.WithLanguages(languages),
		tags.WithDebug(c.Config.Debug),
		tags.WithPlaceholders(c.placeholders()),
		tags.WithLogger(tagsLogger),
	)

	engine, err := render.New(c.library,
		render.WithTemplateDir(c.Config.Templates.Dir),
		render.WithDebug(c.Config.Debug),
		render.WithLogger(logging.ModuleRender.From(c.loggerProvider)),
	)
	if err != nil {
		return fmt.Errorf("di: template engine: %w", err)
	}
	c.engine = engine

	if _, ok := c.pluginRegistry.Lookup(plugins.TypeSnippet); !ok {
		if err := c.pluginRegistry.Register(plugins.SnippetPlugin{Renderer: engine}); err != nil {
			return fmt.Errorf("di: snippet plugin: %w", err)
		}
	}
	return nil
}

func (c *Container) placeholders() map[string]tags.PlaceholderConfig {
	out := make(map[string]tags.PlaceholderConfig, len(c.Config.Placeholders))
	for name, conf := range c.Config.Placeholders {
		key := strings.TrimSpace(conf.Name)
		if key == "" {
			key = name
		}
		out[key] = tags.PlaceholderConfig{ExtraContext: conf.ExtraContext}
	}
	return out
}

// Languages returns the site languages described by the configuration.
func (c *Container) Languages() i18n.Config {
	languages := make([]i18n.Language, 0, len(c.Config.Languages))
	for _, lang := range c.Config.Languages {
		languages = append(languages, i18n.Language{Code: i18n.NormalizeCode(lang.Code), Name: lang.Name})
	}
	return i18n.FromModuleConfig(c.Config.DefaultLocale, languages, c.Config.HideUntranslated)
}

// InvalidateFragments drops every cached page url and placeholder fragment.
func (c *Container) InvalidateFragments(ctx context.Context) error {
	if c.fragmentCache == nil {
		return nil
	}
	return c.fragmentCache.Clear(ctx)
}

// Close releases the database and caches the container opened itself.
func (c *Container) Close() error {
	var errs error
	if closer, ok := c.fragmentCache.(interface{ Close() }); ok {
		closer.Close()
	}
	if c.ownsDB && c.bunDB != nil {
		errs = errors.Join(errs, c.bunDB.Close())
		c.bunDB = nil
	}
	if syncer, ok := c.loggerProvider.(interface{ Sync() error }); ok {
		// zap reports EINVAL when stderr cannot be synced.
		_ = syncer.Sync()
	}
	return errs
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns the logger of module from the configured provider.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

func (c *Container) FragmentCache() interfaces.CacheProvider {
	return c.fragmentCache
}

func (c *Container) Notifier() interfaces.Notifier {
	return c.notifier
}

func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}

func (c *Container) SiteService() sites.Service {
	return c.siteSvc
}

func (c *Container) PageService() pages.Service {
	return c.pageSvc
}

func (c *Container) PluginService() plugins.Service {
	return c.pluginSvc
}

func (c *Container) PluginRegistry() *plugins.Registry {
	return c.pluginRegistry
}

// Extenders returns the extender registry, nil when extenders are disabled.
func (c *Container) Extenders() *menus.Registry {
	if !c.Config.Features.Extenders {
		return nil
	}
	return c.extenders
}

func (c *Container) MenuBuilder() *menus.Builder {
	return c.builder
}

func (c *Container) TagLibrary() *tags.Library {
	return c.library
}

func (c *Container) TemplateEngine() *render.Engine {
	return c.engine
}

// TemplateRenderer exposes the engine through the host-facing contract.
func (c *Container) TemplateRenderer() interfaces.TemplateRenderer {
	return c.engine
}
