package tags

import (
	"context"
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-cms-nav/internal/i18n"
	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/internal/menus"
	"github.com/goliatone/go-cms-nav/internal/notify"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// DefaultContentCacheDuration is how long page urls and placeholder
// fragments stay cached.
const DefaultContentCacheDuration = time.Minute

// Context is the inclusion context a tag hands to its template.
type Context map[string]any

func content(value string) Context {
	return Context{"content": value}
}

// PlaceholderConfig holds per-placeholder render settings.
type PlaceholderConfig struct {
	// ExtraContext is merged into the render context of the placeholder.
	ExtraContext map[string]any
}

type Option func(*Library)

func WithPlugins(svc plugins.Service) Option {
	return func(l *Library) {
		l.plugins = svc
	}
}

func WithCache(cache interfaces.CacheProvider) Option {
	return func(l *Library) {
		l.cache = cache
	}
}

func WithContentCacheDuration(ttl time.Duration) Option {
	return func(l *Library) {
		if ttl >= 0 {
			l.contentTTL = ttl
		}
	}
}

// WithNotifier sets where missing reverse id reports go.
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(l *Library) {
		l.notifier = notifier
	}
}

func WithLanguages(cfg i18n.Config) Option {
	return func(l *Library) {
		if cfg.DefaultLocale == "" && len(cfg.Languages) == 0 {
			return
		}
		l.languages = cfg
	}
}

// WithDebug makes show_placeholder_by_id fail on unknown reverse ids
// instead of notifying managers.
func WithDebug(debug bool) Option {
	return func(l *Library) {
		l.debug = debug
	}
}

func WithPlaceholders(cfg map[string]PlaceholderConfig) Option {
	return func(l *Library) {
		l.placeholders = make(map[string]PlaceholderConfig, len(cfg))
		for name, conf := range cfg {
			l.placeholders[plugins.NormalizePlaceholder(name)] = conf
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Library implements the navigation and placeholder template tags.
type Library struct {
	pages        pages.Service
	menus        *menus.Builder
	plugins      plugins.Service
	cache        interfaces.CacheProvider
	contentTTL   time.Duration
	notifier     interfaces.Notifier
	languages    i18n.Config
	negotiator   *i18n.Negotiator
	debug        bool
	placeholders map[string]PlaceholderConfig
	logger       interfaces.Logger
}

func NewLibrary(pageSvc pages.Service, builder *menus.Builder, opts ...Option) *Library {
	l := &Library{
		pages:      pageSvc,
		menus:      builder,
		contentTTL: DefaultContentCacheDuration,
		languages: i18n.Config{
			DefaultLocale: "en",
			Languages:     []i18n.Language{{Code: "en", Name: "English"}},
		},
		placeholders: map[string]PlaceholderConfig{},
		logger:       logging.NoOp(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.menus == nil {
		l.menus = menus.NewBuilder(pageSvc,
			menus.WithLogger(l.logger),
			menus.WithDefaultLanguage(l.languages.DefaultLocale),
			menus.WithHideUntranslated(l.languages.HideUntranslated),
			menus.WithMissingReverseID(NotifyMissing(l.notifier, l.logger)),
		)
	}
	l.negotiator = i18n.NewNegotiator(l.languages)
	return l
}

// Languages returns the configured site languages.
func (l *Library) Languages() []i18n.Language {
	return append([]i18n.Language(nil), l.languages.Languages...)
}

// Language resolves the language of req from its query, explicit choice,
// Accept-Language header and the languages of the current page.
func (l *Library) Language(req *requests.Request) string {
	if req == nil {
		return l.languages.DefaultLocale
	}
	in := i18n.NegotiationInput{
		Query:          req.QueryLanguage(),
		Explicit:       req.Language,
		AcceptLanguage: req.AcceptLanguage,
	}
	if req.CurrentPage != nil && !req.Dummy {
		in.PageLanguages = req.CurrentPage.Languages()
	}
	return l.negotiator.Negotiate(in)
}

// prepare returns a copy of req carrying the negotiated language.
func (l *Library) prepare(req *requests.Request) *requests.Request {
	if req == nil {
		return nil
	}
	clone := *req
	clone.Language = l.Language(req)
	return &clone
}

// NotifyMissing returns a reporter that tells managers about unknown
// reverse ids. Delivery failures are logged and dropped.
func NotifyMissing(notifier interfaces.Notifier, logger interfaces.Logger) menus.MissingReverseIDFunc {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(ctx context.Context, req *requests.Request, reverseID string) {
		logger.Warn("tags.reverse_id.missing", "reverse_id", reverseID, "path", req.Path)
		if notifier == nil {
			return
		}
		msg := notify.MissingReverseID(req.SiteDomain(), reverseID, req.URL())
		if err := notifier.Notify(ctx, msg); err != nil {
			logger.Warn("tags.reverse_id.notify_failed", "reverse_id", reverseID, "error", err)
		}
	}
}

func (l *Library) reportMissing(ctx context.Context, req *requests.Request, reverseID string) {
	NotifyMissing(l.notifier, l.logger)(ctx, req, reverseID)
}

func (l *Library) cached(ctx context.Context, key string) (string, bool) {
	if l.cache == nil {
		return "", false
	}
	value, err := l.cache.Get(ctx, key)
	if err != nil {
		return "", false
	}
	text, ok := value.(string)
	return text, ok && text != ""
}

func (l *Library) store(ctx context.Context, key, value string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Set(ctx, key, value, l.contentTTL); err != nil {
		l.logger.Warn("tags.cache.set_failed", "key", key, "error", err)
	}
}

func (l *Library) fallbacks(lang string) []string {
	return append(l.languages.Fallbacks(lang), lang)
}

func (l *Library) renderValues(name string, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	maps.Copy(out, values)
	if conf, ok := l.placeholders[strings.ToLower(name)]; ok {
		maps.Copy(out, conf.ExtraContext)
	}
	return out
}
