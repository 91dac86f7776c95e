package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

var ErrDefaultLocaleRequired = errors.New("cmsnav config: default locale is required")
var ErrDefaultLocaleNotListed = errors.New("cmsnav config: default locale must be one of the configured languages")
var ErrStorageProviderUnknown = errors.New("cmsnav config: storage provider is invalid")
var ErrStorageDriverUnknown = errors.New("cmsnav config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("cmsnav config: storage dsn is required for the bun provider")
var ErrCacheProviderUnknown = errors.New("cmsnav config: cache provider is invalid")
var ErrCacheTTLInvalid = errors.New("cmsnav config: cache ttl must be zero or positive")
var ErrNotificationProviderUnknown = errors.New("cmsnav config: notification provider is invalid")
var ErrNotificationSMTPAddrRequired = errors.New("cmsnav config: smtp address is required for the smtp notifier")
var ErrLoggingProviderRequired = errors.New("cmsnav config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("cmsnav config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("cmsnav config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("cmsnav config: logging format is invalid")

// Config aggregates the runtime settings for the navigation module.
type Config struct {
	DefaultLocale     string                       `yaml:"default_locale" toml:"default_locale"`
	Languages         []LanguageConfig             `yaml:"languages" toml:"languages"`
	HideUntranslated  bool                         `yaml:"hide_untranslated" toml:"hide_untranslated"`
	Debug             bool                         `yaml:"debug" toml:"debug"`
	DefaultSiteDomain string                       `yaml:"default_site_domain" toml:"default_site_domain"`
	Storage           StorageConfig                `yaml:"storage" toml:"storage"`
	Cache             CacheConfig                  `yaml:"cache" toml:"cache"`
	Navigation        NavigationConfig             `yaml:"navigation" toml:"navigation"`
	Templates         TemplateConfig               `yaml:"templates" toml:"templates"`
	Placeholders      map[string]PlaceholderConfig `yaml:"placeholders" toml:"placeholders"`
	Notifications     NotificationConfig           `yaml:"notifications" toml:"notifications"`
	Features          Features                     `yaml:"features" toml:"features"`
	Logging           LoggingConfig                `yaml:"logging" toml:"logging"`
}

// LanguageConfig lists a language offered by the language chooser.
type LanguageConfig struct {
	Code string `yaml:"code" toml:"code"`
	Name string `yaml:"name" toml:"name"`
}

// StorageConfig selects the page and plugin stores.
type StorageConfig struct {
	Provider    string `yaml:"provider" toml:"provider"`
	Driver      string `yaml:"driver" toml:"driver"`
	DSN         string `yaml:"dsn" toml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate" toml:"auto_migrate"`
}

// CacheConfig captures fragment and repository cache behaviour.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" toml:"enabled"`
	Provider      string        `yaml:"provider" toml:"provider"`
	ContentTTL    time.Duration `yaml:"content_ttl" toml:"content_ttl"`
	RepositoryTTL time.Duration `yaml:"repository_ttl" toml:"repository_ttl"`
	MaxEntries    int           `yaml:"max_entries" toml:"max_entries"`
}

// NavigationConfig captures routing configuration for page URL resolution.
type NavigationConfig struct {
	RouteConfig *urlkit.Config       `yaml:"-" toml:"-"`
	URLKit      URLKitResolverConfig `yaml:"urlkit" toml:"urlkit"`
}

// URLKitResolverConfig configures the go-urlkit based page URL resolver.
type URLKitResolverConfig struct {
	DefaultGroup string            `yaml:"default_group" toml:"default_group"`
	LocaleGroups map[string]string `yaml:"locale_groups" toml:"locale_groups"`
	DefaultRoute string            `yaml:"default_route" toml:"default_route"`
	HomeRoute    string            `yaml:"home_route" toml:"home_route"`
	PathParam    string            `yaml:"path_param" toml:"path_param"`
	LocaleParam  string            `yaml:"locale_param" toml:"locale_param"`
}

// TemplateConfig points the renderer at an optional override directory.
type TemplateConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// PlaceholderConfig holds per-placeholder render settings.
type PlaceholderConfig struct {
	Name         string         `yaml:"name" toml:"name"`
	ExtraContext map[string]any `yaml:"extra_context" toml:"extra_context"`
}

// NotificationConfig configures manager notifications.
type NotificationConfig struct {
	Provider     string   `yaml:"provider" toml:"provider"`
	From         string   `yaml:"from" toml:"from"`
	Managers     []string `yaml:"managers" toml:"managers"`
	SMTPAddr     string   `yaml:"smtp_addr" toml:"smtp_addr"`
	SMTPUsername string   `yaml:"smtp_username" toml:"smtp_username"`
	SMTPPassword string   `yaml:"smtp_password" toml:"smtp_password"`
}

// Features toggles optional functionality.
type Features struct {
	Logger     bool `yaml:"logger" toml:"logger"`
	Extenders  bool `yaml:"extenders" toml:"extenders"`
	SoftRoots  bool `yaml:"soft_roots" toml:"soft_roots"`
	Moderation bool `yaml:"moderation" toml:"moderation"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider" toml:"provider"`
	Level     string   `yaml:"level" toml:"level"`
	Format    string   `yaml:"format" toml:"format"`
	AddSource bool     `yaml:"add_source" toml:"add_source"`
	Focus     []string `yaml:"focus" toml:"focus"`
}

// DefaultConfig returns defaults suited to a single-site, single-language setup.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		Languages: []LanguageConfig{
			{Code: "en", Name: "English"},
		},
		Storage: StorageConfig{
			Provider:    "memory",
			Driver:      "sqlite",
			AutoMigrate: true,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Provider:      "ristretto",
			ContentTTL:    time.Minute,
			RepositoryTTL: time.Minute,
			MaxEntries:    1024,
		},
		Navigation:   NavigationConfig{},
		Placeholders: map[string]PlaceholderConfig{},
		Notifications: NotificationConfig{
			Provider: "log",
			From:     "webmaster@localhost",
		},
		Features: Features{
			Extenders: true,
			SoftRoots: true,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "",
		},
	}
}

// LanguageCodes returns the configured language codes in order.
func (cfg Config) LanguageCodes() []string {
	out := make([]string, 0, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		if code := strings.TrimSpace(lang.Code); code != "" {
			out = append(out, code)
		}
	}
	return out
}

// Placeholder returns the settings for a placeholder, matching names
// case-insensitively.
func (cfg Config) Placeholder(name string) (PlaceholderConfig, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if placeholder, ok := cfg.Placeholders[key]; ok {
		return placeholder, true
	}
	for candidate, placeholder := range cfg.Placeholders {
		if strings.EqualFold(candidate, key) {
			return placeholder, true
		}
	}
	return PlaceholderConfig{}, false
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	locale := strings.TrimSpace(cfg.DefaultLocale)
	if locale == "" {
		return ErrDefaultLocaleRequired
	}
	if codes := cfg.LanguageCodes(); len(codes) > 0 && !containsFold(codes, locale) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleNotListed, locale)
	}

	switch normalize(cfg.Storage.Provider) {
	case "", "memory":
	case "bun":
		switch normalize(cfg.Storage.Driver) {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}

	if cfg.Cache.Enabled {
		switch normalize(cfg.Cache.Provider) {
		case "", "ristretto", "lru", "noop", "none":
		default:
			return fmt.Errorf("%w: %s", ErrCacheProviderUnknown, cfg.Cache.Provider)
		}
	}
	if cfg.Cache.ContentTTL < 0 {
		return fmt.Errorf("%w: content", ErrCacheTTLInvalid)
	}
	if cfg.Cache.RepositoryTTL < 0 {
		return fmt.Errorf("%w: repository", ErrCacheTTLInvalid)
	}

	switch normalize(cfg.Notifications.Provider) {
	case "", "log", "none":
	case "smtp":
		if strings.TrimSpace(cfg.Notifications.SMTPAddr) == "" {
			return ErrNotificationSMTPAddrRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrNotificationProviderUnknown, cfg.Notifications.Provider)
	}

	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(provider, format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger", "zap":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(provider, format string) bool {
	switch normalize(format) {
	case "json", "console":
		return true
	case "pretty":
		return provider == "gologger"
	default:
		return false
	}
}
