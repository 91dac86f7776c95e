package cmsnav

import "github.com/goliatone/go-cms-nav/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired        = runtimeconfig.ErrDefaultLocaleRequired
	ErrDefaultLocaleNotListed       = runtimeconfig.ErrDefaultLocaleNotListed
	ErrStorageProviderUnknown       = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDriverUnknown         = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired           = runtimeconfig.ErrStorageDSNRequired
	ErrCacheProviderUnknown         = runtimeconfig.ErrCacheProviderUnknown
	ErrCacheTTLInvalid              = runtimeconfig.ErrCacheTTLInvalid
	ErrNotificationProviderUnknown  = runtimeconfig.ErrNotificationProviderUnknown
	ErrNotificationSMTPAddrRequired = runtimeconfig.ErrNotificationSMTPAddrRequired
	ErrLoggingProviderRequired      = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown       = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid          = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid         = runtimeconfig.ErrLoggingFormatInvalid
	ErrConfigFormatUnknown          = runtimeconfig.ErrConfigFormatUnknown
)

type (
	Config               = runtimeconfig.Config
	LanguageConfig       = runtimeconfig.LanguageConfig
	StorageConfig        = runtimeconfig.StorageConfig
	CacheConfig          = runtimeconfig.CacheConfig
	NavigationConfig     = runtimeconfig.NavigationConfig
	URLKitResolverConfig = runtimeconfig.URLKitResolverConfig
	TemplateConfig       = runtimeconfig.TemplateConfig
	PlaceholderConfig    = runtimeconfig.PlaceholderConfig
	NotificationConfig   = runtimeconfig.NotificationConfig
	Features             = runtimeconfig.Features
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML or TOML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.LoadFile(path)
}
