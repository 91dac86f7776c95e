package menuscmd

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-nav/internal/commands"
	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/tags"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

const invalidateCacheMessageType = "cmsnav.menus.cache.invalidate"

// DefaultInvalidateCron is the schedule used when the handler is
// registered with a cron runner.
const DefaultInvalidateCron = "@hourly"

var ErrCacheDisabled = errors.New("menus command: fragment cache disabled")

// FeatureGates exposes the runtime toggle the cache handler checks.
type FeatureGates struct {
	CacheEnabled func() bool
}

func (g FeatureGates) cacheEnabled() bool {
	if g.CacheEnabled == nil {
		return true
	}
	return g.CacheEnabled()
}

// InvalidateCacheCommand drops cached page urls and placeholder fragments.
// Without reverse ids the whole fragment cache is cleared.
type InvalidateCacheCommand struct {
	ReverseIDs   []string `json:"reverse_ids,omitempty"`
	Placeholders []string `json:"placeholders,omitempty"`
	Languages    []string `json:"languages,omitempty"`
}

func (InvalidateCacheCommand) Type() string { return invalidateCacheMessageType }

func (m InvalidateCacheCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ReverseIDs, validation.Each(validation.Required)),
		validation.Field(&m.Placeholders,
			validation.Each(validation.Required),
			validation.Empty.When(len(m.ReverseIDs) == 0).Error("placeholders require reverse_ids"),
		),
		validation.Field(&m.Languages, validation.Each(validation.Required)),
	)
}

// InvalidateCacheHandler clears fragment cache entries.
type InvalidateCacheHandler struct {
	inner      *commands.Handler[InvalidateCacheCommand]
	cronConfig command.HandlerConfig
}

// NewInvalidateCacheHandler builds a handler over cache. languages are the
// site languages used when a command names none.
func NewInvalidateCacheHandler(cache interfaces.CacheProvider, languages []string, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[InvalidateCacheCommand]) *InvalidateCacheHandler {
	baseLogger := commands.LoggerOrNoOp(logger)

	exec := func(ctx context.Context, msg InvalidateCacheCommand) error {
		if !gates.cacheEnabled() || cache == nil {
			return ErrCacheDisabled
		}
		if len(msg.ReverseIDs) == 0 {
			if err := cache.Clear(ctx); err != nil {
				return err
			}
			baseLogger.Info("menus.command.cache.cleared")
			return nil
		}

		langs := msg.Languages
		if len(langs) == 0 {
			langs = languages
		}
		deleted := 0
		for _, rid := range msg.ReverseIDs {
			rid = strings.TrimSpace(rid)
			for _, lang := range langs {
				keys := []string{tags.PageIDURLKey(rid, lang)}
				for _, name := range msg.Placeholders {
					keys = append(keys, tags.PlaceholderByIDKey(rid, plugins.NormalizePlaceholder(name), lang))
				}
				for _, key := range keys {
					if err := cache.Delete(ctx, key); err != nil {
						return err
					}
					deleted++
				}
			}
		}
		baseLogger.Info("menus.command.cache.invalidated", "keys", deleted)
		return nil
	}

	handlerOpts := []commands.HandlerOption[InvalidateCacheCommand]{
		commands.WithLogger[InvalidateCacheCommand](baseLogger),
		commands.WithOperation[InvalidateCacheCommand]("menus.cache.invalidate"),
		commands.WithMessageFields(func(msg InvalidateCacheCommand) map[string]any {
			if len(msg.ReverseIDs) == 0 {
				return map[string]any{"scope": "all"}
			}
			return map[string]any{"reverse_ids": msg.ReverseIDs}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InvalidateCacheHandler{
		inner:      commands.NewHandler(exec, handlerOpts...),
		cronConfig: command.HandlerConfig{Expression: DefaultInvalidateCron},
	}
}

// WithCronExpression overrides the cron schedule. Empty keeps the default.
func (h *InvalidateCacheHandler) WithCronExpression(expr string) *InvalidateCacheHandler {
	if expr = strings.TrimSpace(expr); expr != "" {
		h.cronConfig.Expression = expr
	}
	return h
}

// Execute satisfies command.Commander[InvalidateCacheCommand].
func (h *InvalidateCacheHandler) Execute(ctx context.Context, msg InvalidateCacheCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CronHandler satisfies command.CronCommand with a full cache flush.
func (h *InvalidateCacheHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), InvalidateCacheCommand{})
	}
}

// CronOptions satisfies command.CronCommand.
func (h *InvalidateCacheHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

func (h *InvalidateCacheHandler) CLIHandler() any {
	return h
}

func (h *InvalidateCacheHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"menus", "cache", "invalidate"},
		Group:       "menus",
		Description: "Drop cached page urls and placeholder fragments",
	}
}
