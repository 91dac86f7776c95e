package di

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-nav/internal/commands"
	menuscmd "github.com/goliatone/go-cms-nav/internal/commands/menus"
	pagescmd "github.com/goliatone/go-cms-nav/internal/commands/pages"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures where the container's handlers go.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// InvalidateCron overrides the schedule of the fragment cache flush.
	InvalidateCron string
}

// CommandHandlers groups the handlers built by RegisterCommands.
type CommandHandlers struct {
	InvalidateCache *menuscmd.InvalidateCacheHandler
	RebuildTree     *pagescmd.RebuildTreeHandler
	MovePage        *pagescmd.MovePageHandler
}

// RegistrationResult captures the handlers and dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      CommandHandlers
	All           []any
	Subscriptions []CommandSubscription
}

// RegisterCommands builds the navigation command handlers and hands them to
// the integrations set in opts.
func (c *Container) RegisterCommands(opts RegistrationOptions) (*RegistrationResult, error) {
	provider := opts.LoggerProvider
	if provider == nil {
		provider = c.loggerProvider
	}

	result := &RegistrationResult{
		All:           make([]any, 0, 3),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error
	register := func(handler any) {
		result.All = append(result.All, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	cfg := c.Config
	gates := menuscmd.FeatureGates{
		CacheEnabled: func() bool { return cfg.Cache.Enabled },
	}
	invalidate := menuscmd.NewInvalidateCacheHandler(c.fragmentCache, c.Languages().Codes(), commands.Logger(provider, "menus"), gates)
	if expr := strings.TrimSpace(opts.InvalidateCron); expr != "" {
		invalidate.WithCronExpression(expr)
	}
	result.Handlers.InvalidateCache = invalidate
	register(invalidate)

	pagesLogger := commands.Logger(provider, "pages")
	result.Handlers.RebuildTree = pagescmd.NewRebuildTreeHandler(c.pageSvc, c.InvalidateFragments, pagesLogger)
	register(result.Handlers.RebuildTree)
	result.Handlers.MovePage = pagescmd.NewMovePageHandler(c.pageSvc, c.InvalidateFragments, pagesLogger)
	register(result.Handlers.MovePage)

	return result, errs
}
