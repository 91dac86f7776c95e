package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cms-nav/cmd/navctl/internal/bootstrap"
)

var moduleBuilder = bootstrap.BuildModule

type rootFlags struct {
	config   string
	manifest string
	debug    bool
}

func (f *rootFlags) options() bootstrap.Options {
	return bootstrap.Options{
		ConfigPath:   f.config,
		ManifestPath: f.manifest,
		Debug:        f.debug,
	}
}

func (f *rootFlags) build(ctx context.Context) (*bootstrap.Module, error) {
	return moduleBuilder(ctx, f.options())
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "navctl",
		Short:         "Render and serve page tree navigation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "YAML or TOML config file")
	root.PersistentFlags().StringVarP(&flags.manifest, "manifest", "m", "", "Site manifest seeded on start")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newRenderCommand(flags),
		newTreeCommand(flags),
		newServeCommand(flags),
		newMigrateCommand(flags),
	)
	return root
}
