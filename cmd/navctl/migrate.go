package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	cmsnav "github.com/goliatone/go-cms-nav"
	"github.com/goliatone/go-cms-nav/cmd/navctl/internal/bootstrap"
)

var errNoDatabase = errors.New("navctl: migrate needs the bun storage provider")

func newMigrateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.options()
			opts.SkipMigrations = true
			opts.ManifestPath = ""
			module, err := moduleBuilder(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer module.Close()
			return runMigrate(cmd, module)
		},
	}
}

func runMigrate(cmd *cobra.Command, module *bootstrap.Module) error {
	db := module.Module.Container().BunDB()
	if db == nil {
		return errNoDatabase
	}
	applied, err := cmsnav.Migrate(cmd.Context(), db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return err
	}
	for _, name := range applied {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "applied", name); err != nil {
			return err
		}
	}
	return nil
}
