package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cms-nav/internal/pages"
)

func newTreeCommand(flags *rootFlags) *cobra.Command {
	var (
		host     string
		language string
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the page tree of a site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			module, err := flags.build(ctx)
			if err != nil {
				return err
			}
			defer module.Close()

			site, err := module.Module.Sites().Resolve(ctx, host)
			if err != nil {
				return err
			}
			svc := module.Module.Pages()
			records, err := svc.List(ctx, pages.Query{SiteID: site.ID})
			if err != nil {
				return err
			}
			if err := svc.AttachTitles(ctx, records); err != nil {
				return err
			}
			lang := strings.TrimSpace(language)
			if lang == "" {
				lang = module.Module.Container().Config.DefaultLocale
			}
			return printTree(cmd.OutOrStdout(), site.Domain, records, lang)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Site host")
	cmd.Flags().StringVar(&language, "lang", "", "Language of the titles (defaults to the default locale)")
	return cmd
}

// printTree writes one line per page, indented by level, with its url and
// flags.
func printTree(w io.Writer, domain string, records []*pages.Page, language string) error {
	if _, err := fmt.Fprintln(w, domain); err != nil {
		return err
	}
	for _, page := range records {
		title := page.TitleFor(language)
		if title == nil && len(page.Titles) > 0 {
			title = page.Titles[0]
		}
		name, path := page.ID.String(), ""
		if title != nil {
			name = title.Title
			path = "/" + strings.Trim(title.Path, "/")
		}
		var marks []string
		if page.ReverseID != "" {
			marks = append(marks, "id="+page.ReverseID)
		}
		if page.SoftRoot {
			marks = append(marks, "soft-root")
		}
		if !page.InNavigation {
			marks = append(marks, "hidden")
		}
		if !page.Published {
			marks = append(marks, "draft")
		}
		line := strings.Repeat("  ", page.Level+1) + name + " " + path
		if len(marks) > 0 {
			line += " [" + strings.Join(marks, ",") + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
