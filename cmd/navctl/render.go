package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	cmshttp "github.com/goliatone/go-cms-nav/internal/http"
	"github.com/goliatone/go-cms-nav/internal/requests"
)

func newRenderCommand(flags *rootFlags) *cobra.Command {
	var (
		host     string
		language string
		template string
		preview  bool
	)
	cmd := &cobra.Command{
		Use:   "render [path]",
		Short: "Render the page at path to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			parsed, err := url.Parse(path)
			if err != nil {
				return fmt.Errorf("parse path: %w", err)
			}

			ctx := cmd.Context()
			module, err := flags.build(ctx)
			if err != nil {
				return err
			}
			defer module.Close()

			req, err := module.Module.Resolver().Resolve(ctx, cmshttp.Incoming{
				Host:           host,
				Path:           parsed.Path,
				Query:          parsed.Query(),
				AcceptLanguage: language,
				Draft:          preview,
			})
			if err != nil {
				return err
			}

			name := strings.TrimSpace(template)
			if name == "" {
				name = req.CurrentPage.Template
			}
			if name == "" {
				name = cmshttp.DefaultPageTemplate
			}
			html, err := module.Module.Templates().RenderPage(requests.NewContext(ctx, req), name, req, nil)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), html)
			return err
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Site host the page belongs to")
	cmd.Flags().StringVar(&language, "lang", "", "Accept-Language used to pick the language")
	cmd.Flags().StringVar(&template, "template", "", "Template to render instead of the page template")
	cmd.Flags().BoolVar(&preview, "preview", false, "Include unpublished pages")
	return cmd
}
