package http

import (
	"context"
	"testing"

	"github.com/goliatone/go-cms-nav/internal/di"
	"github.com/goliatone/go-cms-nav/internal/fixtures"
	"github.com/goliatone/go-cms-nav/internal/runtimeconfig"
)

const siteManifest = `
site:
  domain: cms.test
pages:
  - key: home
    reverse_id: home
    titles: [{language: en, title: Home}]
  - key: about
    parent: home
    reverse_id: about
    titles:
      - {language: en, title: About}
      - {language: de, title: Uber uns, slug: uber-uns}
    plugins:
      - {placeholder: content, type: text, data: {body: "<p>About body</p>"}}
  - key: team
    parent: about
    titles: [{language: en, title: Team}]
  - key: soon
    parent: home
    draft: true
    titles: [{language: en, title: Soon}]
`

type testSite struct {
	container *di.Container
	seeded    *fixtures.Result
}

func newTestSite(t *testing.T) testSite {
	t.Helper()
	return newTestSiteFrom(t, siteManifest)
}

func newTestSiteFrom(t *testing.T, source string) testSite {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Languages = []runtimeconfig.LanguageConfig{
		{Code: "en", Name: "English"},
		{Code: "de", Name: "Deutsch"},
	}
	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	manifest, err := fixtures.Decode(".yaml", []byte(source))
	if err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	seeded, err := fixtures.NewSeeder(container.SiteService(), container.PageService(), container.PluginService()).
		Apply(context.Background(), manifest)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return testSite{container: container, seeded: seeded}
}

func (s testSite) resolver() *PageResolver {
	return NewPageResolver(s.container.SiteService(), s.container.PageService(), s.container.Languages())
}
