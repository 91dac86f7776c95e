package http

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-cms-nav/internal/i18n"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/internal/sites"
)

// Incoming is the transport independent view of a page request.
type Incoming struct {
	Host           string
	Path           string
	Query          url.Values
	AcceptLanguage string
	Draft          bool
}

// PageResolver maps a host and path to the site, language and page that
// the navigation tags render against.
type PageResolver struct {
	sites      sites.Service
	pages      pages.Service
	languages  i18n.Config
	negotiator *i18n.Negotiator
	now        func() time.Time
}

type ResolverOption func(*PageResolver)

func WithResolverClock(clock func() time.Time) ResolverOption {
	return func(r *PageResolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

func NewPageResolver(siteSvc sites.Service, pageSvc pages.Service, languages i18n.Config, opts ...ResolverOption) *PageResolver {
	r := &PageResolver{
		sites:      siteSvc,
		pages:      pageSvc,
		languages:  languages,
		negotiator: i18n.NewNegotiator(languages),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the request for in. A leading language segment picks the
// language; otherwise it is negotiated from the query and headers. The
// remaining path is matched against title paths, with "/" meaning the
// home page. A miss returns a request without a current page together
// with pages.ErrPageNotFound.
func (r *PageResolver) Resolve(ctx context.Context, in Incoming) (*requests.Request, error) {
	site, err := r.sites.Resolve(ctx, in.Host)
	if err != nil {
		return nil, err
	}

	explicit, rest := r.splitLanguage(in.Path)
	req := &requests.Request{
		Path:  normalizePath(in.Path),
		Host:  in.Host,
		Query: in.Query,
		Site:  site,
		Draft: in.Draft,
		Now:   r.now().UTC(),
	}
	req.AcceptLanguage = in.AcceptLanguage
	req.Language = r.negotiator.Negotiate(i18n.NegotiationInput{
		Query:          req.QueryLanguage(),
		Explicit:       explicit,
		AcceptLanguage: in.AcceptLanguage,
	})

	page, err := r.match(ctx, site, rest, req.Language, req.Scope())
	if err != nil {
		return req, err
	}
	req.CurrentPage = page
	return req, nil
}

func (r *PageResolver) match(ctx context.Context, site *sites.Site, path, language string, scope pages.Scope) (*pages.Page, error) {
	if path == "" {
		return r.pages.Home(ctx, site.ID, scope)
	}
	records, err := r.pages.List(ctx, scope.Apply(pages.Query{SiteID: site.ID}))
	if err != nil {
		return nil, err
	}
	if err := r.pages.AttachTitles(ctx, records); err != nil {
		return nil, err
	}

	order := append([]string{language}, r.languages.Fallbacks(language)...)
	for _, lang := range order {
		for _, page := range records {
			title := page.TitleFor(lang)
			if title == nil {
				continue
			}
			if titlePath(title) == path {
				return page, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", pages.ErrPageNotFound, path)
}

// splitLanguage strips a leading supported language code from path and
// returns it with the remaining path, trimmed of slashes.
func (r *PageResolver) splitLanguage(path string) (string, string) {
	trimmed := strings.Trim(path, "/")
	head, tail, _ := strings.Cut(trimmed, "/")
	if head != "" && r.languages.Supports(head) {
		return i18n.NormalizeCode(head), tail
	}
	return "", trimmed
}

// titlePath is empty for the home page, which only "/" reaches.
func titlePath(title *pages.Title) string {
	return strings.Trim(title.Path, "/")
}

func normalizePath(path string) string {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	if path != "/" {
		path += "/"
	}
	return path
}

// IsNotFound reports whether err means no page matched.
func IsNotFound(err error) bool {
	return errors.Is(err, pages.ErrPageNotFound) || errors.Is(err, pages.ErrNoHomeFound)
}
