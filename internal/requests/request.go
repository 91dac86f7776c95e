package requests

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/permissions"
	"github.com/goliatone/go-cms-nav/internal/sites"
)

// Request is the view of an incoming page request that navigation and
// placeholder rendering work from.
type Request struct {
	Path           string
	Host           string
	Language       string
	AcceptLanguage string
	Query          url.Values

	Site        *sites.Site
	CurrentPage *pages.Page

	// Dummy marks a request rendered as an edit-mode stand in. Every tag
	// renders nothing for it.
	Dummy bool
	// Draft requests see unpublished pages.
	Draft bool

	// LanguageChanger returns the path of the current view in another
	// language. Views that are not pages set it so language links work.
	LanguageChanger func(lang string) string

	// User answers permission checks for the requesting user. Nil denies
	// every edit permission.
	User permissions.Checker

	Now time.Time
}

// SiteID returns the site of the request, falling back to the site of
// the current page.
func (r *Request) SiteID() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	if r.Site != nil {
		return r.Site.ID
	}
	if r.CurrentPage != nil {
		return r.CurrentPage.SiteID
	}
	return uuid.Nil
}

// SiteDomain returns the domain of the site, or the request host.
func (r *Request) SiteDomain() string {
	if r == nil {
		return ""
	}
	if r.Site != nil && r.Site.Domain != "" {
		return r.Site.Domain
	}
	return r.Host
}

// Scope returns the page visibility of the request.
func (r *Request) Scope() pages.Scope {
	if r == nil {
		return pages.Scope{}
	}
	return pages.Scope{Draft: r.Draft, Now: r.Now}
}

// QueryLanguage returns the ?language= parameter.
func (r *Request) QueryLanguage() string {
	if r == nil || r.Query == nil {
		return ""
	}
	return strings.TrimSpace(r.Query.Get("language"))
}

// IsDummy reports whether tags should render nothing.
func (r *Request) IsDummy() bool {
	return r != nil && r.Dummy
}

// HasCurrentPage reports whether the request resolved to a page.
func (r *Request) HasCurrentPage() bool {
	return r != nil && !r.Dummy && r.CurrentPage != nil
}

// URL rebuilds the absolute URL of the request for notifications.
func (r *Request) URL() string {
	if r == nil {
		return ""
	}
	u := url.URL{Scheme: "http", Host: r.SiteDomain(), Path: r.Path}
	return u.String()
}

// Context binds the request user to ctx for permission checks.
func (r *Request) Context(ctx context.Context) context.Context {
	if r == nil || r.User == nil {
		return ctx
	}
	return permissions.WithChecker(ctx, r.User)
}

// WithContextUser returns a copy of the request whose User is the checker
// bound on ctx. Requests that already carry a user are returned as is.
func (r *Request) WithContextUser(ctx context.Context) *Request {
	if r == nil || r.User != nil {
		return r
	}
	checker := permissions.CheckerFromContext(ctx)
	if checker == nil {
		return r
	}
	clone := *r
	clone.User = checker
	return &clone
}

// WithPage returns a copy of the request positioned on page.
func (r *Request) WithPage(page *pages.Page) *Request {
	if r == nil {
		return &Request{CurrentPage: page}
	}
	clone := *r
	clone.CurrentPage = page
	return &clone
}

type contextKey struct{}

// NewContext stores req on ctx.
func NewContext(ctx context.Context, req *Request) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, req)
}

// FromContext returns the request stored on ctx.
func FromContext(ctx context.Context) (*Request, bool) {
	if ctx == nil {
		return nil, false
	}
	req, ok := ctx.Value(contextKey{}).(*Request)
	return req, ok && req != nil
}

// SamePath compares request paths ignoring a trailing slash and case of
// the scheme-less path.
func SamePath(a, b string) bool {
	return trimPath(a) == trimPath(b)
}

func trimPath(p string) string {
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimSpace(p)
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "/"
	}
	return p
}
