package http

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-cms-nav/internal/adapters/noop"
	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/internal/permissions"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// DefaultPageTemplate renders pages that name no template.
const DefaultPageTemplate = "cms/page.html"

// PageRenderer renders a named template for a resolved request.
type PageRenderer interface {
	RenderPage(ctx context.Context, name string, req *requests.Request, data map[string]any) (string, error)
}

// SiteHandler serves rendered pages over fiber.
type SiteHandler struct {
	resolver *PageResolver
	renderer PageRenderer
	template string
	logger   interfaces.Logger
	auth     interfaces.AuthProvider
	// previewParam enables draft rendering when present in the query.
	previewParam string
}

type SiteOption func(*SiteHandler)

func WithDefaultTemplate(name string) SiteOption {
	return func(h *SiteHandler) {
		if name = strings.TrimSpace(name); name != "" {
			h.template = name
		}
	}
}

func WithSiteLogger(logger interfaces.Logger) SiteOption {
	return func(h *SiteHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithAuthProvider sets who the visitor is when the request context carries
// no permission checker. Defaults to an anonymous visitor.
func WithAuthProvider(provider interfaces.AuthProvider) SiteOption {
	return func(h *SiteHandler) {
		if provider != nil {
			h.auth = provider
		}
	}
}

// WithPreviewParam names the query parameter that shows unpublished pages.
// An empty name disables previews.
func WithPreviewParam(name string) SiteOption {
	return func(h *SiteHandler) {
		h.previewParam = strings.TrimSpace(name)
	}
}

func NewSiteHandler(resolver *PageResolver, renderer PageRenderer, opts ...SiteOption) *SiteHandler {
	h := &SiteHandler{
		resolver:     resolver,
		renderer:     renderer,
		template:     DefaultPageTemplate,
		logger:       logging.NoOp(),
		auth:         noop.Auth(),
		previewParam: "preview",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the handler as the catch all GET route of app.
func (h *SiteHandler) Register(app fiber.Router) {
	app.Get("/*", h.Handle)
}

func (h *SiteHandler) Handle(c *fiber.Ctx) error {
	query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	in := Incoming{
		Host:           c.Hostname(),
		Path:           c.Path(),
		Query:          query,
		AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
	}
	if h.previewParam != "" {
		_, in.Draft = query[h.previewParam]
	}

	ctx := logging.ContextWithFields(c.UserContext(), map[string]any{"host": in.Host})
	if permissions.CheckerFromContext(ctx) == nil {
		ctx = permissions.WithAuthProvider(ctx, h.auth)
	}
	logger := h.logger.WithContext(ctx)
	req, err := h.resolver.Resolve(ctx, in)
	if err != nil {
		if IsNotFound(err) {
			return fiber.NewError(fiber.StatusNotFound, "page not found")
		}
		status, _ := mapError(err)
		return fiber.NewError(status, err.Error())
	}

	template := h.template
	if name := strings.TrimSpace(req.CurrentPage.Template); name != "" {
		template = name
	}
	html, err := h.renderer.RenderPage(requests.NewContext(ctx, req), template, req, nil)
	if err != nil {
		logger.Error("http.page.render_failed", "path", req.Path, "template", template, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "render failed")
	}

	logging.WithRequestContext(logger, req.Path, req.Language, req.CurrentPage.ReverseID).Debug("http.page.rendered")
	c.Set(fiber.HeaderContentLanguage, req.Language)
	c.Type("html", "utf-8")
	return c.SendString(html)
}
