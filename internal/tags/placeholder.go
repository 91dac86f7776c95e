package tags

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/requests"
)

const placeholderMissingCode = "PLACEHOLDER_PAGE_NOT_FOUND"

// PlaceholderByIDKey is the cache key of a show_placeholder_by_id fragment.
func PlaceholderByIDKey(reverseID, name, lang string) string {
	return "show_placeholder_by_id_pid:" + reverseID + "placeholder:" + name + "_l:" + lang
}

// Placeholder renders the plugins of the current page in the named
// placeholder. values is the surrounding template context.
func (l *Library) Placeholder(ctx context.Context, req *requests.Request, name string, values map[string]any) (string, error) {
	if !req.HasCurrentPage() || l.plugins == nil {
		return "", nil
	}
	lang := l.Language(req)
	return l.renderPlaceholder(ctx, req, req.CurrentPage, plugins.NormalizePlaceholder(name), lang, values)
}

// ShowPlaceholderByID renders a placeholder of the page carrying reverseID.
// The fragment is cached. In debug mode an unknown id is an error;
// otherwise managers are notified and nothing renders.
func (l *Library) ShowPlaceholderByID(ctx context.Context, req *requests.Request, name, reverseID, lang string, values map[string]any) (Context, error) {
	if req == nil || req.IsDummy() || l.plugins == nil {
		return content(""), nil
	}
	if lang == "" {
		lang = l.Language(req)
	}
	name = plugins.NormalizePlaceholder(name)
	key := PlaceholderByIDKey(reverseID, name, lang)
	if html, ok := l.cached(ctx, key); ok {
		return content(html), nil
	}

	page, err := l.pages.GetByReverseID(ctx, req.SiteID(), reverseID, req.Scope())
	if err != nil {
		if l.debug {
			return content(""), goerrors.Wrap(err, goerrors.CategoryNotFound, fmt.Sprintf("show_placeholder_by_id: no page with reverse id %q", reverseID)).
				WithTextCode(placeholderMissingCode)
		}
		l.reportMissing(ctx, req, reverseID)
		return content(""), nil
	}
	html, err := l.renderPlaceholder(ctx, req, page, name, lang, values)
	if err != nil {
		return content(""), err
	}
	l.store(ctx, key, html)
	return content(html), nil
}

func (l *Library) renderPlaceholder(ctx context.Context, req *requests.Request, page *pages.Page, name, lang string, values map[string]any) (string, error) {
	merged := l.renderValues(name, values)
	merged["request"] = req
	merged["page"] = page
	merged["lang"] = lang
	html, err := l.plugins.RenderPlaceholder(ctx, plugins.Slot{PageID: page.ID, Language: lang, Placeholder: name}, merged)
	if err != nil {
		l.logger.Error("tags.placeholder.render_failed", "placeholder", name, "page_id", page.ID.String(), "error", err)
		return "", err
	}
	return html, nil
}

// PageAttribute returns a title attribute of the current page in the
// request language, falling back to other languages.
func (l *Library) PageAttribute(ctx context.Context, req *requests.Request, name string) string {
	if !req.HasCurrentPage() {
		return ""
	}
	page := req.CurrentPage
	if len(page.Titles) == 0 {
		if err := l.pages.AttachTitles(ctx, []*pages.Page{page}); err != nil {
			l.logger.Warn("tags.page_attribute.titles_failed", "page_id", page.ID.String(), "error", err)
			return ""
		}
	}
	lang := l.Language(req)
	value, _ := pages.TitleAttribute(page.TitleFor(lang, l.fallbacks(lang)...), name)
	return value
}
