package tags

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-nav/internal/requests"
)

const DefaultLanguageChooserTemplate = "cms/language_chooser.html"

// PageIDURLKey is the cache key of a page_id_url lookup.
func PageIDURLKey(reverseID, lang string) string {
	return "page_id_url_pid:" + reverseID + "_l:" + lang + "_type:absolute_url"
}

// PageIDURL returns the url of the page carrying reverseID. Unknown ids
// notify the site managers and render empty.
func (l *Library) PageIDURL(ctx context.Context, req *requests.Request, reverseID, lang string) (Context, error) {
	if req == nil || req.IsDummy() {
		return content(""), nil
	}
	if strings.TrimSpace(lang) == "" {
		lang = l.Language(req)
	}
	key := PageIDURLKey(reverseID, lang)
	if url, ok := l.cached(ctx, key); ok {
		return content(url), nil
	}

	page, err := l.pages.GetByReverseID(ctx, req.SiteID(), reverseID, req.Scope())
	if err != nil {
		l.reportMissing(ctx, req, reverseID)
		return content(""), nil
	}
	url, err := l.pages.AbsoluteURL(ctx, page, lang, true)
	if err != nil {
		l.logger.Warn("tags.page_id_url.url_failed", "reverse_id", reverseID, "language", lang, "error", err)
		l.reportMissing(ctx, req, reverseID)
		return content(""), nil
	}
	l.store(ctx, key, url)
	return content(url), nil
}

// PageLanguageURL returns the url of the current view in lang. Views with
// a language changer use it; pages use their own url in lang.
func (l *Library) PageLanguageURL(ctx context.Context, req *requests.Request, lang string) (Context, error) {
	if req == nil || req.IsDummy() {
		return content(""), nil
	}
	lang = strings.TrimSpace(lang)
	prefix := "/" + lang
	if req.LanguageChanger != nil {
		return content(prefix + req.LanguageChanger(lang)), nil
	}
	if req.CurrentPage == nil {
		return content(prefix + "/"), nil
	}
	url, err := l.pages.AbsoluteURL(ctx, req.CurrentPage, lang, !l.languages.HideUntranslated)
	if err != nil {
		return content(prefix + "/"), nil
	}
	if strings.Contains(url, "://") {
		return content(url), nil
	}
	return content(prefix + url), nil
}

// LanguageChooser returns the configured languages and the active one.
func (l *Library) LanguageChooser(_ context.Context, req *requests.Request, template string) (Context, error) {
	if req == nil {
		return Context{}, nil
	}
	if template == "" {
		template = DefaultLanguageChooserTemplate
	}
	return Context{
		"languages": l.Languages(),
		"lang":      l.Language(req),
		"template":  template,
		"request":   req,
	}, nil
}
