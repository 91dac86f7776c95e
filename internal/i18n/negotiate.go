package i18n

import (
	"golang.org/x/text/language"
)

// NegotiationInput carries the language hints of a request in priority
// order.
type NegotiationInput struct {
	// Query is the ?language= parameter.
	Query string
	// Explicit is a language already chosen for the request, for example
	// from a URL prefix.
	Explicit string
	// AcceptLanguage is the raw Accept-Language header.
	AcceptLanguage string
	// PageLanguages are the languages the current page is available in.
	PageLanguages []string
}

// Negotiator picks the language of a request.
type Negotiator struct {
	cfg     Config
	tags    []language.Tag
	codes   []string
	matcher language.Matcher
}

func NewNegotiator(cfg Config) *Negotiator {
	n := &Negotiator{cfg: cfg}
	codes := cfg.Codes()
	// The default language goes first so the matcher falls back to it.
	if cfg.DefaultLocale != "" {
		n.codes = append(n.codes, cfg.DefaultLocale)
	}
	for _, code := range codes {
		if code != cfg.DefaultLocale {
			n.codes = append(n.codes, code)
		}
	}
	for _, code := range n.codes {
		tag, err := language.Parse(code)
		if err != nil {
			tag = language.Und
		}
		n.tags = append(n.tags, tag)
	}
	if len(n.tags) > 0 {
		n.matcher = language.NewMatcher(n.tags)
	}
	return n
}

// Negotiate returns the first supported language from the query parameter,
// the explicit choice, the Accept-Language header and the page languages.
// Without a match it returns the default language.
func (n *Negotiator) Negotiate(in NegotiationInput) string {
	for _, candidate := range []string{in.Query, in.Explicit} {
		if n.cfg.Supports(candidate) {
			return NormalizeCode(candidate)
		}
	}
	if code, ok := n.fromHeader(in.AcceptLanguage); ok {
		return code
	}
	for _, candidate := range in.PageLanguages {
		if n.cfg.Supports(candidate) {
			return NormalizeCode(candidate)
		}
	}
	return n.cfg.DefaultLocale
}

func (n *Negotiator) fromHeader(header string) (string, bool) {
	if n.matcher == nil || header == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, index, confidence := n.matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(n.codes) {
		return "", false
	}
	return n.codes[index], true
}
