package tags

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-nav/internal/plugins"
)

var ErrTemplateSyntax = errors.New("tags: template syntax error")

const templateSyntaxCode = "TEMPLATE_SYNTAX_ERROR"

func syntaxError(tag, requirement string) error {
	return goerrors.Wrap(fmt.Errorf("%w: %s tag requires %s", ErrTemplateSyntax, tag, requirement),
		goerrors.CategoryValidation, "invalid template tag").
		WithTextCode(templateSyntaxCode)
}

// PlaceholderArgs are the arguments of a placeholder tag.
type PlaceholderArgs struct {
	Name   string
	Widget string
}

// ParsePlaceholderArgs parses the split contents of a placeholder tag,
// tag name first: {% placeholder name [widget] %}.
func ParsePlaceholderArgs(bits []string) (PlaceholderArgs, error) {
	switch len(bits) {
	case 2:
		return PlaceholderArgs{Name: plugins.NormalizePlaceholder(bits[1])}, nil
	case 3:
		return PlaceholderArgs{
			Name:   plugins.NormalizePlaceholder(bits[1]),
			Widget: strings.Trim(bits[2], `"'`),
		}, nil
	default:
		return PlaceholderArgs{}, syntaxError(tagName(bits, "placeholder"), "one or two arguments")
	}
}

// ParsePageAttributeArgs parses {% page_attribute name %}.
func ParsePageAttributeArgs(bits []string) (string, error) {
	if len(bits) != 2 {
		return "", syntaxError(tagName(bits, "page_attribute"), "one argument")
	}
	return strings.ToLower(strings.Trim(strings.TrimSpace(bits[1]), `"'`)), nil
}

func tagName(bits []string, fallback string) string {
	if len(bits) > 0 && bits[0] != "" {
		return bits[0]
	}
	return fallback
}
