package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// FrontMatter holds the page attributes declared at the top of a page
// document.
type FrontMatter struct {
	Title               string
	Slug                string
	Language            string
	MenuTitle           string
	PageTitle           string
	MetaDescription     string
	MetaKeywords        string
	ReverseID           string
	Parent              string
	Position            int
	Template            string
	NavigationExtenders string
	Path                string
	Redirect            string
	Placeholder         string
	SoftRoot            bool
	InNavigation        bool
	Draft               bool
	Custom              map[string]any
}

// ParseFrontMatter extracts metadata and the Markdown body from source.
// in_navigation defaults to true and placeholder to "content".
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return envelopeToFrontMatter(meta), body, nil
}

type frontMatterEnvelope struct {
	Title               string         `yaml:"title"`
	Slug                string         `yaml:"slug"`
	Language            string         `yaml:"language"`
	MenuTitle           string         `yaml:"menu_title"`
	PageTitle           string         `yaml:"page_title"`
	MetaDescription     string         `yaml:"meta_description"`
	MetaKeywords        string         `yaml:"meta_keywords"`
	ReverseID           string         `yaml:"reverse_id"`
	Parent              string         `yaml:"parent"`
	Position            int            `yaml:"position"`
	Template            string         `yaml:"template"`
	NavigationExtenders string         `yaml:"navigation_extenders"`
	Path                string         `yaml:"path"`
	Redirect            string         `yaml:"redirect"`
	Placeholder         string         `yaml:"placeholder"`
	SoftRoot            bool           `yaml:"soft_root"`
	InNavigation        *bool          `yaml:"in_navigation"`
	Draft               bool           `yaml:"draft"`
	Custom              map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) FrontMatter {
	inNavigation := true
	if env.InNavigation != nil {
		inNavigation = *env.InNavigation
	}
	placeholder := strings.ToLower(strings.TrimSpace(env.Placeholder))
	if placeholder == "" {
		placeholder = "content"
	}
	return FrontMatter{
		Title:               strings.TrimSpace(env.Title),
		Slug:                strings.TrimSpace(env.Slug),
		Language:            strings.TrimSpace(env.Language),
		MenuTitle:           strings.TrimSpace(env.MenuTitle),
		PageTitle:           strings.TrimSpace(env.PageTitle),
		MetaDescription:     strings.TrimSpace(env.MetaDescription),
		MetaKeywords:        strings.TrimSpace(env.MetaKeywords),
		ReverseID:           strings.TrimSpace(env.ReverseID),
		Parent:              strings.TrimSpace(env.Parent),
		Position:            env.Position,
		Template:            strings.TrimSpace(env.Template),
		NavigationExtenders: strings.TrimSpace(env.NavigationExtenders),
		Path:                strings.TrimSpace(env.Path),
		Redirect:            strings.TrimSpace(env.Redirect),
		Placeholder:         placeholder,
		SoftRoot:            env.SoftRoot,
		InNavigation:        inNavigation,
		Draft:               env.Draft,
		Custom:              cloneMap(env.Custom),
	}
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
