package fixtures

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cms-nav/internal/markdown"
)

var (
	ErrManifestFormat = errors.New("fixtures: unsupported manifest extension")
	ErrUnknownParent  = errors.New("fixtures: parent page not declared")
	ErrDuplicatePage  = errors.New("fixtures: page declared twice")
)

// Manifest describes a site and its page tree. Pages declared in Markdown
// documents are merged into Pages by Load.
type Manifest struct {
	Site      SiteSpec   `yaml:"site" toml:"site"`
	Documents string     `yaml:"documents" toml:"documents"`
	Pages     []PageSpec `yaml:"pages" toml:"pages"`
}

type SiteSpec struct {
	Domain string `yaml:"domain" toml:"domain"`
	Name   string `yaml:"name" toml:"name"`
}

// PageSpec declares one page. Key identifies the page inside the manifest
// and is what Parent refers to.
type PageSpec struct {
	Key                 string       `yaml:"key" toml:"key"`
	Parent              string       `yaml:"parent" toml:"parent"`
	Position            int          `yaml:"position" toml:"position"`
	ReverseID           string       `yaml:"reverse_id" toml:"reverse_id"`
	Template            string       `yaml:"template" toml:"template"`
	NavigationExtenders string       `yaml:"navigation_extenders" toml:"navigation_extenders"`
	SoftRoot            bool         `yaml:"soft_root" toml:"soft_root"`
	InNavigation        *bool        `yaml:"in_navigation" toml:"in_navigation"`
	Draft               bool         `yaml:"draft" toml:"draft"`
	Titles              []TitleSpec  `yaml:"titles" toml:"titles"`
	Plugins             []PluginSpec `yaml:"plugins" toml:"plugins"`
}

type TitleSpec struct {
	Language        string `yaml:"language" toml:"language"`
	Title           string `yaml:"title" toml:"title"`
	Slug            string `yaml:"slug" toml:"slug"`
	MenuTitle       string `yaml:"menu_title" toml:"menu_title"`
	PageTitle       string `yaml:"page_title" toml:"page_title"`
	MetaDescription string `yaml:"meta_description" toml:"meta_description"`
	MetaKeywords    string `yaml:"meta_keywords" toml:"meta_keywords"`
	Path            string `yaml:"path" toml:"path"`
	Redirect        string `yaml:"redirect" toml:"redirect"`
}

type PluginSpec struct {
	Language    string         `yaml:"language" toml:"language"`
	Placeholder string         `yaml:"placeholder" toml:"placeholder"`
	Type        string         `yaml:"type" toml:"type"`
	Data        map[string]any `yaml:"data" toml:"data"`
}

func (m *Manifest) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Site),
		validation.Field(&m.Pages),
	)
}

func (s SiteSpec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Domain, validation.Required),
	)
}

func (p PageSpec) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Key, validation.Required),
		validation.Field(&p.Titles, validation.Required),
		validation.Field(&p.Plugins),
	)
}

func (t TitleSpec) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Language, validation.Required),
		validation.Field(&t.Title, validation.Required),
	)
}

func (p PluginSpec) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Placeholder, validation.Required),
		validation.Field(&p.Type, validation.Required),
	)
}

// Page returns the page declared under key.
func (m *Manifest) Page(key string) (*PageSpec, bool) {
	for i := range m.Pages {
		if m.Pages[i].Key == key {
			return &m.Pages[i], true
		}
	}
	return nil, false
}

// Ordered returns the pages so that every parent precedes its children.
// Siblings keep their Position order, then declaration order.
func (m *Manifest) Ordered() ([]PageSpec, error) {
	known := make(map[string]struct{}, len(m.Pages))
	for _, page := range m.Pages {
		if _, dup := known[page.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePage, page.Key)
		}
		known[page.Key] = struct{}{}
	}
	for _, page := range m.Pages {
		if page.Parent == "" {
			continue
		}
		if _, ok := known[page.Parent]; !ok {
			return nil, fmt.Errorf("%w: %s (parent of %s)", ErrUnknownParent, page.Parent, page.Key)
		}
	}

	children := make(map[string][]PageSpec, len(m.Pages))
	for _, page := range m.Pages {
		children[page.Parent] = append(children[page.Parent], page)
	}
	for parent := range children {
		sort.SliceStable(children[parent], func(i, j int) bool {
			return children[parent][i].Position < children[parent][j].Position
		})
	}

	out := make([]PageSpec, 0, len(m.Pages))
	var walk func(parent string)
	walk = func(parent string) {
		for _, page := range children[parent] {
			out = append(out, page)
			walk(page.Key)
		}
	}
	walk("")
	if len(out) != len(m.Pages) {
		return nil, fmt.Errorf("%w: parent cycle", ErrUnknownParent)
	}
	return out, nil
}

type loadOptions struct {
	languages []string
}

type LoadOption func(*loadOptions)

// WithLanguages lists the language codes documents may carry. The first is
// used for documents that name none.
func WithLanguages(codes ...string) LoadOption {
	return func(o *loadOptions) {
		for _, code := range codes {
			if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
				o.languages = append(o.languages, code)
			}
		}
	}
}

// Load reads the manifest at name from fsys and merges the Markdown
// documents found under its documents directory.
func Load(fsys fs.FS, name string, opts ...LoadOption) (*Manifest, error) {
	options := loadOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if len(options.languages) == 0 {
		options.languages = []string{"en"}
	}

	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("fixtures: read %s: %w", name, err)
	}
	manifest, err := Decode(path.Ext(name), raw)
	if err != nil {
		return nil, fmt.Errorf("fixtures: %s: %w", name, err)
	}

	if dir := strings.Trim(strings.TrimSpace(manifest.Documents), "/"); dir != "" {
		if err := loadDocuments(fsys, path.Join(path.Dir(name), dir), manifest, options); err != nil {
			return nil, err
		}
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("fixtures: %s: %w", name, err)
	}
	return manifest, nil
}

// Decode parses a manifest. ext is a file extension such as ".toml".
func Decode(ext string, raw []byte) (*Manifest, error) {
	manifest := &Manifest{}
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(manifest); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case "toml":
		if _, err := toml.Decode(string(raw), manifest); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrManifestFormat, ext)
	}
	return manifest, nil
}

// loadDocuments turns every .md file under dir into a title and a
// markdown plugin. Files named key.lang.md are translations of key.
func loadDocuments(fsys fs.FS, dir string, manifest *Manifest, options loadOptions) error {
	files := make([]string, 0)
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(path.Ext(p), ".md") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("fixtures: walk %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("fixtures: read %s: %w", file, err)
		}
		meta, body, err := markdown.ParseFrontMatter(raw)
		if err != nil {
			return fmt.Errorf("fixtures: %s: %w", file, err)
		}
		key, language := documentKey(file, meta.Language, options.languages)
		page, ok := manifest.Page(key)
		if !ok {
			manifest.Pages = append(manifest.Pages, PageSpec{Key: key})
			page = &manifest.Pages[len(manifest.Pages)-1]
		}
		mergeDocument(page, meta, language, language == options.languages[0])

		if content := strings.TrimSpace(string(body)); content != "" {
			page.Plugins = append(page.Plugins, PluginSpec{
				Language:    language,
				Placeholder: meta.Placeholder,
				Type:        "markdown",
				Data:        map[string]any{"body": content},
			})
		}
	}
	return nil
}

// mergeDocument folds a document into page. Page flags come from the
// document in the primary language, or from the first one seen.
func mergeDocument(page *PageSpec, meta markdown.FrontMatter, language string, primary bool) {
	if primary || page.InNavigation == nil {
		inNavigation := meta.InNavigation
		page.InNavigation = &inNavigation
		page.Draft = meta.Draft
		page.SoftRoot = page.SoftRoot || meta.SoftRoot
	}
	if page.Parent == "" {
		page.Parent = meta.Parent
	}
	if page.ReverseID == "" {
		page.ReverseID = meta.ReverseID
	}
	if page.Template == "" {
		page.Template = meta.Template
	}
	if page.NavigationExtenders == "" {
		page.NavigationExtenders = meta.NavigationExtenders
	}
	if page.Position == 0 {
		page.Position = meta.Position
	}

	title := TitleSpec{
		Language:        language,
		Title:           meta.Title,
		Slug:            meta.Slug,
		MenuTitle:       meta.MenuTitle,
		PageTitle:       meta.PageTitle,
		MetaDescription: meta.MetaDescription,
		MetaKeywords:    meta.MetaKeywords,
		Path:            meta.Path,
		Redirect:        meta.Redirect,
	}
	for i := range page.Titles {
		if page.Titles[i].Language == language {
			page.Titles[i] = title
			return
		}
	}
	page.Titles = append(page.Titles, title)
}

// documentKey derives the page key and language of a document from its
// file name and front matter.
func documentKey(file, declared string, languages []string) (string, string) {
	base := strings.TrimSuffix(path.Base(file), path.Ext(file))
	language := strings.ToLower(strings.TrimSpace(declared))
	if idx := strings.LastIndex(base, "."); idx > 0 {
		suffix := strings.ToLower(base[idx+1:])
		if suffix == language || (language == "" && slices.Contains(languages, suffix)) {
			base = base[:idx]
			language = suffix
		}
	}
	if language == "" {
		language = languages[0]
	}
	return base, language
}
