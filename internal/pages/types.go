package pages

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Page is a node of a site's page tree. Tree fields follow the nested-set
// layout: descendants of a page share its TreeID and have Lft/Rght inside
// the page's interval.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID                  uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	SiteID              uuid.UUID  `bun:"site_id,notnull,type:uuid" json:"site_id"`
	ParentID            *uuid.UUID `bun:"parent_id,type:uuid" json:"parent_id,omitempty"`
	TreeID              int        `bun:"tree_id,notnull" json:"tree_id"`
	Lft                 int        `bun:"lft,notnull" json:"lft"`
	Rght                int        `bun:"rght,notnull" json:"rght"`
	Level               int        `bun:"level,notnull" json:"level"`
	Position            int        `bun:"position,notnull" json:"position"`
	ReverseID           string     `bun:"reverse_id,nullzero" json:"reverse_id,omitempty"`
	SoftRoot            bool       `bun:"soft_root,notnull" json:"soft_root"`
	InNavigation        bool       `bun:"in_navigation,notnull" json:"in_navigation"`
	NavigationExtenders string     `bun:"navigation_extenders,nullzero" json:"navigation_extenders,omitempty"`
	Published           bool       `bun:"published,notnull" json:"published"`
	PublishAt           *time.Time `bun:"publish_at,nullzero" json:"publish_at,omitempty"`
	UnpublishAt         *time.Time `bun:"unpublish_at,nullzero" json:"unpublish_at,omitempty"`
	Template            string     `bun:"template,nullzero" json:"template,omitempty"`
	CreatedAt           time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt           time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
	Titles              []*Title   `bun:"-" json:"titles,omitempty"`
}

// Title stores the per-language attributes of a page.
type Title struct {
	bun.BaseModel `bun:"table:titles,alias:t"`

	ID              uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID          uuid.UUID `bun:"page_id,notnull,type:uuid" json:"page_id"`
	Language        string    `bun:"language,notnull" json:"language"`
	Title           string    `bun:"title,notnull" json:"title"`
	Slug            string    `bun:"slug,notnull" json:"slug"`
	Path            string    `bun:"path,notnull" json:"path"`
	MenuTitle       string    `bun:"menu_title,nullzero" json:"menu_title,omitempty"`
	PageTitle       string    `bun:"page_title,nullzero" json:"page_title,omitempty"`
	MetaDescription string    `bun:"meta_description,nullzero" json:"meta_description,omitempty"`
	MetaKeywords    string    `bun:"meta_keywords,nullzero" json:"meta_keywords,omitempty"`
	HasURLOverwrite bool      `bun:"has_url_overwrite,notnull" json:"has_url_overwrite"`
	Redirect        string    `bun:"redirect,nullzero" json:"redirect,omitempty"`
	CreatedAt       time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Query filters page listings. Results are ordered by tree and lft.
type Query struct {
	SiteID        uuid.UUID
	PublishedOnly bool
	Now           time.Time
	InNavigation  *bool
	MaxLevel      *int
	Under         *Page
	AncestorsOf   *Page
	Language      string
	WithExtenders bool
	RootsOnly     bool
	IDs           []uuid.UUID
}

// Scope selects what a request may see. Draft scopes (edit and preview
// requests) include unpublished pages.
type Scope struct {
	Draft bool
	Now   time.Time
}

// Apply narrows q to the pages visible in the scope.
func (s Scope) Apply(q Query) Query {
	if !s.Draft {
		q.PublishedOnly = true
		if q.Now.IsZero() {
			q.Now = s.Now
		}
	}
	return q
}

// IsPublishedAt reports whether the page is live at now.
func (p *Page) IsPublishedAt(now time.Time) bool {
	if p == nil || !p.Published {
		return false
	}
	if now.IsZero() {
		now = time.Now()
	}
	if p.PublishAt != nil && p.PublishAt.After(now) {
		return false
	}
	if p.UnpublishAt != nil && !p.UnpublishAt.After(now) {
		return false
	}
	return true
}

// IsAncestorOf reports whether p contains other in its subtree.
func (p *Page) IsAncestorOf(other *Page) bool {
	if p == nil || other == nil {
		return false
	}
	return p.TreeID == other.TreeID && p.Lft < other.Lft && p.Rght > other.Rght
}

// Languages lists the languages the page has titles in.
func (p *Page) Languages() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Titles))
	for _, title := range p.Titles {
		if title != nil {
			out = append(out, title.Language)
		}
	}
	return out
}

// TitleFor returns the title in language. When no title matches and
// fallbacks is not empty, the fallback languages are tried in order and
// then any title at all.
func (p *Page) TitleFor(language string, fallbacks ...string) *Title {
	if p == nil {
		return nil
	}
	if title := p.exactTitle(language); title != nil {
		return title
	}
	if len(fallbacks) == 0 {
		return nil
	}
	for _, lang := range fallbacks {
		if title := p.exactTitle(lang); title != nil {
			return title
		}
	}
	for _, title := range p.Titles {
		if title != nil {
			return title
		}
	}
	return nil
}

func (p *Page) exactTitle(language string) *Title {
	for _, title := range p.Titles {
		if title != nil && strings.EqualFold(title.Language, language) {
			return title
		}
	}
	return nil
}

// Attribute names accepted by TitleAttribute.
const (
	AttributeTitle           = "title"
	AttributeSlug            = "slug"
	AttributeMetaDescription = "meta_description"
	AttributeMetaKeywords    = "meta_keywords"
	AttributePageTitle       = "page_title"
	AttributeMenuTitle       = "menu_title"
)

// TitleAttribute reads a named attribute from t. page_title and menu_title
// fall back to the title when empty. Unknown names report false.
func TitleAttribute(t *Title, name string) (string, bool) {
	if t == nil {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case AttributeTitle:
		return t.Title, true
	case AttributeSlug:
		return t.Slug, true
	case AttributeMetaDescription:
		return t.MetaDescription, true
	case AttributeMetaKeywords:
		return t.MetaKeywords, true
	case AttributePageTitle:
		if t.PageTitle != "" {
			return t.PageTitle, true
		}
		return t.Title, true
	case AttributeMenuTitle:
		if t.MenuTitle != "" {
			return t.MenuTitle, true
		}
		return t.Title, true
	default:
		return "", false
	}
}
