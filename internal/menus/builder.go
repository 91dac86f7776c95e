package menus

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

const (
	DefaultMenuTemplate       = "cms/menu.html"
	DefaultSubMenuTemplate    = "cms/sub_menu.html"
	DefaultBreadcrumbTemplate = "cms/breadcrumb.html"

	// DefaultToLevel is deep enough to render any tree.
	DefaultToLevel = 100
)

// MenuOptions mirrors the arguments of the show_menu tag.
type MenuOptions struct {
	FromLevel     int
	ToLevel       int
	ExtraInactive int
	ExtraActive   int
	// RootID is the reverse id of the page the menu starts below.
	RootID   string
	Template string
	// NextPage renders the children of an already built node. Menu
	// templates use it to recurse.
	NextPage *Node
}

// DefaultMenuOptions returns the show_menu defaults.
func DefaultMenuOptions() MenuOptions {
	return MenuOptions{
		FromLevel:     0,
		ToLevel:       DefaultToLevel,
		ExtraInactive: 0,
		ExtraActive:   DefaultToLevel,
		Template:      DefaultMenuTemplate,
	}
}

// Menu is the template context of a rendered menu.
type Menu struct {
	Children      []*Node
	Template      string
	FromLevel     int
	ToLevel       int
	ExtraInactive int
	ExtraActive   int
}

// Context returns the inclusion context keys menu templates read.
func (m Menu) Context() map[string]any {
	return map[string]any{
		"children":       m.Children,
		"template":       m.Template,
		"from_level":     m.FromLevel,
		"to_level":       m.ToLevel,
		"extra_inactive": m.ExtraInactive,
		"extra_active":   m.ExtraActive,
	}
}

// Breadcrumb is the template context of a breadcrumb trail.
type Breadcrumb struct {
	Ancestors []*Node
	Template  string
}

func (b Breadcrumb) Context() map[string]any {
	return map[string]any{
		"ancestors": b.Ancestors,
		"template":  b.Template,
	}
}

// MissingReverseIDFunc is called when a menu names a reverse id that does
// not resolve.
type MissingReverseIDFunc func(ctx context.Context, req *requests.Request, reverseID string)

type BuilderOption func(*Builder)

func WithExtenders(registry *Registry) BuilderOption {
	return func(b *Builder) {
		b.extenders = registry
	}
}

func WithLogger(logger interfaces.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSoftRoots toggles soft-root handling. Enabled by default.
func WithSoftRoots(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.softRoots = enabled
	}
}

// WithHideUntranslated limits menus to pages titled in the request
// language.
func WithHideUntranslated(hide bool) BuilderOption {
	return func(b *Builder) {
		b.hideUntranslated = hide
	}
}

func WithDefaultLanguage(lang string) BuilderOption {
	return func(b *Builder) {
		if trimmed := strings.TrimSpace(lang); trimmed != "" {
			b.defaultLanguage = trimmed
		}
	}
}

// WithFallbackLanguages sets the languages tried for node titles when the
// request language is missing.
func WithFallbackLanguages(languages ...string) BuilderOption {
	return func(b *Builder) {
		b.fallbacks = append([]string(nil), languages...)
	}
}

func WithMissingReverseID(fn MissingReverseIDFunc) BuilderOption {
	return func(b *Builder) {
		b.onMissing = fn
	}
}

// Builder assembles menus and breadcrumbs from the page tree.
type Builder struct {
	pages            pages.Service
	extenders        *Registry
	logger           interfaces.Logger
	softRoots        bool
	hideUntranslated bool
	defaultLanguage  string
	fallbacks        []string
	onMissing        MissingReverseIDFunc
}

func NewBuilder(svc pages.Service, opts ...BuilderOption) *Builder {
	b := &Builder{
		pages:           svc,
		logger:          logging.NoOp(),
		softRoots:       true,
		defaultLanguage: "en",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Extenders returns the extender registry, if any.
func (b *Builder) Extenders() *Registry {
	return b.extenders
}

// Menu builds the navigation for req.
func (b *Builder) Menu(ctx context.Context, req *requests.Request, opts MenuOptions) (Menu, error) {
	if opts.Template == "" {
		opts.Template = DefaultMenuTemplate
	}
	menu := Menu{
		Template:      opts.Template,
		FromLevel:     opts.FromLevel,
		ToLevel:       opts.ToLevel,
		ExtraInactive: opts.ExtraInactive,
		ExtraActive:   opts.ExtraActive,
	}
	if req == nil || req.IsDummy() {
		return menu, nil
	}
	if opts.NextPage != nil {
		menu.Children = opts.NextPage.Children
		return menu, nil
	}

	lang := b.language(req)
	siteID := req.SiteID()
	scope := req.Scope()
	current := req.CurrentPage

	homeID, err := b.homeID(ctx, siteID, scope)
	if err != nil {
		return menu, err
	}

	var active []*pages.Page
	if current != nil {
		active, err = b.pages.Ancestors(ctx, current)
	} else {
		active, err = b.extenderPath(ctx, req, homeID, opts.ToLevel)
	}
	if err != nil {
		return menu, err
	}

	ancestorIDs := make([]string, 0, len(active))
	var softRoot *pages.Page
	for _, page := range active {
		ancestorIDs = append(ancestorIDs, page.ID.String())
		if page.SoftRoot && b.softRoots {
			softRoot = page
		}
	}

	var root *pages.Page
	switch {
	case strings.TrimSpace(opts.RootID) != "":
		rid := strings.TrimSpace(opts.RootID)
		page, err := b.pages.GetByReverseID(ctx, siteID, rid, scope)
		if err != nil {
			b.logger.Warn("menus.root.missing", "reverse_id", rid, "error", err)
			b.missing(ctx, req, rid)
		} else {
			root = page
		}
	case current != nil && current.SoftRoot && b.softRoots:
		root = current
		softRoot = current
	case softRoot != nil:
		root = softRoot
	}

	inNav := true
	maxLevel := opts.ToLevel
	dbFromLevel := opts.FromLevel
	query := pages.Query{SiteID: siteID, InNavigation: &inNav}
	if root != nil {
		query.Under = root
		maxLevel = root.Level + opts.ToLevel
		dbFromLevel = root.Level + opts.FromLevel
	}
	query.MaxLevel = &maxLevel
	if b.hideUntranslated {
		query.Language = lang
	}
	records, err := b.pages.List(ctx, scope.Apply(query))
	if err != nil {
		return menu, err
	}
	if root != nil {
		records = append([]*pages.Page{root}, records...)
	}
	if err := b.pages.AttachTitles(ctx, records); err != nil {
		return menu, err
	}
	nodes := newPageNodes(records)

	selectedID := ""
	if current != nil {
		selectedID = current.ID.String()
	}
	walk := WalkOptions{
		Ancestors:  ancestorIDs,
		SelectedID: selectedID,
		SoftRoots:  b.softRoots,
		ToLevels:   opts.ToLevel,
		Extend:     b.extend(ctx, req, opts.ExtraActive),
	}

	var children []*Node
	for _, node := range nodes {
		if node.Level != 0 && (root == nil || node.Level != root.Level) {
			continue
		}
		if node.Page.ParentID != nil {
			chain, err := b.chainNodes(ctx, node.Page, lang, homeID)
			if err != nil {
				return menu, err
			}
			node.AncestorsAscending = chain
		}
		node.HomeID = homeID
		node.MenuLevel = -opts.FromLevel
		node.Selected = node.ID == selectedID
		restore := softRoot != nil && node.PageID == softRoot.ID && node.SoftRoot
		if restore {
			node.SoftRoot = false
		}
		FindChildren(node, nodes, opts.ExtraInactive, opts.ExtraActive, walk)
		if restore {
			node.SoftRoot = true
		}
		children = append(children, node)
	}
	if dbFromLevel > 0 {
		children = CutLevels(children, dbFromLevel)
	}

	onPath := make(map[uuid.UUID]bool, len(active))
	for _, page := range active {
		onPath[page.ID] = true
	}
	for _, node := range nodes {
		b.decorate(ctx, node, lang, homeID)
		if onPath[node.PageID] {
			node.Ancestor = true
		}
		if current == nil {
			continue
		}
		if node.PageID == current.ID {
			node.Selected = true
		} else if sameParent(node.Page.ParentID, current.ParentID) {
			node.Sibling = true
		}
	}

	menu.Children = children
	b.logger.Debug("menus.menu.built", "site_id", siteID.String(), "language", lang, "pages", len(records), "root", rootLabel(root))
	return menu, nil
}

// SubMenu renders the children of the current page, levels deep. Without
// a current page it renders below the selected extender entry.
func (b *Builder) SubMenu(ctx context.Context, req *requests.Request, levels int, template string) (Menu, error) {
	if template == "" {
		template = DefaultSubMenuTemplate
	}
	menu := Menu{Template: template}
	if req == nil || req.IsDummy() {
		return menu, nil
	}

	lang := b.language(req)
	scope := req.Scope()
	homeID, err := b.homeID(ctx, req.SiteID(), scope)
	if err != nil {
		return menu, err
	}

	page := req.CurrentPage
	if page == nil {
		selected, err := b.selectedExtension(ctx, req, homeID, levels)
		if err != nil || selected == nil {
			return menu, err
		}
		menu.Children = selected.Children
		menu.FromLevel = selected.Level
		menu.ToLevel = selected.Level + levels
		menu.ExtraActive = levels
		menu.ExtraInactive = levels
		return menu, nil
	}

	inNav := true
	maxLevel := page.Level + levels
	query := pages.Query{SiteID: page.SiteID, InNavigation: &inNav, MaxLevel: &maxLevel, Under: page}
	if b.hideUntranslated {
		query.Language = lang
	}
	records, err := b.pages.List(ctx, scope.Apply(query))
	if err != nil {
		return menu, err
	}
	if err := b.pages.AttachTitles(ctx, records); err != nil {
		return menu, err
	}
	nodes := newPageNodes(records)
	for _, node := range nodes {
		node.Descendant = true
	}

	target := newPageNode(page)
	target.Selected = true
	target.MenuLevel = -1
	target.HomeID = homeID
	target.SoftRoot = false
	chain, err := b.chainNodes(ctx, page, lang, homeID)
	if err != nil {
		return menu, err
	}
	target.AncestorsAscending = chain

	FindChildren(target, nodes, levels, levels, WalkOptions{
		SelectedID: target.ID,
		SoftRoots:  b.softRoots,
		ToLevels:   DefaultToLevel,
		Extend:     b.extend(ctx, req, levels),
	})
	for _, node := range nodes {
		b.decorate(ctx, node, lang, homeID)
	}

	menu.Children = target.Children
	menu.FromLevel = page.Level
	menu.ToLevel = page.Level + levels
	menu.ExtraActive = levels
	menu.ExtraInactive = levels
	return menu, nil
}

// Breadcrumb returns the path from the home page to the current page.
// Crumbs below startLevel are dropped.
func (b *Builder) Breadcrumb(ctx context.Context, req *requests.Request, startLevel int, template string) (Breadcrumb, error) {
	if template == "" {
		template = DefaultBreadcrumbTemplate
	}
	crumb := Breadcrumb{Template: template}
	if req == nil || req.IsDummy() {
		return crumb, nil
	}

	lang := b.language(req)
	scope := req.Scope()
	home, err := b.pages.Home(ctx, req.SiteID(), scope)
	if err != nil && !errors.Is(err, pages.ErrNoHomeFound) {
		return crumb, err
	}
	homeID := uuid.Nil
	if home != nil {
		homeID = home.ID
	}

	var trail []*Node
	if page := req.CurrentPage; page != nil {
		trail, err = b.trail(ctx, page, home, lang)
		if err != nil {
			return crumb, err
		}
		if n := len(trail); n > 0 {
			trail[n-1].Selected = true
		}
	} else {
		ext, selected, err := b.findExtension(ctx, req, homeID, -1, 0)
		if err != nil {
			return crumb, err
		}
		if selected != nil {
			trail, err = b.trail(ctx, ext, home, lang)
			if err != nil {
				return crumb, err
			}
			if len(selected.AncestorsAscending) > 1 {
				trail = append(trail, selected.AncestorsAscending[1:]...)
			}
			trail = append(trail, selected)
		}
	}

	for _, node := range trail {
		if node.Level >= startLevel {
			crumb.Ancestors = append(crumb.Ancestors, node)
		}
	}
	return crumb, nil
}

// trail builds ancestor nodes of page, page included, with home first.
func (b *Builder) trail(ctx context.Context, page *pages.Page, home *pages.Page, lang string) ([]*Node, error) {
	chain, err := b.pages.Ancestors(ctx, page)
	if err != nil {
		return nil, err
	}
	chain = append(chain, page)
	if home != nil && chain[0].ID != home.ID {
		chain = append([]*pages.Page{home}, chain...)
	}
	homeID := uuid.Nil
	if home != nil {
		homeID = home.ID
	}
	out, err := b.wrapChain(ctx, chain, lang, homeID)
	if err != nil {
		return nil, err
	}
	out[len(out)-1].Ancestor = false
	return out, nil
}

// chainNodes returns decorated nodes for the ancestors of page.
func (b *Builder) chainNodes(ctx context.Context, page *pages.Page, lang string, homeID uuid.UUID) ([]*Node, error) {
	chain, err := b.pages.Ancestors(ctx, page)
	if err != nil {
		return nil, err
	}
	return b.wrapChain(ctx, chain, lang, homeID)
}

func (b *Builder) wrapChain(ctx context.Context, chain []*pages.Page, lang string, homeID uuid.UUID) ([]*Node, error) {
	if len(chain) == 0 {
		return nil, nil
	}
	if err := b.pages.AttachTitles(ctx, chain); err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(chain))
	for _, page := range chain {
		node := newPageNode(page)
		node.AncestorsAscending = append([]*Node(nil), out...)
		node.Ancestor = true
		b.decorate(ctx, node, lang, homeID)
		out = append(out, node)
	}
	return out, nil
}

// extenderPath returns the pages above the extender entry matching the
// request path, extender page included, root first.
func (b *Builder) extenderPath(ctx context.Context, req *requests.Request, homeID uuid.UUID, toLevel int) ([]*pages.Page, error) {
	ext, _, err := b.findExtension(ctx, req, homeID, toLevel, DefaultToLevel)
	if err != nil || ext == nil {
		return nil, err
	}
	chain, err := b.pages.Ancestors(ctx, ext)
	if err != nil {
		return nil, err
	}
	return append(chain, ext), nil
}

func (b *Builder) selectedExtension(ctx context.Context, req *requests.Request, homeID uuid.UUID, levels int) (*Node, error) {
	_, selected, err := b.findExtension(ctx, req, homeID, -1, levels)
	return selected, err
}

// findExtension looks for the extender page whose entries select the
// request path. maxLevel below zero lists every level.
func (b *Builder) findExtension(ctx context.Context, req *requests.Request, homeID uuid.UUID, maxLevel, activeLevels int) (*pages.Page, *Node, error) {
	if b.extenders == nil {
		return nil, nil, nil
	}
	inNav := true
	query := pages.Query{SiteID: req.SiteID(), InNavigation: &inNav, WithExtenders: true}
	if maxLevel >= 0 {
		query.MaxLevel = &maxLevel
	}
	records, err := b.pages.List(ctx, req.Scope().Apply(query))
	if err != nil {
		return nil, nil, err
	}
	lang := b.language(req)
	for _, page := range records {
		node := newPageNode(page)
		node.HomeID = homeID
		entries := b.entries(ctx, req, node.extenders)
		if len(entries) == 0 {
			continue
		}
		nodes := extension{path: req.Path, levels: DefaultToLevel, activeLevels: activeLevels}.attach(node, entries)
		if !node.Ancestor {
			continue
		}
		selected := FindSelected(nodes)
		if selected == nil {
			continue
		}
		if err := b.pages.AttachTitles(ctx, []*pages.Page{page}); err == nil {
			b.decorate(ctx, node, lang, homeID)
		}
		node.Children = nodes
		return page, selected, nil
	}
	return nil, nil, nil
}

func (b *Builder) extend(ctx context.Context, req *requests.Request, activeLevels int) func(*Node, int, bool) []*Node {
	if b.extenders == nil {
		return nil
	}
	return func(target *Node, levels int, markSibling bool) []*Node {
		entries := b.entries(ctx, req, target.extenders)
		if len(entries) == 0 {
			return nil
		}
		return extension{
			path:         req.Path,
			levels:       levels,
			activeLevels: activeLevels,
			markSibling:  markSibling,
		}.attach(target, entries)
	}
}

func (b *Builder) entries(ctx context.Context, req *requests.Request, name string) []*ExtendedNode {
	ext, ok := b.extenders.Lookup(name)
	if !ok {
		b.logger.Warn("menus.extender.unknown", "extender", name)
		return nil
	}
	entries, err := ext.Nodes(ctx, req)
	if err != nil {
		b.logger.Warn("menus.extender.failed", "extender", name, "error", err)
		return nil
	}
	return entries
}

func (b *Builder) decorate(ctx context.Context, node *Node, lang string, homeID uuid.UUID) {
	page := node.Page
	if page == nil {
		return
	}
	node.HomeID = homeID
	title := page.TitleFor(lang, append(append([]string(nil), b.fallbacks...), lang)...)
	node.PageTitle = title
	if title == nil {
		node.URL = pages.URLPath(page, nil, homeID)
		return
	}
	node.Title = title.Title
	node.MenuTitle = title.MenuTitle
	node.URL = b.pages.PageURL(ctx, page, title, homeID, lang)
}

func (b *Builder) homeID(ctx context.Context, siteID uuid.UUID, scope pages.Scope) (uuid.UUID, error) {
	home, err := b.pages.Home(ctx, siteID, scope)
	if err != nil {
		if errors.Is(err, pages.ErrNoHomeFound) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return home.ID, nil
}

func (b *Builder) missing(ctx context.Context, req *requests.Request, reverseID string) {
	if b.onMissing != nil {
		b.onMissing(ctx, req, reverseID)
	}
}

func (b *Builder) language(req *requests.Request) string {
	if req != nil && strings.TrimSpace(req.Language) != "" {
		return strings.TrimSpace(req.Language)
	}
	return b.defaultLanguage
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func rootLabel(root *pages.Page) string {
	if root == nil {
		return ""
	}
	if root.ReverseID != "" {
		return root.ReverseID
	}
	return root.ID.String()
}
