package pages

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/identity"
	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Service exposes page tree operations.
type Service interface {
	Create(ctx context.Context, req CreatePageRequest) (*Page, error)
	Update(ctx context.Context, req UpdatePageRequest) (*Page, error)
	Move(ctx context.Context, req MovePageRequest) (*Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetTitles(ctx context.Context, pageID uuid.UUID, titles []TitleInput) (*Page, error)
	Get(ctx context.Context, id uuid.UUID) (*Page, error)
	GetByReverseID(ctx context.Context, siteID uuid.UUID, reverseID string, scope Scope) (*Page, error)
	Home(ctx context.Context, siteID uuid.UUID, scope Scope) (*Page, error)
	Ancestors(ctx context.Context, page *Page) ([]*Page, error)
	List(ctx context.Context, query Query) ([]*Page, error)
	Titles(ctx context.Context, pageIDs []uuid.UUID, language string) ([]*Title, error)
	AttachTitles(ctx context.Context, records []*Page) error
	RebuildTree(ctx context.Context, siteID uuid.UUID) error
	AbsoluteURL(ctx context.Context, page *Page, language string, fallback bool) (string, error)
	PageURL(ctx context.Context, page *Page, title *Title, homeID uuid.UUID, language string) string
}

// TitleInput describes one language of a page.
type TitleInput struct {
	Language        string
	Title           string
	Slug            string
	MenuTitle       string
	PageTitle       string
	MetaDescription string
	MetaKeywords    string
	Path            string
	Redirect        string
}

func (t TitleInput) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Language, validation.Required),
		validation.Field(&t.Title, validation.Required),
	)
}

// CreatePageRequest captures the input for Create. The page becomes the
// last child of ParentID, or the last root of the site.
type CreatePageRequest struct {
	ID                  uuid.UUID
	SiteID              uuid.UUID
	ParentID            *uuid.UUID
	ReverseID           string
	SoftRoot            bool
	InNavigation        bool
	NavigationExtenders string
	Published           bool
	PublishAt           *time.Time
	UnpublishAt         *time.Time
	Template            string
	Titles              []TitleInput
}

// UpdatePageRequest changes page flags. Nil fields are left untouched.
type UpdatePageRequest struct {
	ID                  uuid.UUID
	ReverseID           *string
	SoftRoot            *bool
	InNavigation        *bool
	NavigationExtenders *string
	Published           *bool
	PublishAt           *time.Time
	UnpublishAt         *time.Time
	Template            *string
}

// MovePageRequest re-parents a page. A nil ParentID moves it to the roots.
type MovePageRequest struct {
	ID       uuid.UUID
	ParentID *uuid.UUID
	Position int
}

// ServiceOption configures the page service.
type ServiceOption func(*service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithURLResolver routes page URLs through a resolver before falling back to
// title paths.
func WithURLResolver(resolver URLResolver) ServiceOption {
	return func(s *service) {
		s.urlResolver = resolver
	}
}

// WithFallbackLanguages sets the language order used when a title is
// missing and fallback is requested.
func WithFallbackLanguages(languages ...string) ServiceOption {
	return func(s *service) {
		s.fallbacks = append([]string(nil), languages...)
	}
}

type service struct {
	repo        PageRepository
	now         func() time.Time
	logger      interfaces.Logger
	urlResolver URLResolver
	fallbacks   []string
}

func NewService(repo PageRepository, opts ...ServiceOption) Service {
	s := &service{
		repo:   repo,
		now:    time.Now,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreatePageRequest) (*Page, error) {
	if req.SiteID == uuid.Nil {
		return nil, ErrSiteRequired
	}
	if len(req.Titles) == 0 {
		return nil, ErrTitleRequired
	}
	if err := validateWindow(req.PublishAt, req.UnpublishAt); err != nil {
		return nil, err
	}
	titles, err := s.buildTitles(req.Titles)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReverseIDFree(ctx, req.SiteID, req.ReverseID, uuid.Nil); err != nil {
		return nil, err
	}

	siblings, err := s.siblings(ctx, req.SiteID, req.ParentID)
	if err != nil {
		return nil, err
	}

	id := req.ID
	if id == uuid.Nil {
		key := strings.TrimSpace(req.ReverseID)
		if key == "" {
			key = titles[0].Slug
			if req.ParentID != nil {
				key = req.ParentID.String() + "/" + key
			}
		}
		id = identity.PageUUID(req.SiteID, key)
		if _, err := s.repo.GetByID(ctx, id); err == nil {
			id = uuid.New()
		}
	}

	now := s.now().UTC()
	page := &Page{
		ID:                  id,
		SiteID:              req.SiteID,
		ParentID:            cloneUUIDPtr(req.ParentID),
		Position:            len(siblings),
		ReverseID:           strings.TrimSpace(req.ReverseID),
		SoftRoot:            req.SoftRoot,
		InNavigation:        req.InNavigation,
		NavigationExtenders: strings.TrimSpace(req.NavigationExtenders),
		Published:           req.Published,
		PublishAt:           utcPtr(req.PublishAt),
		UnpublishAt:         utcPtr(req.UnpublishAt),
		Template:            strings.TrimSpace(req.Template),
		CreatedAt:           now,
		UpdatedAt:           now,
		Titles:              titles,
	}
	for _, title := range page.Titles {
		title.ID = identity.TitleUUID(page.ID, title.Language)
		title.PageID = page.ID
		title.CreatedAt = now
		title.UpdatedAt = now
	}

	if _, err := s.repo.Create(ctx, page); err != nil {
		return nil, err
	}
	if err := s.RebuildTree(ctx, req.SiteID); err != nil {
		return nil, err
	}
	logging.WithFields(s.logger, map[string]any{
		"page_id":    page.ID.String(),
		"reverse_id": page.ReverseID,
	}).Debug("pages.created")
	return s.repo.GetByID(ctx, page.ID)
}

func (s *service) Update(ctx context.Context, req UpdatePageRequest) (*Page, error) {
	if req.ID == uuid.Nil {
		return nil, ErrPageRequired
	}
	page, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.ReverseID != nil {
		reverseID := strings.TrimSpace(*req.ReverseID)
		if err := s.ensureReverseIDFree(ctx, page.SiteID, reverseID, page.ID); err != nil {
			return nil, err
		}
		page.ReverseID = reverseID
	}
	if req.SoftRoot != nil {
		page.SoftRoot = *req.SoftRoot
	}
	if req.InNavigation != nil {
		page.InNavigation = *req.InNavigation
	}
	if req.NavigationExtenders != nil {
		page.NavigationExtenders = strings.TrimSpace(*req.NavigationExtenders)
	}
	publication := req.Published != nil || req.PublishAt != nil || req.UnpublishAt != nil
	if req.Published != nil {
		page.Published = *req.Published
	}
	if req.PublishAt != nil {
		page.PublishAt = utcPtr(req.PublishAt)
	}
	if req.UnpublishAt != nil {
		page.UnpublishAt = utcPtr(req.UnpublishAt)
	}
	if req.Template != nil {
		page.Template = strings.TrimSpace(*req.Template)
	}
	if err := validateWindow(page.PublishAt, page.UnpublishAt); err != nil {
		return nil, err
	}
	page.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, page)
	if err != nil || !publication || updated.ParentID != nil {
		return updated, err
	}
	// a root changing publication can move home, which changes title paths
	if err := s.RebuildTree(ctx, updated.SiteID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, updated.ID)
}

func (s *service) Move(ctx context.Context, req MovePageRequest) (*Page, error) {
	if req.ID == uuid.Nil {
		return nil, ErrPageRequired
	}
	page, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx, Query{SiteID: page.SiteID})
	if err != nil {
		return nil, err
	}

	var moved *Page
	for _, candidate := range all {
		if candidate.ID == page.ID {
			moved = candidate
		}
	}
	if moved == nil {
		return nil, &PageNotFoundError{Key: page.ID.String()}
	}
	if req.ParentID != nil {
		if *req.ParentID == page.ID {
			return nil, ErrPageParentCycle
		}
		var parent *Page
		for _, candidate := range all {
			if candidate.ID == *req.ParentID {
				parent = candidate
			}
		}
		if parent == nil {
			return nil, ErrParentNotFound
		}
		if page.IsAncestorOf(parent) {
			return nil, ErrPageParentCycle
		}
	}

	moved.ParentID = cloneUUIDPtr(req.ParentID)
	// Siblings keep their order; the moved page slots in before the sibling
	// currently at req.Position.
	for _, candidate := range all {
		if candidate.ID == moved.ID || !sameParent(candidate.ParentID, moved.ParentID) {
			continue
		}
		if candidate.Position >= req.Position {
			candidate.Position++
		}
	}
	moved.Position = req.Position

	if err := s.applyTree(ctx, all); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, page.ID)
}

// Delete removes a page and all of its descendants.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrPageRequired
	}
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	descendants, err := s.repo.List(ctx, Query{SiteID: page.SiteID, Under: page})
	if err != nil {
		return err
	}
	// Deepest first so parent links never dangle mid-way.
	for i := len(descendants) - 1; i >= 0; i-- {
		if err := s.repo.Delete(ctx, descendants[i].ID); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, page.ID); err != nil {
		return err
	}
	return s.RebuildTree(ctx, page.SiteID)
}

func (s *service) SetTitles(ctx context.Context, pageID uuid.UUID, inputs []TitleInput) (*Page, error) {
	page, err := s.repo.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrTitleRequired
	}
	titles, err := s.buildTitles(inputs)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	for _, title := range titles {
		title.ID = identity.TitleUUID(page.ID, title.Language)
		title.PageID = page.ID
		title.CreatedAt = now
		title.UpdatedAt = now
	}
	if err := s.repo.ReplaceTitles(ctx, page.ID, titles); err != nil {
		return nil, err
	}
	if err := s.RebuildTree(ctx, page.SiteID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, page.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Page, error) {
	if id == uuid.Nil {
		return nil, ErrPageRequired
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByReverseID(ctx context.Context, siteID uuid.UUID, reverseID string, scope Scope) (*Page, error) {
	return s.repo.GetByReverseID(ctx, siteID, strings.TrimSpace(reverseID), s.scope(scope))
}

// Home returns the first root page of the site, in tree order, that is
// published at scope.Now. Draft scopes see unpublished pages elsewhere but
// never get an unpublished home, so URLs stay the same in preview.
func (s *service) Home(ctx context.Context, siteID uuid.UUID, scope Scope) (*Page, error) {
	now := s.scope(scope).Now
	roots, err := s.repo.List(ctx, Scope{Now: now}.Apply(Query{SiteID: siteID, RootsOnly: true}))
	if err != nil {
		return nil, err
	}
	home := HomeOf(roots, now)
	if home == nil {
		return nil, ErrNoHomeFound
	}
	return home, nil
}

// Ancestors returns the ancestors of page, root first, regardless of
// publication state.
func (s *service) Ancestors(ctx context.Context, page *Page) ([]*Page, error) {
	if page == nil || page.ParentID == nil {
		return nil, nil
	}
	return s.repo.List(ctx, Query{SiteID: page.SiteID, AncestorsOf: page})
}

func (s *service) List(ctx context.Context, query Query) ([]*Page, error) {
	if query.PublishedOnly && query.Now.IsZero() {
		query.Now = s.now()
	}
	return s.repo.List(ctx, query)
}

func (s *service) Titles(ctx context.Context, pageIDs []uuid.UUID, language string) ([]*Title, error) {
	return s.repo.ListTitles(ctx, pageIDs, language)
}

// AttachTitles loads every title of records in one query.
func (s *service) AttachTitles(ctx context.Context, records []*Page) error {
	ids := make([]uuid.UUID, 0, len(records))
	for _, page := range records {
		if page != nil {
			ids = append(ids, page.ID)
		}
	}
	titles, err := s.repo.ListTitles(ctx, ids, "")
	if err != nil {
		return err
	}
	byPage := make(map[uuid.UUID][]*Title, len(records))
	for _, title := range titles {
		byPage[title.PageID] = append(byPage[title.PageID], title)
	}
	for _, page := range records {
		if page != nil {
			page.Titles = byPage[page.ID]
		}
	}
	return nil
}

// RebuildTree renumbers the nested-set fields of a site and refreshes title
// paths.
func (s *service) RebuildTree(ctx context.Context, siteID uuid.UUID) error {
	all, err := s.repo.List(ctx, Query{SiteID: siteID})
	if err != nil {
		return err
	}
	return s.applyTree(ctx, all)
}

func (s *service) applyTree(ctx context.Context, all []*Page) error {
	if len(all) == 0 {
		return nil
	}
	if err := AssignTree(all); err != nil {
		return err
	}
	if err := s.AttachTitles(ctx, all); err != nil {
		return err
	}
	home := HomeOf(all, s.now())
	homeID := uuid.Nil
	if home != nil {
		homeID = home.ID
	}
	before := snapshotPaths(all)
	AssignPaths(all, homeID)

	if err := s.repo.UpdateTree(ctx, all); err != nil {
		return err
	}
	for _, page := range all {
		if pathsChanged(before[page.ID], page.Titles) {
			if err := s.repo.ReplaceTitles(ctx, page.ID, page.Titles); err != nil {
				return err
			}
		}
	}
	s.logger.Debug("pages.tree.rebuilt", "site_id", all[0].SiteID.String(), "pages", len(all))
	return nil
}

// AbsoluteURL returns the URL of page in language. With fallback, a missing
// title is replaced using the configured fallback languages; without it
// the lookup fails with ErrPageTranslationNotFound.
func (s *service) AbsoluteURL(ctx context.Context, page *Page, language string, fallback bool) (string, error) {
	if page == nil {
		return "", ErrPageRequired
	}
	if len(page.Titles) == 0 {
		if err := s.AttachTitles(ctx, []*Page{page}); err != nil {
			return "", err
		}
	}
	var title *Title
	if fallback {
		title = page.TitleFor(language, s.fallbackOrder(language)...)
	} else {
		title = page.TitleFor(language)
	}
	if title == nil {
		return "", &TranslationNotFoundError{PageID: page.ID.String(), Language: language}
	}

	homeID := uuid.Nil
	if home, err := s.Home(ctx, page.SiteID, Scope{}); err == nil {
		homeID = home.ID
	} else if !errors.Is(err, ErrNoHomeFound) {
		return "", err
	}
	return s.PageURL(ctx, page, title, homeID, language), nil
}

// PageURL resolves the URL for a page title, consulting the URL resolver
// first.
func (s *service) PageURL(ctx context.Context, page *Page, title *Title, homeID uuid.UUID, language string) string {
	if s.urlResolver != nil && page != nil {
		url, err := s.urlResolver.Resolve(ctx, ResolveRequest{
			Page:     page,
			Title:    title,
			Language: language,
			Home:     page.ID == homeID,
		})
		if err != nil {
			s.logger.Warn("pages.url.resolve_failed", "page_id", page.ID.String(), "error", err)
		} else if url != "" {
			return url
		}
	}
	return URLPath(page, title, homeID)
}

func (s *service) fallbackOrder(language string) []string {
	out := make([]string, 0, len(s.fallbacks))
	for _, lang := range s.fallbacks {
		if !strings.EqualFold(lang, language) {
			out = append(out, lang)
		}
	}
	if len(out) == 0 {
		// any title
		out = append(out, language)
	}
	return out
}

func (s *service) scope(scope Scope) Scope {
	if scope.Now.IsZero() {
		scope.Now = s.now()
	}
	return scope
}

func (s *service) siblings(ctx context.Context, siteID uuid.UUID, parentID *uuid.UUID) ([]*Page, error) {
	if parentID == nil {
		return s.repo.List(ctx, Query{SiteID: siteID, RootsOnly: true})
	}
	parent, err := s.repo.GetByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, ErrPageNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}
	if parent.SiteID != siteID {
		return nil, ErrParentSiteMismatch
	}
	maxLevel := parent.Level + 1
	return s.repo.List(ctx, Query{SiteID: siteID, Under: parent, MaxLevel: &maxLevel})
}

func (s *service) ensureReverseIDFree(ctx context.Context, siteID uuid.UUID, reverseID string, self uuid.UUID) error {
	reverseID = strings.TrimSpace(reverseID)
	if reverseID == "" {
		return nil
	}
	existing, err := s.repo.GetByReverseID(ctx, siteID, reverseID, Scope{Draft: true})
	if err != nil {
		if errors.Is(err, ErrPageNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return ErrReverseIDExists
	}
	return nil
}

func (s *service) buildTitles(inputs []TitleInput) ([]*Title, error) {
	seen := make(map[string]struct{}, len(inputs))
	out := make([]*Title, 0, len(inputs))
	for _, input := range inputs {
		if err := input.Validate(); err != nil {
			return nil, err
		}
		language := strings.ToLower(strings.TrimSpace(input.Language))
		if _, dup := seen[language]; dup {
			return nil, ErrDuplicateLanguage
		}
		seen[language] = struct{}{}

		rawSlug := strings.TrimSpace(input.Slug)
		if rawSlug == "" {
			rawSlug = input.Title
		}
		normalized, err := slug.Normalize(rawSlug)
		if err != nil || normalized == "" {
			return nil, ErrSlugRequired
		}
		if !slug.IsValid(normalized) {
			return nil, ErrSlugInvalid
		}

		title := &Title{
			Language:        language,
			Title:           strings.TrimSpace(input.Title),
			Slug:            normalized,
			MenuTitle:       strings.TrimSpace(input.MenuTitle),
			PageTitle:       strings.TrimSpace(input.PageTitle),
			MetaDescription: strings.TrimSpace(input.MetaDescription),
			MetaKeywords:    strings.TrimSpace(input.MetaKeywords),
			Redirect:        strings.TrimSpace(input.Redirect),
		}
		if path := strings.Trim(strings.TrimSpace(input.Path), "/"); path != "" {
			title.Path = path
			title.HasURLOverwrite = true
		}
		out = append(out, title)
	}
	return out, nil
}

func validateWindow(publishAt, unpublishAt *time.Time) error {
	if publishAt != nil && unpublishAt != nil && !publishAt.Before(*unpublishAt) {
		return ErrScheduleWindowInvalid
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func snapshotPaths(records []*Page) map[uuid.UUID]map[string]string {
	out := make(map[uuid.UUID]map[string]string, len(records))
	for _, page := range records {
		paths := make(map[string]string, len(page.Titles))
		for _, title := range page.Titles {
			paths[title.Language] = title.Path
		}
		out[page.ID] = paths
	}
	return out
}

func pathsChanged(before map[string]string, titles []*Title) bool {
	for _, title := range titles {
		if before[title.Language] != title.Path {
			return true
		}
	}
	return false
}
