package pages

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryPageRepository is an in-memory page store for tests and fixtures.
type MemoryPageRepository struct {
	mu     sync.RWMutex
	pages  map[uuid.UUID]*Page
	titles map[uuid.UUID][]*Title
}

// NewMemoryPageRepository constructs the repository.
func NewMemoryPageRepository() *MemoryPageRepository {
	return &MemoryPageRepository{
		pages:  make(map[uuid.UUID]*Page),
		titles: make(map[uuid.UUID][]*Title),
	}
}

// Create inserts the supplied page. Titles on the record are stored too.
func (m *MemoryPageRepository) Create(_ context.Context, record *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := clonePage(record)
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	m.titles[copied.ID] = cloneTitles(copied.Titles, copied.ID)
	copied.Titles = nil
	m.pages[copied.ID] = copied
	return m.withTitles(copied), nil
}

// Update persists page attributes. Titles are managed with ReplaceTitles.
func (m *MemoryPageRepository) Update(_ context.Context, record *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[record.ID]; !ok {
		return nil, &PageNotFoundError{Key: record.ID.String()}
	}
	copied := clonePage(record)
	copied.Titles = nil
	m.pages[copied.ID] = copied
	return m.withTitles(copied), nil
}

// Delete removes a page and its titles.
func (m *MemoryPageRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[id]; !ok {
		return &PageNotFoundError{Key: id.String()}
	}
	delete(m.pages, id)
	delete(m.titles, id)
	return nil
}

// GetByID retrieves a page with all titles.
func (m *MemoryPageRepository) GetByID(_ context.Context, id uuid.UUID) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, ok := m.pages[id]
	if !ok {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	return m.withTitles(page), nil
}

// GetByReverseID retrieves the page of a site carrying reverseID.
func (m *MemoryPageRepository) GetByReverseID(_ context.Context, siteID uuid.UUID, reverseID string, scope Scope) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	query := scope.Apply(Query{SiteID: siteID})
	for _, page := range m.pages {
		if page.ReverseID == "" || page.ReverseID != reverseID {
			continue
		}
		if !m.matches(page, query) {
			continue
		}
		return m.withTitles(page), nil
	}
	return nil, &ReverseIDNotFoundError{ReverseID: reverseID}
}

// List returns the pages matching query ordered by tree and lft.
func (m *MemoryPageRepository) List(_ context.Context, query Query) ([]*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Page, 0, len(m.pages))
	for _, page := range m.pages {
		if !m.matches(page, query) {
			continue
		}
		out = append(out, clonePage(page))
	}
	SortTreeOrder(out)
	return out, nil
}

// UpdateTree writes the tree fields and parent links of records.
func (m *MemoryPageRepository) UpdateTree(_ context.Context, records []*Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		if record == nil {
			continue
		}
		stored, ok := m.pages[record.ID]
		if !ok {
			return &PageNotFoundError{Key: record.ID.String()}
		}
		stored.ParentID = cloneUUIDPtr(record.ParentID)
		stored.TreeID = record.TreeID
		stored.Lft = record.Lft
		stored.Rght = record.Rght
		stored.Level = record.Level
		stored.Position = record.Position
	}
	return nil
}

// ReplaceTitles swaps every title of a page.
func (m *MemoryPageRepository) ReplaceTitles(_ context.Context, pageID uuid.UUID, titles []*Title) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[pageID]; !ok {
		return &PageNotFoundError{Key: pageID.String()}
	}
	m.titles[pageID] = cloneTitles(titles, pageID)
	return nil
}

// ListTitles returns the titles of pageIDs. An empty language returns all.
func (m *MemoryPageRepository) ListTitles(_ context.Context, pageIDs []uuid.UUID, language string) ([]*Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Title
	for _, id := range pageIDs {
		for _, title := range m.titles[id] {
			if language != "" && !strings.EqualFold(title.Language, language) {
				continue
			}
			copied := *title
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MemoryPageRepository) matches(page *Page, q Query) bool {
	if q.SiteID != uuid.Nil && page.SiteID != q.SiteID {
		return false
	}
	if q.PublishedOnly && !page.IsPublishedAt(q.Now) {
		return false
	}
	if q.InNavigation != nil && page.InNavigation != *q.InNavigation {
		return false
	}
	if q.MaxLevel != nil && page.Level > *q.MaxLevel {
		return false
	}
	if q.Under != nil && !q.Under.IsAncestorOf(page) {
		return false
	}
	if q.AncestorsOf != nil && !page.IsAncestorOf(q.AncestorsOf) {
		return false
	}
	if q.WithExtenders && strings.TrimSpace(page.NavigationExtenders) == "" {
		return false
	}
	if q.RootsOnly && page.ParentID != nil {
		return false
	}
	if len(q.IDs) > 0 && !containsID(q.IDs, page.ID) {
		return false
	}
	if q.Language != "" {
		found := false
		for _, title := range m.titles[page.ID] {
			if strings.EqualFold(title.Language, q.Language) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *MemoryPageRepository) withTitles(page *Page) *Page {
	out := clonePage(page)
	out.Titles = cloneTitles(m.titles[page.ID], page.ID)
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func clonePage(src *Page) *Page {
	if src == nil {
		return nil
	}
	out := *src
	out.ParentID = cloneUUIDPtr(src.ParentID)
	if src.PublishAt != nil {
		t := *src.PublishAt
		out.PublishAt = &t
	}
	if src.UnpublishAt != nil {
		t := *src.UnpublishAt
		out.UnpublishAt = &t
	}
	out.Titles = cloneTitles(src.Titles, src.ID)
	return &out
}

func cloneTitles(src []*Title, pageID uuid.UUID) []*Title {
	if len(src) == 0 {
		return nil
	}
	out := make([]*Title, 0, len(src))
	for _, title := range src {
		if title == nil {
			continue
		}
		copied := *title
		copied.PageID = pageID
		if copied.ID == uuid.Nil {
			copied.ID = uuid.New()
		}
		out = append(out, &copied)
	}
	return out
}

func cloneUUIDPtr(src *uuid.UUID) *uuid.UUID {
	if src == nil {
		return nil
	}
	id := *src
	return &id
}
