package pages

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PageRepository persists pages and their titles. GetByID and
// GetByReverseID attach every title; List never does.
type PageRepository interface {
	Create(ctx context.Context, record *Page) (*Page, error)
	Update(ctx context.Context, record *Page) (*Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	GetByReverseID(ctx context.Context, siteID uuid.UUID, reverseID string, scope Scope) (*Page, error)
	List(ctx context.Context, query Query) ([]*Page, error)
	UpdateTree(ctx context.Context, records []*Page) error
	ReplaceTitles(ctx context.Context, pageID uuid.UUID, titles []*Title) error
	ListTitles(ctx context.Context, pageIDs []uuid.UUID, language string) ([]*Title, error)
}

func NewPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "reverse_id"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.ReverseID
		},
	})
}

func NewTitleRepository(db *bun.DB) repository.Repository[*Title] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Title]{
		NewRecord: func() *Title { return &Title{} },
		GetID: func(t *Title) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Title, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "path"
		},
		GetIdentifierValue: func(t *Title) string {
			return t.Path
		},
	})
}
