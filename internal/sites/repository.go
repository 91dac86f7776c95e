package sites

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SiteRepository persists sites.
type SiteRepository interface {
	Create(ctx context.Context, record *Site) (*Site, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Site, error)
	GetByDomain(ctx context.Context, domain string) (*Site, error)
	List(ctx context.Context) ([]*Site, error)
}

func NewSiteRepository(db *bun.DB) repository.Repository[*Site] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Site]{
		NewRecord: func() *Site { return &Site{} },
		GetID: func(s *Site) uuid.UUID {
			return s.ID
		},
		SetID: func(s *Site, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "domain"
		},
		GetIdentifierValue: func(s *Site) string {
			return s.Domain
		},
	})
}
