package sites

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BunSiteRepository struct {
	repo repository.Repository[*Site]
}

func NewBunSiteRepository(db *bun.DB) *BunSiteRepository {
	return &BunSiteRepository{repo: NewSiteRepository(db)}
}

func (r *BunSiteRepository) Create(ctx context.Context, record *Site) (*Site, error) {
	return r.repo.Create(ctx, record)
}

func (r *BunSiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*Site, error) {
	site, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return site, nil
}

func (r *BunSiteRepository) GetByDomain(ctx context.Context, domain string) (*Site, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(?TableAlias.domain) = ?", domainKey(domain))
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, domain)
	}
	if len(records) == 0 {
		return nil, &SiteNotFoundError{Key: domain}
	}
	return records[0], nil
}

func (r *BunSiteRepository) List(ctx context.Context) ([]*Site, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.domain ASC")
		}),
	)
	return records, err
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &SiteNotFoundError{Key: key}
	}
	return fmt.Errorf("site repository error: %w", err)
}
