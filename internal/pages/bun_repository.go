package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const pageNamespace = "page"

// BunPageRepository stores pages through go-repository-bun. When a cache
// service is supplied, lookups by id go through go-repository-cache while
// filtered listings always hit the database.
type BunPageRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Page]
	base         repository.Repository[*Page]
	titles       repository.Repository[*Title]
	cacheService cache.CacheService
	cachePrefix  string
}

func NewBunPageRepository(db *bun.DB) *BunPageRepository {
	return NewBunPageRepositoryWithCache(db, nil, nil)
}

// NewBunPageRepositoryWithCache constructs a PageRepository backed by bun with optional caching.
func NewBunPageRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunPageRepository {
	base := NewPageRepository(db)
	repo := &BunPageRepository{
		db:     db,
		repo:   wrapWithCache(base, cacheService, keySerializer),
		base:   base,
		titles: NewTitleRepository(db),
	}
	if cacheService != nil && keySerializer != nil {
		repo.cacheService = cacheService
		repo.cachePrefix = pageNamespace + cache.KeySeparator
	}
	return repo
}

func (r *BunPageRepository) Create(ctx context.Context, record *Page) (*Page, error) {
	titles := record.Titles
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	if len(titles) > 0 {
		if err := r.ReplaceTitles(ctx, created.ID, titles); err != nil {
			return nil, err
		}
	}
	r.invalidate(ctx)
	return r.GetByID(ctx, created.ID)
}

func (r *BunPageRepository) Update(ctx context.Context, record *Page) (*Page, error) {
	_, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"parent_id",
			"reverse_id",
			"soft_root",
			"in_navigation",
			"navigation_extenders",
			"published",
			"publish_at",
			"unpublish_at",
			"template",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", record.ID.String())
	}
	r.invalidate(ctx)
	return r.GetByID(ctx, record.ID)
}

func (r *BunPageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if r.db == nil {
		return fmt.Errorf("page repository: database not configured")
	}
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Title)(nil)).
			Where("?TableAlias.page_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete page titles: %w", err)
		}

		result, err := tx.NewDelete().
			Model((*Page)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete page: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("page delete rows affected: %w", err)
		}
		if affected == 0 {
			return &PageNotFoundError{Key: id.String()}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *BunPageRepository) GetByID(ctx context.Context, id uuid.UUID) (*Page, error) {
	result, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "page", id.String())
	}
	return r.attachTitles(ctx, result)
}

func (r *BunPageRepository) GetByReverseID(ctx context.Context, siteID uuid.UUID, reverseID string, scope Scope) (*Page, error) {
	if strings.TrimSpace(reverseID) == "" {
		return nil, &ReverseIDNotFoundError{ReverseID: reverseID}
	}
	query := scope.Apply(Query{SiteID: siteID})
	records, _, err := r.base.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.reverse_id = ?", reverseID)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return applyQuery(q, query)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", reverseID)
	}
	if len(records) == 0 {
		return nil, &ReverseIDNotFoundError{ReverseID: reverseID}
	}
	return r.attachTitles(ctx, records[0])
}

func (r *BunPageRepository) List(ctx context.Context, query Query) ([]*Page, error) {
	records, _, err := r.base.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return applyQuery(q, query)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.tree_id ASC").OrderExpr("?TableAlias.lft ASC")
		}),
	)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunPageRepository) UpdateTree(ctx context.Context, records []*Page) error {
	if r.db == nil {
		return fmt.Errorf("page repository: database not configured")
	}
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, record := range records {
			if record == nil {
				continue
			}
			if _, err := tx.NewUpdate().
				Model(record).
				Column("parent_id", "tree_id", "lft", "rght", "level", "position").
				WherePK().
				Exec(ctx); err != nil {
				return fmt.Errorf("update page tree %s: %w", record.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *BunPageRepository) ReplaceTitles(ctx context.Context, pageID uuid.UUID, titles []*Title) error {
	if r.db == nil {
		return fmt.Errorf("page repository: database not configured")
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Title)(nil)).
			Where("?TableAlias.page_id = ?", pageID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete page titles: %w", err)
		}

		if len(titles) == 0 {
			return nil
		}

		now := time.Now().UTC()
		toInsert := make([]*Title, 0, len(titles))
		for _, title := range titles {
			if title == nil {
				continue
			}
			cloned := *title
			cloned.PageID = pageID
			if cloned.ID == uuid.Nil {
				cloned.ID = uuid.New()
			}
			if cloned.CreatedAt.IsZero() {
				cloned.CreatedAt = now
			}
			if cloned.UpdatedAt.IsZero() {
				cloned.UpdatedAt = now
			}
			toInsert = append(toInsert, &cloned)
		}

		if len(toInsert) == 0 {
			return nil
		}

		if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
			return fmt.Errorf("insert page titles: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *BunPageRepository) ListTitles(ctx context.Context, pageIDs []uuid.UUID, language string) ([]*Title, error) {
	if len(pageIDs) == 0 {
		return nil, nil
	}
	records, _, err := r.titles.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.page_id IN (?)", bun.In(pageIDs))
			if language != "" {
				q = q.Where("LOWER(?TableAlias.language) = ?", strings.ToLower(language))
			}
			return q
		}),
	)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunPageRepository) attachTitles(ctx context.Context, page *Page) (*Page, error) {
	titles, err := r.ListTitles(ctx, []uuid.UUID{page.ID}, "")
	if err != nil {
		return nil, err
	}
	page.Titles = titles
	return page, nil
}

// InvalidateCache drops cached page lookups.
func (r *BunPageRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func (r *BunPageRepository) invalidate(ctx context.Context) {
	_ = r.InvalidateCache(ctx)
}

func applyQuery(q *bun.SelectQuery, query Query) *bun.SelectQuery {
	if q == nil {
		return q
	}
	if query.SiteID != uuid.Nil {
		q = q.Where("?TableAlias.site_id = ?", query.SiteID)
	}
	if query.PublishedOnly {
		now := query.Now
		if now.IsZero() {
			now = time.Now()
		}
		q = q.Where("?TableAlias.published = ?", true).
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.publish_at IS NULL").WhereOr("?TableAlias.publish_at <= ?", now)
			}).
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.unpublish_at IS NULL").WhereOr("?TableAlias.unpublish_at > ?", now)
			})
	}
	if query.InNavigation != nil {
		q = q.Where("?TableAlias.in_navigation = ?", *query.InNavigation)
	}
	if query.MaxLevel != nil {
		q = q.Where("?TableAlias.level <= ?", *query.MaxLevel)
	}
	if root := query.Under; root != nil {
		q = q.Where("?TableAlias.tree_id = ?", root.TreeID).
			Where("?TableAlias.lft > ?", root.Lft).
			Where("?TableAlias.rght < ?", root.Rght)
	}
	if leaf := query.AncestorsOf; leaf != nil {
		q = q.Where("?TableAlias.tree_id = ?", leaf.TreeID).
			Where("?TableAlias.lft < ?", leaf.Lft).
			Where("?TableAlias.rght > ?", leaf.Rght)
	}
	if query.WithExtenders {
		q = q.Where("?TableAlias.navigation_extenders IS NOT NULL").
			Where("?TableAlias.navigation_extenders <> ''")
	}
	if query.RootsOnly {
		q = q.Where("?TableAlias.parent_id IS NULL")
	}
	if len(query.IDs) > 0 {
		q = q.Where("?TableAlias.id IN (?)", bun.In(query.IDs))
	}
	if query.Language != "" {
		q = q.Where("?TableAlias.id IN (SELECT page_id FROM titles WHERE LOWER(language) = ?)", strings.ToLower(query.Language))
	}
	return q
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}

	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &PageNotFoundError{
			Key: key,
		}
	}

	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
