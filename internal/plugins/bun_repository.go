package plugins

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const pluginNamespace = "plugin"

// BunPluginRepository stores plugins through go-repository-bun.
type BunPluginRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Plugin]
	base         repository.Repository[*Plugin]
	cacheService cache.CacheService
	cachePrefix  string
}

func NewBunPluginRepository(db *bun.DB) *BunPluginRepository {
	return NewBunPluginRepositoryWithCache(db, nil, nil)
}

// NewBunPluginRepositoryWithCache caches lookups by id when a cache service
// is supplied.
func NewBunPluginRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunPluginRepository {
	base := NewPluginRepository(db)
	repo := &BunPluginRepository{db: db, repo: base, base: base}
	if cacheService != nil && keySerializer != nil {
		repo.repo = repositorycache.New(base, cacheService, keySerializer)
		repo.cacheService = cacheService
		repo.cachePrefix = pluginNamespace + cache.KeySeparator
	}
	return repo
}

func (r *BunPluginRepository) Create(ctx context.Context, record *Plugin) (*Plugin, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return created, nil
}

func (r *BunPluginRepository) Update(ctx context.Context, record *Plugin) (*Plugin, error) {
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns("placeholder", "position", "parent_id", "data", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, record.ID.String())
	}
	r.invalidate(ctx)
	return updated, nil
}

func (r *BunPluginRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*Plugin)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete plugin: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return &PluginNotFoundError{Key: id.String()}
	}
	r.invalidate(ctx)
	return nil
}

func (r *BunPluginRepository) GetByID(ctx context.Context, id uuid.UUID) (*Plugin, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunPluginRepository) ListSlot(ctx context.Context, slot Slot, topLevelOnly bool) ([]*Plugin, error) {
	records, _, err := r.base.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.page_id = ?", slot.PageID).
				Where("LOWER(?TableAlias.language) = ?", strings.ToLower(slot.Language)).
				Where("LOWER(?TableAlias.placeholder) = ?", strings.ToLower(slot.Placeholder))
			if topLevelOnly {
				q = q.Where("?TableAlias.parent_id IS NULL")
			}
			return q.OrderExpr("?TableAlias.position ASC").OrderExpr("?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunPluginRepository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*Plugin, error) {
	records, _, err := r.base.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.parent_id = ?", parentID).
				OrderExpr("?TableAlias.position ASC")
		}),
	)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunPluginRepository) DeleteByPage(ctx context.Context, pageID uuid.UUID) error {
	if _, err := r.db.NewDelete().
		Model((*Plugin)(nil)).
		Where("?TableAlias.page_id = ?", pageID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete page plugins: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// InvalidateCache drops cached plugin lookups.
func (r *BunPluginRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func (r *BunPluginRepository) invalidate(ctx context.Context) {
	_ = r.InvalidateCache(ctx)
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &PluginNotFoundError{Key: key}
	}
	return fmt.Errorf("plugin repository error: %w", err)
}
