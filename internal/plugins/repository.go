package plugins

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PluginRepository persists plugins.
type PluginRepository interface {
	Create(ctx context.Context, record *Plugin) (*Plugin, error)
	Update(ctx context.Context, record *Plugin) (*Plugin, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Plugin, error)
	// ListSlot returns the plugins of a slot ordered by position. The
	// placeholder name matches case-insensitively.
	ListSlot(ctx context.Context, slot Slot, topLevelOnly bool) ([]*Plugin, error)
	// ListChildren returns the plugins nested in parentID.
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*Plugin, error)
	DeleteByPage(ctx context.Context, pageID uuid.UUID) error
}

func NewPluginRepository(db *bun.DB) repository.Repository[*Plugin] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Plugin]{
		NewRecord: func() *Plugin { return &Plugin{} },
		GetID: func(p *Plugin) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Plugin, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(p *Plugin) string {
			return p.ID.String()
		},
	})
}
