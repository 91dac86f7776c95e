package plugins

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Plugin is a content fragment placed in a named placeholder of a page in
// one language. Nested plugins reference their container through ParentID
// and are rendered by it, never by the placeholder directly.
type Plugin struct {
	bun.BaseModel `bun:"table:plugins,alias:pl"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	PageID      uuid.UUID      `bun:"page_id,notnull,type:uuid" json:"page_id"`
	Language    string         `bun:"language,notnull" json:"language"`
	Placeholder string         `bun:"placeholder,notnull" json:"placeholder"`
	Position    int            `bun:"position,notnull" json:"position"`
	ParentID    *uuid.UUID     `bun:"parent_id,type:uuid" json:"parent_id,omitempty"`
	PluginType  string         `bun:"plugin_type,notnull" json:"plugin_type"`
	Data        map[string]any `bun:"data,type:jsonb" json:"data,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Slot addresses one placeholder of a page in a language.
type Slot struct {
	PageID      uuid.UUID
	Language    string
	Placeholder string
}

// RenderContext is handed to plugin types while rendering a placeholder.
type RenderContext struct {
	Slot Slot
	// Values holds the template context merged with the placeholder's
	// configured extra context.
	Values map[string]any
}

// Type renders one kind of plugin.
type Type interface {
	Name() string
	// Schema describes Data. A nil schema accepts any payload.
	Schema() map[string]any
	Render(ctx context.Context, rc RenderContext, plugin *Plugin) (string, error)
}
