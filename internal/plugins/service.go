package plugins

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/identity"
	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Service manages plugins and renders placeholders.
type Service interface {
	Add(ctx context.Context, req AddPluginRequest) (*Plugin, error)
	Update(ctx context.Context, req UpdatePluginRequest) (*Plugin, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeletePage(ctx context.Context, pageID uuid.UUID) error
	ForPlaceholder(ctx context.Context, slot Slot) ([]*Plugin, error)
	RenderPlaceholder(ctx context.Context, slot Slot, values map[string]any) (string, error)
	RenderPlugin(ctx context.Context, rc RenderContext, plugin *Plugin) (string, error)
	Children(ctx context.Context, parentID uuid.UUID) ([]*Plugin, error)
	Types() []string
}

// AddPluginRequest appends a plugin to a slot. A nil Position appends at
// the end.
type AddPluginRequest struct {
	PageID      uuid.UUID
	Language    string
	Placeholder string
	PluginType  string
	Position    *int
	ParentID    *uuid.UUID
	Data        map[string]any
}

// UpdatePluginRequest replaces the data or position of a plugin.
type UpdatePluginRequest struct {
	ID       uuid.UUID
	Position *int
	Data     map[string]any
}

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

type service struct {
	repo     PluginRepository
	registry *Registry
	now      func() time.Time
	logger   interfaces.Logger
}

func NewService(repo PluginRepository, registry *Registry, opts ...ServiceOption) Service {
	if registry == nil {
		registry = NewRegistry()
	}
	s := &service{
		repo:     repo,
		registry: registry,
		now:      time.Now,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Add(ctx context.Context, req AddPluginRequest) (*Plugin, error) {
	slot, err := normalizeSlot(Slot{PageID: req.PageID, Language: req.Language, Placeholder: req.Placeholder})
	if err != nil {
		return nil, err
	}
	pluginType := normalizeType(req.PluginType)
	if pluginType == "" {
		return nil, ErrTypeRequired
	}
	if err := s.registry.Validate(pluginType, req.Data); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PageID != slot.PageID || !strings.EqualFold(parent.Language, slot.Language) ||
			!strings.EqualFold(parent.Placeholder, slot.Placeholder) {
			return nil, ErrParentMismatch
		}
	}

	position := 0
	if req.Position != nil {
		position = *req.Position
	} else {
		var siblings []*Plugin
		if req.ParentID != nil {
			siblings, err = s.repo.ListChildren(ctx, *req.ParentID)
		} else {
			siblings, err = s.repo.ListSlot(ctx, slot, true)
		}
		if err != nil {
			return nil, err
		}
		for _, sibling := range siblings {
			if sibling.Position >= position {
				position = sibling.Position + 1
			}
		}
	}

	id := identity.PluginUUID(slot.PageID, slot.Language, slot.Placeholder, position)
	if _, err := s.repo.GetByID(ctx, id); err == nil {
		id = uuid.New()
	}

	now := s.now().UTC()
	record := &Plugin{
		ID:          id,
		PageID:      slot.PageID,
		Language:    slot.Language,
		Placeholder: slot.Placeholder,
		Position:    position,
		ParentID:    req.ParentID,
		PluginType:  pluginType,
		Data:        maps.Clone(req.Data),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("plugins.added", "plugin_id", created.ID.String(), "placeholder", slot.Placeholder, "type", pluginType)
	return created, nil
}

func (s *service) Update(ctx context.Context, req UpdatePluginRequest) (*Plugin, error) {
	record, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Data != nil {
		if err := s.registry.Validate(record.PluginType, req.Data); err != nil {
			return nil, err
		}
		record.Data = maps.Clone(req.Data)
	}
	if req.Position != nil {
		record.Position = *req.Position
	}
	record.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, record)
}

// Delete removes a plugin and everything nested in it.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	children, err := s.repo.ListChildren(ctx, id)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.Delete(ctx, child.ID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) DeletePage(ctx context.Context, pageID uuid.UUID) error {
	return s.repo.DeleteByPage(ctx, pageID)
}

// ForPlaceholder returns the top-level plugins of a slot in position order.
func (s *service) ForPlaceholder(ctx context.Context, slot Slot) ([]*Plugin, error) {
	slot, err := normalizeSlot(slot)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSlot(ctx, slot, true)
}

func (s *service) Children(ctx context.Context, parentID uuid.UUID) ([]*Plugin, error) {
	return s.repo.ListChildren(ctx, parentID)
}

// RenderPlaceholder renders every top-level plugin of the slot and joins
// the output. The first failing plugin aborts rendering.
func (s *service) RenderPlaceholder(ctx context.Context, slot Slot, values map[string]any) (string, error) {
	records, err := s.ForPlaceholder(ctx, slot)
	if err != nil {
		return "", err
	}
	rc := RenderContext{Slot: slot, Values: values}
	var b strings.Builder
	for _, record := range records {
		out, err := s.RenderPlugin(ctx, rc, record)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (s *service) RenderPlugin(ctx context.Context, rc RenderContext, plugin *Plugin) (string, error) {
	if plugin == nil {
		return "", nil
	}
	typ, ok := s.registry.Lookup(plugin.PluginType)
	if !ok {
		return "", &RenderError{PluginID: plugin.ID.String(), PluginType: plugin.PluginType, Err: ErrTypeUnknown}
	}
	out, err := typ.Render(ctx, rc, plugin)
	if err != nil {
		s.logger.Warn("plugins.render_failed", "plugin_id", plugin.ID.String(), "type", plugin.PluginType, "error", err)
		return "", &RenderError{PluginID: plugin.ID.String(), PluginType: plugin.PluginType, Err: err}
	}
	return out, nil
}

func (s *service) Types() []string {
	return s.registry.Names()
}

// NormalizePlaceholder lowercases a placeholder name and strips quotes.
func NormalizePlaceholder(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"'`)
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeSlot(slot Slot) (Slot, error) {
	if slot.PageID == uuid.Nil {
		return slot, ErrPageRequired
	}
	slot.Language = strings.ToLower(strings.TrimSpace(slot.Language))
	if slot.Language == "" {
		return slot, ErrLanguageRequired
	}
	slot.Placeholder = NormalizePlaceholder(slot.Placeholder)
	if slot.Placeholder == "" {
		return slot, ErrPlaceholderRequired
	}
	return slot, nil
}

// IsRenderError reports whether err came from a plugin type.
func IsRenderError(err error) bool {
	var renderErr *RenderError
	return errors.As(err, &renderErr)
}
