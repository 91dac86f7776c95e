package plugins

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryPluginRepository keeps plugins in process memory.
type MemoryPluginRepository struct {
	mu      sync.RWMutex
	plugins map[uuid.UUID]*Plugin
}

func NewMemoryPluginRepository() *MemoryPluginRepository {
	return &MemoryPluginRepository{plugins: make(map[uuid.UUID]*Plugin)}
}

func (m *MemoryPluginRepository) Create(_ context.Context, record *Plugin) (*Plugin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := clonePlugin(record)
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	m.plugins[copied.ID] = copied
	return clonePlugin(copied), nil
}

func (m *MemoryPluginRepository) Update(_ context.Context, record *Plugin) (*Plugin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plugins[record.ID]; !ok {
		return nil, &PluginNotFoundError{Key: record.ID.String()}
	}
	m.plugins[record.ID] = clonePlugin(record)
	return clonePlugin(record), nil
}

func (m *MemoryPluginRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plugins[id]; !ok {
		return &PluginNotFoundError{Key: id.String()}
	}
	delete(m.plugins, id)
	return nil
}

func (m *MemoryPluginRepository) GetByID(_ context.Context, id uuid.UUID) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plugin, ok := m.plugins[id]
	if !ok {
		return nil, &PluginNotFoundError{Key: id.String()}
	}
	return clonePlugin(plugin), nil
}

func (m *MemoryPluginRepository) ListSlot(_ context.Context, slot Slot, topLevelOnly bool) ([]*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Plugin
	for _, plugin := range m.plugins {
		if plugin.PageID != slot.PageID ||
			!strings.EqualFold(plugin.Language, slot.Language) ||
			!strings.EqualFold(plugin.Placeholder, slot.Placeholder) {
			continue
		}
		if topLevelOnly && plugin.ParentID != nil {
			continue
		}
		out = append(out, clonePlugin(plugin))
	}
	sortByPosition(out)
	return out, nil
}

func (m *MemoryPluginRepository) ListChildren(_ context.Context, parentID uuid.UUID) ([]*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Plugin
	for _, plugin := range m.plugins {
		if plugin.ParentID != nil && *plugin.ParentID == parentID {
			out = append(out, clonePlugin(plugin))
		}
	}
	sortByPosition(out)
	return out, nil
}

func (m *MemoryPluginRepository) DeleteByPage(_ context.Context, pageID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, plugin := range m.plugins {
		if plugin.PageID == pageID {
			delete(m.plugins, id)
		}
	}
	return nil
}

func sortByPosition(records []*Plugin) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Position != records[j].Position {
			return records[i].Position < records[j].Position
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

func clonePlugin(src *Plugin) *Plugin {
	if src == nil {
		return nil
	}
	out := *src
	if src.ParentID != nil {
		id := *src.ParentID
		out.ParentID = &id
	}
	if src.Data != nil {
		out.Data = maps.Clone(src.Data)
	}
	return &out
}
