package sites

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemorySiteRepository keeps sites in process memory.
type MemorySiteRepository struct {
	mu       sync.RWMutex
	sites    map[uuid.UUID]*Site
	byDomain map[string]uuid.UUID
}

func NewMemorySiteRepository() *MemorySiteRepository {
	return &MemorySiteRepository{
		sites:    make(map[uuid.UUID]*Site),
		byDomain: make(map[string]uuid.UUID),
	}
}

func (m *MemorySiteRepository) Create(_ context.Context, record *Site) (*Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domainKey(record.Domain)
	if _, exists := m.byDomain[key]; exists {
		return nil, ErrDomainExists
	}
	copied := *record
	m.sites[copied.ID] = &copied
	m.byDomain[key] = copied.ID
	out := copied
	return &out, nil
}

func (m *MemorySiteRepository) GetByID(_ context.Context, id uuid.UUID) (*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	site, ok := m.sites[id]
	if !ok {
		return nil, &SiteNotFoundError{Key: id.String()}
	}
	out := *site
	return &out, nil
}

func (m *MemorySiteRepository) GetByDomain(_ context.Context, domain string) (*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byDomain[domainKey(domain)]
	if !ok {
		return nil, &SiteNotFoundError{Key: domain}
	}
	out := *m.sites[id]
	return &out, nil
}

func (m *MemorySiteRepository) List(_ context.Context) ([]*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Site, 0, len(m.sites))
	for _, site := range m.sites {
		copied := *site
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}

func domainKey(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
