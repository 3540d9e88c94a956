package respcache

import (
	"sync"
)

// Memory keeps entries in process memory.
type Memory struct {
	MaxItems int

	mu    sync.RWMutex
	items map[string]Entry
}

func NewMemory(maxItems int) *Memory {
	return &Memory{MaxItems: maxItems, items: make(map[string]Entry)}
}

func (m *Memory) Get(key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[key]
	return e, ok, nil
}

func (m *Memory) Put(key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]Entry)
	}
	m.items[key] = e

	if m.MaxItems > 0 && len(m.items) > m.MaxItems {
		all := make([]keyed, 0, len(m.items))
		for k, v := range m.items {
			all = append(all, keyed{key: k, entry: v})
		}
		for _, k := range evictionOrder(all, m.MaxItems, e.StoredAt) {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) Close() error { return nil }
