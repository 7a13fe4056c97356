package npc

import (
	"maps"
	"slices"
	"sync"
)

// bbMap is a thread-safe map-based blackboard implementation.
type bbMap struct {
	mu      sync.RWMutex
	data    map[string]any
	version uint64
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() Blackboard {
	return &bbMap{data: make(map[string]any)}
}

func (b *bbMap) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}

func (b *bbMap) Set(key string, value any) {
	b.mu.Lock()
	b.data[key] = value
	b.version++
	b.mu.Unlock()
}

func (b *bbMap) Delete(key string) {
	b.mu.Lock()
	if _, ok := b.data[key]; ok {
		delete(b.data, key)
		b.version++
	}
	b.mu.Unlock()
}

func (b *bbMap) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

func (b *bbMap) Keys() []string {
	b.mu.RLock()
	keys := slices.Collect(maps.Keys(b.data))
	b.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

func (b *bbMap) GetString(key string) (string, bool) {
	v, ok := b.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (b *bbMap) GetFloat(key string) (float64, bool) {
	v, ok := b.Get(key)
	if !ok {
		return 0, false
	}
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	case int:
		return float64(tv), true
	case int64:
		return float64(tv), true
	default:
		return 0, false
	}
}

func (b *bbMap) GetInt(key string) (int, bool) {
	v, ok := b.Get(key)
	if !ok {
		return 0, false
	}
	switch tv := v.(type) {
	case int:
		return tv, true
	case int64:
		return int(tv), true
	case float64:
		return int(tv), true
	default:
		return 0, false
	}
}

func (b *bbMap) GetBool(key string) (bool, bool) {
	v, ok := b.Get(key)
	if !ok {
		return false, false
	}
	bv, ok := v.(bool)
	return bv, ok
}

func (b *bbMap) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

func (b *bbMap) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.data)
}
