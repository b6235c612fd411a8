package persistence

import (
	"context"
	"sync"
)

// MemoryProvider keeps saved data in process. It counts saves per key,
// which makes it useful for dry runs and tests.
type MemoryProvider struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves map[string]int
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		data:  make(map[string][]byte),
		saves: make(map[string]int),
	}
}

func (p *MemoryProvider) Name() string { return "memory" }

func (p *MemoryProvider) Load(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (p *MemoryProvider) Save(_ context.Context, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key] = append([]byte(nil), data...)
	p.saves[key]++
	return nil
}

// SaveCount returns how many times key was saved.
func (p *MemoryProvider) SaveCount(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves[key]
}
