package prefs

import (
	"context"
	"sync"

	"github.com/shubhammm008/Infosys-Team5/core"
)

type Memory struct {
	sync.RWMutex
	values map[string][]byte
}

var _ Store = (*Memory)(nil) // interface compliance check

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.RLock()
	defer m.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.Lock()
	defer m.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.Lock()
	defer m.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error { return nil }
