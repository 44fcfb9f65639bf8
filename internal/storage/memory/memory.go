// Package memory реализует key/value хранилище блобов в памяти процесса.
// Используется в локальном окружении и в тестах.
package memory

import (
	"context"
	"sync"
)

// Storage: потокобезопасное хранилище блобов в памяти.
type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

// Get возвращает копию блоба по ключу.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set сохраняет копию блоба по ключу.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}
