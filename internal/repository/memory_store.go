package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内存储，测试和单进程场景使用
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	bus    *broadcaster
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		bus:    newBroadcaster(),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Publish(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.bus.send(SessionEvent{At: time.Now()})
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context) (<-chan SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	ch := s.bus.add()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.bus.remove(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.bus.closeAll()
	}
	return nil
}
