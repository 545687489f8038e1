package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu     sync.RWMutex
	m      map[int64]Product
	nextID int64
}

func NewMemStore() *MemStore {
	return NewMemStoreWith(SeedProducts())
}

// NewMemStoreWith starts the store with the given records; ids are kept as is.
func NewMemStoreWith(seed []Product) *MemStore {
	s := &MemStore{m: make(map[int64]Product, len(seed)), nextID: 1}
	for _, p := range seed {
		s.m[p.ID] = p.clone()
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p.clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p.clone(), ok, nil
}

func (s *MemStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.m[id]
	return ok, nil
}

func (s *MemStore) Create(ctx context.Context, p Product) (Product, error) {
	if err := checkCreate(p); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.clone()
	p.ID = s.nextID
	s.nextID++
	s.m[p.ID] = p
	return p.clone(), nil
}

func (s *MemStore) Update(ctx context.Context, id int64, p Product, fields ...Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.m[id]
	if !ok {
		return ErrNotFound
	}
	apply(&cur, p, fields)
	s.m[id] = cur
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, id)
	return nil
}
