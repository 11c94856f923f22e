package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[shortener.Code]*shortener.Link
	urls  map[string]shortener.Code // originalURL -> code
	order []shortener.Code          // insertion order
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[shortener.Code]*shortener.Link),
		urls:  make(map[string]shortener.Code),
	}
}

func (m *MemoryStore) Create(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Code]; ok {
		return shortener.ErrCodeExists
	}

	if _, ok := m.urls[link.OriginalURL]; ok {
		return shortener.ErrURLExists
	}

	if link.ID == "" {
		link.ID = uuid.NewString()
	}

	m.links[link.Code] = clone(link)
	m.urls[link.OriginalURL] = link.Code
	m.order = append(m.order, link.Code)

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return clone(link), nil
}

func (m *MemoryStore) GetByURL(_ context.Context, originalURL string) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.urls[originalURL]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return clone(m.links[code]), nil
}

func (m *MemoryStore) RecordVisit(_ context.Context, code shortener.Code, at time.Time) (*shortener.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	// lastClicked never moves backwards, even if callers race on the clock.
	if link.LastClicked != nil && link.LastClicked.After(at) {
		at = *link.LastClicked
	}

	link.Clicks++
	link.LastClicked = &at

	if at.After(link.UpdatedAt) {
		link.UpdatedAt = at
	}

	return clone(link), nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make([]*shortener.Link, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		links = append(links, clone(m.links[m.order[i]]))
	}

	// Newest insertion first already; the stable sort only reorders links
	// whose CreatedAt disagrees with insertion order.
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}

	return links, nil
}

func clone(link *shortener.Link) *shortener.Link {
	c := *link
	if link.LastClicked != nil {
		t := *link.LastClicked
		c.LastClicked = &t
	}

	return &c
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
