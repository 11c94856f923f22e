package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(code, url string, createdAt time.Time) *shortener.Link {
	return &shortener.Link{
		Title:       "example.com",
		OriginalURL: url,
		Code:        shortener.Code(code),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestMemoryStore_Create(t *testing.T) {
	t.Run("saves link and assigns an id", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink("abc123", "https://example.com", time.Now())

		err := s.Create(context.Background(), link)

		require.NoError(t, err)
		assert.NotEmpty(t, link.ID)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Create(context.Background(), newLink("abc123", "https://example.com", time.Now()))

		err := s.Create(context.Background(), newLink("abc123", "https://other.com", time.Now()))

		assert.ErrorIs(t, err, shortener.ErrCodeExists)

		got, _ := s.GetByCode(context.Background(), "abc123")
		assert.Equal(t, "https://example.com", got.OriginalURL)
	})

	t.Run("rejects duplicate original url", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Create(context.Background(), newLink("abc123", "https://example.com", time.Now()))

		err := s.Create(context.Background(), newLink("xyz789", "https://example.com", time.Now()))

		assert.ErrorIs(t, err, shortener.ErrURLExists)
	})
}

func TestMemoryStore_Get(t *testing.T) {
	s := store.NewMemoryStore()
	_ = s.Create(context.Background(), newLink("abc123", "https://example.com", time.Now()))

	t.Run("returns link by code", func(t *testing.T) {
		link, err := s.GetByCode(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", link.OriginalURL)
	})

	t.Run("returns link by url", func(t *testing.T) {
		link, err := s.GetByURL(context.Background(), "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, shortener.Code("abc123"), link.Code)
	})

	t.Run("returns ErrNotFound when code does not exist", func(t *testing.T) {
		link, err := s.GetByCode(context.Background(), "nope00")

		assert.Nil(t, link)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("returns ErrNotFound when url does not exist", func(t *testing.T) {
		link, err := s.GetByURL(context.Background(), "https://missing.com")

		assert.Nil(t, link)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("returned links are copies", func(t *testing.T) {
		link, _ := s.GetByCode(context.Background(), "abc123")
		link.Clicks = 99

		again, _ := s.GetByCode(context.Background(), "abc123")
		assert.Equal(t, int64(0), again.Clicks)
	})
}

func TestMemoryStore_RecordVisit(t *testing.T) {
	t.Run("increments clicks and sets last clicked", func(t *testing.T) {
		s := store.NewMemoryStore()
		created := time.Now()
		_ = s.Create(context.Background(), newLink("abc123", "https://example.com", created))

		at := created.Add(time.Minute)
		link, err := s.RecordVisit(context.Background(), "abc123", at)

		require.NoError(t, err)
		assert.Equal(t, int64(1), link.Clicks)
		require.NotNil(t, link.LastClicked)
		assert.True(t, at.Equal(*link.LastClicked))
		assert.True(t, at.Equal(link.UpdatedAt))
	})

	t.Run("last clicked never moves backwards", func(t *testing.T) {
		s := store.NewMemoryStore()
		created := time.Now()
		_ = s.Create(context.Background(), newLink("abc123", "https://example.com", created))

		later := created.Add(time.Hour)
		_, _ = s.RecordVisit(context.Background(), "abc123", later)
		link, err := s.RecordVisit(context.Background(), "abc123", created.Add(time.Minute))

		require.NoError(t, err)
		assert.Equal(t, int64(2), link.Clicks)
		assert.True(t, later.Equal(*link.LastClicked))
	})

	t.Run("unknown code returns ErrNotFound", func(t *testing.T) {
		s := store.NewMemoryStore()

		link, err := s.RecordVisit(context.Background(), "nope00", time.Now())

		assert.Nil(t, link)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("concurrent visits are all counted", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Create(context.Background(), newLink("abc123", "https://example.com", time.Now()))

		const visits = 100

		var wg sync.WaitGroup

		for range visits {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, _ = s.RecordVisit(context.Background(), "abc123", time.Now())
			}()
		}

		wg.Wait()

		link, _ := s.GetByCode(context.Background(), "abc123")
		assert.Equal(t, int64(visits), link.Clicks)
	})
}

func TestMemoryStore_List(t *testing.T) {
	s := store.NewMemoryStore()
	base := time.Now()

	_ = s.Create(context.Background(), newLink("aaaaaa", "https://a.com", base))
	_ = s.Create(context.Background(), newLink("cccccc", "https://c.com", base.Add(2*time.Second)))
	_ = s.Create(context.Background(), newLink("bbbbbb", "https://b.com", base.Add(time.Second)))

	t.Run("orders newest first", func(t *testing.T) {
		links, err := s.List(context.Background(), 0)

		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, shortener.Code("cccccc"), links[0].Code)
		assert.Equal(t, shortener.Code("bbbbbb"), links[1].Code)
		assert.Equal(t, shortener.Code("aaaaaa"), links[2].Code)
	})

	t.Run("applies limit", func(t *testing.T) {
		links, err := s.List(context.Background(), 2)

		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, shortener.Code("cccccc"), links[0].Code)
	})

	t.Run("same timestamp falls back to insertion order", func(t *testing.T) {
		s := store.NewMemoryStore()
		now := time.Now()

		_ = s.Create(context.Background(), newLink("first1", "https://1.com", now))
		_ = s.Create(context.Background(), newLink("secnd2", "https://2.com", now))

		links, err := s.List(context.Background(), 0)

		require.NoError(t, err)
		assert.Equal(t, shortener.Code("secnd2"), links[0].Code)
	})
}
