package shortener

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("link not found")
	ErrCodeExists = errors.New("short code already exists")
	ErrURLExists  = errors.New("original url already exists")
)

// Repository defines the storage operations for links.
type Repository interface {
	// Create persists a new link and assigns its ID.
	// Returns ErrCodeExists or ErrURLExists on a uniqueness conflict.
	Create(ctx context.Context, link *Link) error
	GetByCode(ctx context.Context, code Code) (*Link, error)
	GetByURL(ctx context.Context, originalURL string) (*Link, error)
	// RecordVisit increments the click counter by one and stamps lastClicked
	// in a single atomic update, returning the updated link.
	RecordVisit(ctx context.Context, code Code, at time.Time) (*Link, error)
	// List returns links newest first. A limit <= 0 returns every link.
	List(ctx context.Context, limit int) ([]*Link, error)
}
