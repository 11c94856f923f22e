package shortener

import "time"

// Code represents a short URL code.
type Code string

// Link represents a stored short link together with its click statistics.
type Link struct {
	ID          string
	Title       string
	OriginalURL string
	Code        Code
	Clicks      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastClicked *time.Time // nil until the first redirect
}
